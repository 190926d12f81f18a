package geo

import (
	"strings"

	"github.com/jawad201-cmd/punjab-smog-pipline/internal/domain"
)

// DefaultFireBoxDegrees is the half-width of the box around a district HQ
// that counts as local. 0.5° is roughly 55 km at Punjab's latitude.
const DefaultFireBoxDegrees = 0.5

// FireLoad is the fire activity attributed to one district.
type FireLoad struct {
	Count int     `json:"count"`
	FRP   float64 `json:"frp"`
}

// FireAssignment is the result of spreading provincial detections over districts.
type FireAssignment struct {
	Districts     map[string]FireLoad `json:"districts"`
	ProvincialFRP float64             `json:"provincial_frp"`
	Kept          int                 `json:"kept"`
	LowConfidence int                 `json:"low_confidence"`
}

// AssignFires attributes each detection to every district whose
// ±boxDegrees latitude/longitude box contains it. Boxes overlap for nearby
// districts, so one detection can count toward several of them. Low-confidence
// detections are dropped before counting. Every registered district appears
// in the result, with a zero load when nothing fell in its box.
func AssignFires(ix *Index, fires []domain.FireDetection, boxDegrees float64) FireAssignment {
	if boxDegrees <= 0 {
		boxDegrees = DefaultFireBoxDegrees
	}
	out := FireAssignment{Districts: make(map[string]FireLoad, ix.Len())}
	for _, id := range ix.ids {
		out.Districts[id] = FireLoad{}
	}

	for _, f := range fires {
		if strings.EqualFold(strings.TrimSpace(f.Confidence), "l") {
			out.LowConfidence++
			continue
		}
		out.Kept++
		out.ProvincialFRP += f.FRP

		for _, id := range ix.ids {
			loc := ix.locations[id]
			if f.Latitude < loc.Latitude-boxDegrees || f.Latitude > loc.Latitude+boxDegrees ||
				f.Longitude < loc.Longitude-boxDegrees || f.Longitude > loc.Longitude+boxDegrees {
				continue
			}
			load := out.Districts[id]
			load.Count++
			load.FRP += f.FRP
			out.Districts[id] = load
		}
	}
	return out
}
