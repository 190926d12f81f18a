// Package windrose bins wind observations into compass sectors and speed
// classes and tracks the particulate load carried in each bin.
package windrose

import (
	"math"

	"github.com/jawad201-cmd/punjab-smog-pipline/internal/domain"
)

var compass16 = []string{
	"N", "NNE", "NE", "ENE", "E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW", "W", "WNW", "NW", "NNW",
}

// Bin is one (sector, speed class) cell of a wind rose.
type Bin struct {
	DistrictID  string   `json:"district_id"`
	Sector      int      `json:"direction_sector"`
	SectorLabel string   `json:"direction_label"`
	SpeedClass  string   `json:"speed_class"`
	Count       int      `json:"frequency_count"`
	MeanPM25    *float64 `json:"mean_pm25_in_bin,omitempty"`
	MeanPM10    *float64 `json:"mean_pm10_in_bin,omitempty"`
}

// Rose is the full wind rose of a district over a window. Bins cover every
// (sector, class) pair, sector-major, in band order.
type Rose struct {
	DistrictID   string `json:"district_id"`
	Sectors      int    `json:"sectors"`
	Bins         []Bin  `json:"bins"`
	Binned       int    `json:"binned"`
	Undetermined int    `json:"undetermined"`
}

// Aggregator builds wind roses with a fixed configuration.
type Aggregator struct {
	cfg   Config
	width float64
}

// New validates cfg and returns an Aggregator.
func New(cfg Config) (*Aggregator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.Bands = append([]SpeedBand(nil), cfg.Bands...)
	return &Aggregator{cfg: cfg, width: 360 / float64(cfg.Sectors)}, nil
}

// Sectors returns the configured sector count.
func (a *Aggregator) Sectors() int { return a.cfg.Sectors }

// Sector maps a direction in degrees to its sector index. Sectors are
// centred on their compass point, so sector 0 covers [-w/2, w/2) and both 0°
// and 359.9° land in it.
func (a *Aggregator) Sector(deg float64) int {
	return sectorOf(deg, a.cfg.Sectors)
}

func sectorOf(deg float64, n int) int {
	w := 360 / float64(n)
	shifted := math.Mod(deg+w/2, 360)
	if shifted < 0 {
		shifted += 360
	}
	s := int(math.Floor(shifted / w))
	if s >= n || s < 0 {
		s = 0
	}
	return s
}

// SectorCenter returns the compass bearing at the centre of a sector.
func (a *Aggregator) SectorCenter(sector int) float64 {
	return float64(sector) * a.width
}

// Label returns the compass abbreviation for a sector.
func (a *Aggregator) Label(sector int) string {
	return compass16[sector*16/a.cfg.Sectors]
}

// SpeedClass returns the index of the band containing speed.
func (a *Aggregator) SpeedClass(speed float64) int {
	idx := 0
	for i, b := range a.cfg.Bands {
		if speed >= b.Min {
			idx = i
		}
	}
	return idx
}

type accumulator struct {
	count    int
	pm25N    int
	pm25Mean float64
	pm10N    int
	pm10Mean float64
}

// Aggregate builds the wind rose for districtID from obs. Records for other
// districts are ignored; duplicates and ordering are normalized first so the
// result depends only on the input set. Observations with a missing or
// non-finite wind field, or a negative speed, are counted as undetermined.
func (a *Aggregator) Aggregate(districtID string, obs []domain.DistrictObservation) Rose {
	series := domain.NormalizeDistrict(districtID, obs)
	nb := len(a.cfg.Bands)
	acc := make([]accumulator, a.cfg.Sectors*nb)

	rose := Rose{DistrictID: districtID, Sectors: a.cfg.Sectors}
	for _, o := range series {
		if !o.HasWind() || !isFinite(*o.WindDirection) || !isFinite(*o.WindSpeed) || *o.WindSpeed < 0 {
			rose.Undetermined++
			continue
		}
		cell := &acc[a.Sector(*o.WindDirection)*nb+a.SpeedClass(*o.WindSpeed)]
		cell.count++
		if o.PM25 != nil {
			cell.pm25N++
			cell.pm25Mean += (*o.PM25 - cell.pm25Mean) / float64(cell.pm25N)
		}
		if o.PM10 != nil {
			cell.pm10N++
			cell.pm10Mean += (*o.PM10 - cell.pm10Mean) / float64(cell.pm10N)
		}
		rose.Binned++
	}

	rose.Bins = make([]Bin, 0, len(acc))
	for s := range a.cfg.Sectors {
		for b, band := range a.cfg.Bands {
			cell := acc[s*nb+b]
			bin := Bin{
				DistrictID:  districtID,
				Sector:      s,
				SectorLabel: a.Label(s),
				SpeedClass:  band.Name,
				Count:       cell.count,
			}
			if cell.pm25N > 0 {
				bin.MeanPM25 = domain.Ptr(cell.pm25Mean)
			}
			if cell.pm10N > 0 {
				bin.MeanPM10 = domain.Ptr(cell.pm10Mean)
			}
			rose.Bins = append(rose.Bins, bin)
		}
	}
	return rose
}

// SectorCounts sums bin counts per sector.
func (r Rose) SectorCounts() []int {
	counts := make([]int, r.Sectors)
	for _, b := range r.Bins {
		counts[b.Sector] += b.Count
	}
	return counts
}

// DominantSector returns the sector with the most observations, preferring
// the lowest index on ties. ok is false when nothing was binned.
func (r Rose) DominantSector() (sector int, ok bool) {
	best := 0
	for s, c := range r.SectorCounts() {
		if c > best {
			best, sector = c, s
		}
	}
	return sector, best > 0
}

// DominantDirection returns the centre bearing of the dominant sector, i.e.
// the prevailing wind-from direction.
func (r Rose) DominantDirection() (float64, bool) {
	s, ok := r.DominantSector()
	if !ok {
		return 0, false
	}
	return float64(s) * 360 / float64(r.Sectors), true
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
