package correlate

import (
	"math"

	"github.com/montanaflynn/stats"

	"github.com/jawad201-cmd/punjab-smog-pipline/internal/domain"
)

// Dispersion is an ordinary least squares fit of PM2.5 on wind speed for one
// scope. A negative slope means stronger wind clears the air. Slope,
// Intercept and R are nil unless Status is StatusOK.
type Dispersion struct {
	Scope      string   `json:"scope"`
	Slope      *float64 `json:"slope,omitempty"`
	Intercept  *float64 `json:"intercept,omitempty"`
	R          *float64 `json:"r,omitempty"`
	SampleSize int      `json:"sample_size"`
	Status     Status   `json:"status"`
}

// Dispersion regresses pollution on same-day wind speed.
func (c *Correlator) Dispersion(scope string, speed, pollution Series) Dispersion {
	xs, ys := align(speed, pollution, 0)
	d := Dispersion{Scope: scope, SampleSize: len(xs)}
	if len(xs) < c.cfg.MinSampleSize {
		d.Status = StatusInsufficientData
		return d
	}

	mx, _ := stats.Mean(xs)
	my, _ := stats.Mean(ys)
	var sxy, sxx, syy float64
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		d.Status = StatusZeroVariance
		return d
	}

	slope := sxy / sxx
	r := math.Max(-1, math.Min(1, sxy/math.Sqrt(sxx*syy)))
	d.Slope = domain.Ptr(slope)
	d.Intercept = domain.Ptr(my - slope*mx)
	d.R = domain.Ptr(r)
	d.Status = StatusOK
	return d
}

// DispersionAll fits each of districts that has data, then the province over
// every district in byDistrict, province last. A nil districts fits them all.
func (c *Correlator) DispersionAll(byDistrict map[string][]domain.DistrictObservation, districts []string) []Dispersion {
	if districts == nil {
		districts = domain.SortedKeys(byDistrict)
	}
	out := make([]Dispersion, 0, len(districts)+1)
	for _, id := range districts {
		s, ok := byDistrict[id]
		if !ok {
			continue
		}
		out = append(out, c.Dispersion(id, Extract(s, WindSpeed), Extract(s, PM25)))
	}
	return append(out, c.Dispersion(domain.ProvinceScope,
		ProvinceSeries(byDistrict, WindSpeed, Mean),
		ProvinceSeries(byDistrict, PM25, Mean)))
}
