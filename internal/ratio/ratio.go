// Package ratio tracks the PM2.5/PM10 ratio, which separates combustion smoke
// (mostly fine particles) from wind-blown dust (mostly coarse).
package ratio

import (
	"fmt"
	"math"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/jawad201-cmd/punjab-smog-pipline/internal/domain"
)

// Band is the classification of a ratio value.
type Band string

const (
	BandCombustion Band = "combustion_dominant"
	BandMixed      Band = "mixed"
	BandDust       Band = "dust_dominant"
)

// Config holds the classification thresholds.
type Config struct {
	CombustionAbove float64 // ratio strictly above is combustion-dominant
	DustBelow       float64 // ratio strictly below is dust-dominant
	MaxPlausible    float64 // ratio strictly above is flagged anomalous
}

// DefaultConfig returns combustion above 0.6, dust below 0.4, and flags any
// ratio above 1 since PM2.5 is a subset of PM10.
func DefaultConfig() Config {
	return Config{CombustionAbove: 0.6, DustBelow: 0.4, MaxPlausible: 1.0}
}

// Validate checks that the thresholds are ordered.
func (c Config) Validate() error {
	if c.DustBelow < 0 {
		return fmt.Errorf("dust threshold must not be negative, got %g", c.DustBelow)
	}
	if c.CombustionAbove < c.DustBelow {
		return fmt.Errorf("combustion threshold %g is below dust threshold %g", c.CombustionAbove, c.DustBelow)
	}
	if c.MaxPlausible < c.CombustionAbove {
		return fmt.Errorf("plausibility ceiling %g is below combustion threshold %g", c.MaxPlausible, c.CombustionAbove)
	}
	return nil
}

// Point is one defined ratio on one day.
type Point struct {
	Date      time.Time `json:"date"`
	Ratio     float64   `json:"ratio"`
	Band      Band      `json:"band"`
	Anomalous bool      `json:"anomalous,omitempty"`
}

// Analyzer classifies ratios with a fixed configuration.
type Analyzer struct {
	cfg Config
}

// New returns an Analyzer for cfg.
func New(cfg Config) (*Analyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Analyzer{cfg: cfg}, nil
}

// Ratio returns pm25/pm10, or nil when either reading is absent, pm10 is not
// positive, or pm25 is negative.
func Ratio(o domain.DistrictObservation) *float64 {
	if o.PM25 == nil || o.PM10 == nil {
		return nil
	}
	pm25, pm10 := *o.PM25, *o.PM10
	if pm10 <= 0 || pm25 < 0 || math.IsNaN(pm25) || math.IsNaN(pm10) || math.IsInf(pm10, 0) {
		return nil
	}
	return domain.Ptr(pm25 / pm10)
}

// Classify maps a ratio to its band.
func (a *Analyzer) Classify(r float64) Band {
	switch {
	case r > a.cfg.CombustionAbove:
		return BandCombustion
	case r < a.cfg.DustBelow:
		return BandDust
	default:
		return BandMixed
	}
}

// Anomalous reports whether r exceeds the plausibility ceiling.
func (a *Analyzer) Anomalous(r float64) bool {
	return r > a.cfg.MaxPlausible
}

// Trend returns the classified ratio for each day of districtID's series in
// date order. Days with an undefined ratio are skipped, leaving a gap in the
// dates rather than a placeholder.
func (a *Analyzer) Trend(districtID string, obs []domain.DistrictObservation) []Point {
	series := domain.NormalizeDistrict(districtID, obs)
	out := make([]Point, 0, len(series))
	for _, o := range series {
		r := Ratio(o)
		if r == nil {
			continue
		}
		out = append(out, Point{
			Date:      o.Date,
			Ratio:     *r,
			Band:      a.Classify(*r),
			Anomalous: a.Anomalous(*r),
		})
	}
	return out
}

// Summary condenses a trend for reports.
type Summary struct {
	DistrictID string       `json:"district_id"`
	Days       int          `json:"days"`
	Mean       *float64     `json:"mean,omitempty"`
	Median     *float64     `json:"median,omitempty"`
	Bands      map[Band]int `json:"bands"`
	Prevailing Band         `json:"prevailing_band,omitempty"`
	Anomalies  int          `json:"anomalies"`
}

// Summarize computes the central ratio and band counts of a trend. The
// prevailing band is the most frequent one; ties go to combustion, then
// mixed, then dust.
func Summarize(districtID string, trend []Point) Summary {
	s := Summary{DistrictID: districtID, Days: len(trend), Bands: make(map[Band]int, 3)}
	if len(trend) == 0 {
		return s
	}

	values := make([]float64, len(trend))
	for i, p := range trend {
		values[i] = p.Ratio
		s.Bands[p.Band]++
		if p.Anomalous {
			s.Anomalies++
		}
	}
	if mean, err := stats.Mean(values); err == nil {
		s.Mean = domain.Ptr(mean)
	}
	if median, err := stats.Median(values); err == nil {
		s.Median = domain.Ptr(median)
	}

	best := 0
	for _, b := range []Band{BandCombustion, BandMixed, BandDust} {
		if s.Bands[b] > best {
			best, s.Prevailing = s.Bands[b], b
		}
	}
	return s
}
