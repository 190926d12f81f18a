// Package attribution ranks a district's neighbors by how plausibly their
// fires explain the district's pollution, given where the wind came from.
package attribution

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/jawad201-cmd/punjab-smog-pipline/internal/correlate"
	"github.com/jawad201-cmd/punjab-smog-pipline/internal/domain"
	"github.com/jawad201-cmd/punjab-smog-pipline/internal/geo"
	"github.com/jawad201-cmd/punjab-smog-pipline/internal/windrose"
)

// Score is one neighbor's plausibility as a smoke source for the target.
type Score struct {
	TargetDistrictID string  `json:"target_district_id"`
	SourceDistrictID string  `json:"source_district_id"`
	Plausibility     float64 `json:"plausibility"`

	// Alignment is 1 when the neighbor lies exactly upwind and 0 when it
	// lies exactly downwind.
	Alignment float64 `json:"alignment"`
	// FireIntensity is the neighbor's FRP total over the period divided by
	// the largest district total in the province for the same period.
	FireIntensity float64           `json:"fire_intensity"`
	FireFRP       float64           `json:"fire_frp"`
	Bearing       float64           `json:"bearing_degrees"`
	DistanceKM    float64           `json:"distance_km"`
	Correlation   *correlate.Result `json:"correlation,omitempty"`
}

// Config controls the neighborhood and the lag of the diagnostic correlation.
type Config struct {
	Neighbors int // k; <= 0 uses the index default
	LagDays   int
}

// DefaultConfig returns the index's k and a one-day lag.
func DefaultConfig() Config {
	return Config{LagDays: 1}
}

// Attributor ranks upwind sources.
type Attributor struct {
	index *geo.Index
	roses *windrose.Aggregator
	corr  *correlate.Correlator
	cfg   Config
}

// New wires an Attributor. cfg.LagDays must be a lag corr evaluates.
func New(index *geo.Index, roses *windrose.Aggregator, corr *correlate.Correlator, cfg Config) (*Attributor, error) {
	if cfg.LagDays < 0 || cfg.LagDays > corr.Config().MaxLagDays {
		return nil, fmt.Errorf("attribution lag %d not in [0, %d]", cfg.LagDays, corr.Config().MaxLagDays)
	}
	return &Attributor{index: index, roses: roses, corr: corr, cfg: cfg}, nil
}

// Attribute ranks target's nearest neighbors by plausibility over period,
// highest first, breaking ties by source district ID. obs is the snapshot of
// every district's observations; only days inside period are used.
//
// Plausibility is Alignment × FireIntensity. Alignment compares the bearing
// from the target to the neighbor with the target's dominant wind-from
// direction using (1 + cos Δ) / 2. A neighbor with no fire in the period
// scores exactly 0.
//
// An unknown target is an error. A target without neighbors or without wind
// data in the period yields an empty ranking and no error.
func (a *Attributor) Attribute(target string, period domain.Period, obs []domain.DistrictObservation) ([]Score, error) {
	if !a.index.Contains(target) {
		return nil, domain.UnknownDistrict(target)
	}
	neighbors, err := a.index.Neighbors(target, a.cfg.Neighbors)
	if err != nil {
		return nil, err
	}
	if len(neighbors) == 0 {
		return []Score{}, nil
	}

	byDistrict := domain.Normalize(domain.FilterPeriod(obs, period))
	windFrom, ok := a.roses.Aggregate(target, byDistrict[target]).DominantDirection()
	if !ok {
		return []Score{}, nil
	}

	totals, maxFire := fireTotals(byDistrict)
	targetPM := correlate.Extract(byDistrict[target], correlate.PM25)

	scores := make([]Score, 0, len(neighbors))
	for _, n := range neighbors {
		bearing, err := a.index.Bearing(target, n.DistrictID)
		if err != nil {
			return nil, err
		}
		s := Score{
			TargetDistrictID: target,
			SourceDistrictID: n.DistrictID,
			Alignment:        alignment(bearing, windFrom),
			FireFRP:          totals[n.DistrictID],
			Bearing:          bearing,
			DistanceKM:       n.DistanceKM,
		}
		if s.FireFRP > 0 && maxFire > 0 {
			s.FireIntensity = s.FireFRP / maxFire
			s.Plausibility = math.Max(0, math.Min(1, s.Alignment*s.FireIntensity))
		}

		res, err := a.corr.Correlate(n.DistrictID, correlate.Extract(byDistrict[n.DistrictID], correlate.FireRadiativePower), targetPM, a.cfg.LagDays)
		if err != nil {
			return nil, err
		}
		s.Correlation = &res
		scores = append(scores, s)
	}

	slices.SortFunc(scores, func(x, y Score) int {
		if x.Plausibility != y.Plausibility {
			if x.Plausibility > y.Plausibility {
				return -1
			}
			return 1
		}
		return strings.Compare(x.SourceDistrictID, y.SourceDistrictID)
	})
	return scores, nil
}

// alignment is 1 at zero angular difference and 0 at 180°.
func alignment(bearing, windFrom float64) float64 {
	delta := geo.AngularDifference(bearing, windFrom) * math.Pi / 180
	return (1 + math.Cos(delta)) / 2
}

// fireTotals sums positive FRP per district and returns the largest total.
func fireTotals(byDistrict map[string][]domain.DistrictObservation) (map[string]float64, float64) {
	totals := make(map[string]float64, len(byDistrict))
	var maxFire float64
	for id, series := range byDistrict {
		var sum float64
		for _, o := range series {
			if o.FireRadiativePower != nil && *o.FireRadiativePower > 0 {
				sum += *o.FireRadiativePower
			}
		}
		totals[id] = sum
		maxFire = math.Max(maxFire, sum)
	}
	return totals, maxFire
}
