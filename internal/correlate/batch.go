package correlate

import (
	"context"
	"fmt"
	"runtime"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jawad201-cmd/punjab-smog-pipline/internal/domain"
)

// All correlates fire radiative power with PM2.5 at every configured lag for
// each district in districts and once province-wide. A nil districts slice
// means every district present in obs. Districts are computed on up to
// workers goroutines (GOMAXPROCS when workers <= 0).
//
// Results are ordered by scope with the province last, then by lag.
func (c *Correlator) All(ctx context.Context, obs []domain.DistrictObservation, districts []string, workers int) ([]Result, error) {
	byDistrict := domain.Normalize(obs)
	if districts == nil {
		districts = domain.SortedKeys(byDistrict)
	}
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	perDistrict := make([][]Result, len(districts))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, id := range districts {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			series := byDistrict[id]
			res, err := c.lags(id, Extract(series, FireRadiativePower), Extract(series, PM25))
			if err != nil {
				return fmt.Errorf("correlate %s: %w", id, err)
			}
			perDistrict[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]Result, 0, (len(districts)+1)*(c.cfg.MaxLagDays+1))
	for _, res := range perDistrict {
		out = append(out, res...)
	}
	slices.SortStableFunc(out, func(a, b Result) int {
		if a.Scope != b.Scope {
			return strings.Compare(a.Scope, b.Scope)
		}
		return a.LagDays - b.LagDays
	})

	province, err := c.lags(domain.ProvinceScope,
		ProvinceSeries(byDistrict, FireRadiativePower, Sum),
		ProvinceSeries(byDistrict, PM25, Mean))
	if err != nil {
		return nil, err
	}
	return append(out, province...), nil
}

func (c *Correlator) lags(scope string, fire, pollution Series) ([]Result, error) {
	out := make([]Result, 0, c.cfg.MaxLagDays+1)
	for _, lag := range c.cfg.Lags() {
		r, err := c.Correlate(scope, fire, pollution, lag)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

func dayTime(idx int64) time.Time {
	return time.Unix(idx*86400, 0).UTC()
}

func sortedDays[V any](m map[int64]V) []int64 {
	days := make([]int64, 0, len(m))
	for d := range m {
		days = append(days, d)
	}
	slices.Sort(days)
	return days
}
