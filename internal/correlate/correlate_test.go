package correlate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jawad201-cmd/punjab-smog-pipline/internal/domain"
)

func day(d int) time.Time {
	return time.Date(2024, time.November, d, 0, 0, 0, 0, time.UTC)
}

func series(values ...float64) Series {
	s := make(Series, len(values))
	for i, v := range values {
		s[i] = Sample{Date: day(i + 1), Value: domain.Ptr(v)}
	}
	return s
}

func newCorrelator(t *testing.T) *Correlator {
	t.Helper()
	c, err := New(DefaultConfig())
	require.NoError(t, err)
	return c
}

// smogScenario returns three districts over five days where fire on day t
// drives PM2.5 on day t+1.
func smogScenario() []domain.DistrictObservation {
	fire := []float64{100, 10, 80, 5, 60}
	var obs []domain.DistrictObservation
	for i, id := range []string{"faisalabad", "kasur", "lahore"} {
		scale := float64(i + 1)
		for d := range 5 {
			o := domain.DistrictObservation{
				DistrictID:         id,
				Date:               day(d + 1),
				FireRadiativePower: domain.Ptr(fire[d] * scale),
				PM25:               domain.Ptr(40.0 * scale),
			}
			if d > 0 {
				o.PM25 = domain.Ptr((50 + fire[d-1]) * scale)
			}
			obs = append(obs, o)
		}
	}
	return obs
}

func TestCorrelate_SelfIsOne(t *testing.T) {
	c := newCorrelator(t)
	s := series(3, 9, 1, 27, 4)

	res, err := c.Correlate("lahore", s, s, 0)
	require.NoError(t, err)
	require.True(t, res.Defined())
	assert.InDelta(t, 1.0, *res.Coefficient, 1e-12)
	assert.Equal(t, 5, res.SampleSize)
	assert.Equal(t, StatusOK, res.Status)
}

func TestCorrelate_InsufficientData(t *testing.T) {
	c := newCorrelator(t)

	res, err := c.Correlate("lahore", series(1, 2), series(5, 7), 0)
	require.NoError(t, err)
	assert.Equal(t, StatusInsufficientData, res.Status)
	assert.Nil(t, res.Coefficient)
	assert.Equal(t, 2, res.SampleSize)
	assert.False(t, res.Defined())
}

func TestCorrelate_DropsMissingPairs(t *testing.T) {
	c := newCorrelator(t)
	fire := series(1, 2, 3, 4, 5)
	poll := series(10, 20, 30, 40, 50)
	fire[1].Value = nil
	poll[3].Value = nil

	res, err := c.Correlate("lahore", fire, poll, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, res.SampleSize)
	require.NotNil(t, res.Coefficient)
	assert.InDelta(t, 1.0, *res.Coefficient, 1e-12)

	res, err = c.Correlate("lahore", fire[:3], poll[:3], 0)
	require.NoError(t, err)
	assert.Equal(t, StatusInsufficientData, res.Status)
}

func TestCorrelate_LagShiftsPollution(t *testing.T) {
	c := newCorrelator(t)
	// Pollution repeats fire one day later.
	fire := series(5, 1, 8, 2, 9, 3)
	poll := series(0, 5, 1, 8, 2, 9)

	res, err := c.Correlate("x", fire, poll, 1)
	require.NoError(t, err)
	assert.Equal(t, 5, res.SampleSize)
	assert.InDelta(t, 1.0, *res.Coefficient, 1e-12)
}

func TestCorrelate_ZeroVariance(t *testing.T) {
	c := newCorrelator(t)
	res, err := c.Correlate("x", series(4, 4, 4, 4), series(1, 2, 3, 4), 0)
	require.NoError(t, err)
	assert.Equal(t, StatusZeroVariance, res.Status)
	assert.Nil(t, res.Coefficient)
}

func TestCorrelate_InvalidLag(t *testing.T) {
	c := newCorrelator(t)
	for _, lag := range []int{-1, 3} {
		_, err := c.Correlate("x", series(1, 2, 3), series(1, 2, 3), lag)
		assert.ErrorIs(t, err, ErrInvalidLag)
	}
}

func TestCorrelate_CoefficientBounded(t *testing.T) {
	c := newCorrelator(t)
	fire := series(1e9, 1e9+1, 1e9+2, 1e9+3)
	poll := series(-3, -2, -1, 0)
	res, err := c.Correlate("x", fire, poll, 0)
	require.NoError(t, err)
	require.NotNil(t, res.Coefficient)
	assert.LessOrEqual(t, *res.Coefficient, 1.0)
	assert.GreaterOrEqual(t, *res.Coefficient, -1.0)
	assert.InDelta(t, 1.0, *res.Coefficient, 1e-9)
}

func TestAll_FireLeadsPollution(t *testing.T) {
	c := newCorrelator(t)

	results, err := c.All(context.Background(), smogScenario(), nil, 0)
	require.NoError(t, err)
	require.Len(t, results, 4*3)

	byScope := make(map[string]map[int]Result)
	for _, r := range results {
		if byScope[r.Scope] == nil {
			byScope[r.Scope] = make(map[int]Result)
		}
		byScope[r.Scope][r.LagDays] = r
	}
	for _, scope := range []string{"faisalabad", "kasur", "lahore", domain.ProvinceScope} {
		lag0, lag1 := byScope[scope][0], byScope[scope][1]
		require.True(t, lag0.Defined(), scope)
		require.True(t, lag1.Defined(), scope)
		assert.Greater(t, *lag1.Coefficient, *lag0.Coefficient+0.5, scope)
		assert.InDelta(t, 1.0, *lag1.Coefficient, 1e-9, scope)
		assert.Equal(t, 4, lag1.SampleSize, scope)
	}

	assert.Equal(t, "faisalabad", results[0].Scope)
	assert.Equal(t, domain.ProvinceScope, results[len(results)-1].Scope)
	assert.Equal(t, 2, results[len(results)-1].LagDays)
}

func TestAll_WorkerCountDoesNotChangeResults(t *testing.T) {
	c := newCorrelator(t)
	obs := smogScenario()

	serial, err := c.All(context.Background(), obs, nil, 1)
	require.NoError(t, err)
	parallel, err := c.All(context.Background(), obs, nil, 8)
	require.NoError(t, err)
	assert.Equal(t, serial, parallel)
}

func TestAll_ExplicitDistrictWithoutData(t *testing.T) {
	c := newCorrelator(t)
	results, err := c.All(context.Background(), smogScenario(), []string{"multan"}, 2)
	require.NoError(t, err)
	require.Len(t, results, 6)
	for _, r := range results[:3] {
		assert.Equal(t, "multan", r.Scope)
		assert.Equal(t, StatusInsufficientData, r.Status)
		assert.Zero(t, r.SampleSize)
	}
}

func TestAll_Cancelled(t *testing.T) {
	c := newCorrelator(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.All(ctx, smogScenario(), nil, 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProvinceSeries(t *testing.T) {
	byDistrict := domain.Normalize([]domain.DistrictObservation{
		{DistrictID: "a", Date: day(1), FireRadiativePower: domain.Ptr(10.0), PM25: domain.Ptr(100.0)},
		{DistrictID: "b", Date: day(1), FireRadiativePower: domain.Ptr(5.0), PM25: domain.Ptr(50.0)},
		{DistrictID: "c", Date: day(1)},
		{DistrictID: "a", Date: day(2), PM25: domain.Ptr(80.0)},
	})

	fire := ProvinceSeries(byDistrict, FireRadiativePower, Sum)
	require.Len(t, fire, 1)
	assert.Equal(t, day(1), fire[0].Date)
	assert.Equal(t, 15.0, *fire[0].Value)

	pm := ProvinceSeries(byDistrict, PM25, Mean)
	require.Len(t, pm, 2)
	assert.Equal(t, 75.0, *pm[0].Value)
	assert.Equal(t, 80.0, *pm[1].Value)
}

func TestResult_Summary(t *testing.T) {
	r := Result{Scope: domain.ProvinceScope, LagDays: 1, Coefficient: domain.Ptr(0.6234), SampleSize: 45, Status: StatusOK}
	assert.Equal(t, "province-wide PM2.5 correlates with fire activity at lag 1 day, r=0.62, n=45", r.Summary())

	r = Result{Scope: "lahore", LagDays: 2, SampleSize: 2, Status: StatusInsufficientData}
	assert.Equal(t, "lahore PM2.5 vs fire activity at lag 2 days: insufficient data, n=2", r.Summary())
}

func TestCorrelate_UnsortedWithDuplicateDays(t *testing.T) {
	c := newCorrelator(t)
	sample := func(d int, v *float64) Sample { return Sample{Date: day(d), Value: v} }

	fire := Series{
		sample(4, domain.Ptr(4.0)),
		sample(1, domain.Ptr(1.0)),
		sample(5, domain.Ptr(5.0)),
		sample(3, domain.Ptr(3.0)),
		sample(2, domain.Ptr(2.0)),
	}
	pollution := Series{
		sample(3, domain.Ptr(900.0)),
		sample(2, domain.Ptr(4.0)),
		sample(5, domain.Ptr(10.0)),
		sample(1, domain.Ptr(2.0)),
		sample(3, domain.Ptr(6.0)), // replaces the earlier day-3 value
		sample(4, domain.Ptr(8.0)),
		sample(5, nil), // clears day 5
	}

	res, err := c.Correlate("lahore", fire, pollution, 0)
	require.NoError(t, err)
	require.True(t, res.Defined())
	assert.Equal(t, 4, res.SampleSize)
	assert.InDelta(t, 1.0, *res.Coefficient, 1e-12)
}

func TestDispersion(t *testing.T) {
	c := newCorrelator(t)
	speed := series(1, 3, 5, 7)
	poll := series(190, 170, 150, 130)

	d := c.Dispersion("lahore", speed, poll)
	require.Equal(t, StatusOK, d.Status)
	assert.InDelta(t, -10.0, *d.Slope, 1e-9)
	assert.InDelta(t, 200.0, *d.Intercept, 1e-9)
	assert.InDelta(t, -1.0, *d.R, 1e-12)
	assert.Equal(t, 4, d.SampleSize)

	short := c.Dispersion("lahore", speed[:2], poll[:2])
	assert.Equal(t, StatusInsufficientData, short.Status)
	assert.Nil(t, short.Slope)
}

func TestDispersionAll_ProvinceLast(t *testing.T) {
	c := newCorrelator(t)
	var obs []domain.DistrictObservation
	for d := 1; d <= 4; d++ {
		for _, id := range []string{"a", "b"} {
			obs = append(obs, domain.DistrictObservation{
				DistrictID: id,
				Date:       day(d),
				WindSpeed:  domain.Ptr(float64(2 * d)),
				PM25:       domain.Ptr(300 - 20*float64(d)),
			})
		}
	}

	got := c.DispersionAll(domain.Normalize(obs), nil)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"a", "b", domain.ProvinceScope}, []string{got[0].Scope, got[1].Scope, got[2].Scope})
	assert.InDelta(t, -10.0, *got[2].Slope, 1e-9)

	subset := c.DispersionAll(domain.Normalize(obs), []string{"b", "missing"})
	require.Len(t, subset, 2)
	assert.Equal(t, "b", subset[0].Scope)
	assert.Equal(t, got[2], subset[1], "province fit ignores the district subset")
}

func TestConfig_Validate(t *testing.T) {
	assert.NoError(t, DefaultConfig().Validate())
	assert.Equal(t, []int{0, 1, 2}, DefaultConfig().Lags())
	assert.Error(t, Config{MinSampleSize: 1, MaxLagDays: 2}.Validate())
	assert.Error(t, Config{MinSampleSize: 3, MaxLagDays: -1}.Validate())
}
