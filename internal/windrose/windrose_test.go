package windrose

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jawad201-cmd/punjab-smog-pipline/internal/domain"
)

func day(d int) time.Time {
	return time.Date(2024, time.November, d, 0, 0, 0, 0, time.UTC)
}

func wind(id string, d int, dir, speed float64) domain.DistrictObservation {
	return domain.DistrictObservation{
		DistrictID:    id,
		Date:          day(d),
		WindDirection: domain.Ptr(dir),
		WindSpeed:     domain.Ptr(speed),
	}
}

func newAggregator(t *testing.T, sectors int) *Aggregator {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Sectors = sectors
	a, err := New(cfg)
	require.NoError(t, err)
	return a
}

func TestSector_NorthWraps(t *testing.T) {
	for _, n := range []int{8, 16} {
		a := newAggregator(t, n)
		assert.Equal(t, a.Sector(0), a.Sector(359.9), "n=%d", n)
		assert.Equal(t, 0, a.Sector(0))
		assert.Equal(t, 0, a.Sector(360))
		assert.Equal(t, 0, a.Sector(-5))
	}
}

func TestSector_Boundaries(t *testing.T) {
	a := newAggregator(t, 8)
	tests := []struct {
		deg  float64
		want int
	}{
		{22.4, 0},
		{22.5, 1},
		{45, 1},
		{90, 2},
		{180, 4},
		{270, 6},
		{337.4, 7},
		{337.5, 0},
		{720 + 90, 2},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, a.Sector(tt.deg), "%v°", tt.deg)
	}
}

func TestSector_EveryDirectionHasExactlyOneSector(t *testing.T) {
	for _, n := range []int{8, 16} {
		a := newAggregator(t, n)
		hits := make([]int, n)
		for tenth := 0; tenth < 3600; tenth++ {
			s := a.Sector(float64(tenth) / 10)
			require.GreaterOrEqual(t, s, 0)
			require.Less(t, s, n)
			hits[s]++
		}
		for s, h := range hits {
			assert.Equal(t, 3600/n, h, "n=%d sector %d", n, s)
		}
	}
}

func TestLabel(t *testing.T) {
	eight := newAggregator(t, 8)
	assert.Equal(t, "N", eight.Label(0))
	assert.Equal(t, "NE", eight.Label(1))
	assert.Equal(t, "NW", eight.Label(7))

	sixteen := newAggregator(t, 16)
	assert.Equal(t, "NNE", sixteen.Label(1))
	assert.Equal(t, "WNW", sixteen.Label(13))
}

func TestSpeedClass(t *testing.T) {
	a := newAggregator(t, 8)
	assert.Equal(t, 0, a.SpeedClass(0))
	assert.Equal(t, 0, a.SpeedClass(1.99))
	assert.Equal(t, 1, a.SpeedClass(2))
	assert.Equal(t, 1, a.SpeedClass(5.99))
	assert.Equal(t, 2, a.SpeedClass(6), "lower bounds are inclusive")
	assert.Equal(t, 2, a.SpeedClass(11.9))
	assert.Equal(t, 3, a.SpeedClass(12), "lower bounds are inclusive")
	assert.Equal(t, 3, a.SpeedClass(80))
}

func TestAggregate_FullGridAndCounts(t *testing.T) {
	a := newAggregator(t, 8)
	lahore := func(d int, dir, speed, pm float64) domain.DistrictObservation {
		o := wind("lahore", d, dir, speed)
		o.PM25 = domain.Ptr(pm)
		return o
	}
	obs := []domain.DistrictObservation{
		lahore(1, 300, 8, 200),
		lahore(2, 310, 7, 300),
		lahore(3, 90, 1, 50),
		{DistrictID: "lahore", Date: day(4), PM25: domain.Ptr(80.0)}, // no wind
		wind("kasur", 1, 180, 20),
	}

	rose := a.Aggregate("lahore", obs)

	assert.Len(t, rose.Bins, 8*4)
	assert.Equal(t, 3, rose.Binned)
	assert.Equal(t, 1, rose.Undetermined)

	total := 0
	for _, b := range rose.Bins {
		total += b.Count
	}
	assert.Equal(t, rose.Binned, total)

	// 300° and 310° are both NW (sector 7), moderate.
	nw := rose.Bins[7*4+2]
	assert.Equal(t, "NW", nw.SectorLabel)
	assert.Equal(t, "moderate", nw.SpeedClass)
	assert.Equal(t, 2, nw.Count)
	require.NotNil(t, nw.MeanPM25)
	assert.InDelta(t, 250.0, *nw.MeanPM25, 1e-9)
	assert.Nil(t, nw.MeanPM10)

	calmEast := rose.Bins[2*4+0]
	assert.Equal(t, 1, calmEast.Count)

	empty := rose.Bins[4*4+3]
	assert.Zero(t, empty.Count)
	assert.Nil(t, empty.MeanPM25)

	dir, ok := rose.DominantDirection()
	require.True(t, ok)
	assert.Equal(t, 315.0, dir)
}

func TestAggregate_NonFiniteIsUndetermined(t *testing.T) {
	a := newAggregator(t, 8)
	rose := a.Aggregate("x", []domain.DistrictObservation{
		wind("x", 1, math.NaN(), 5),
		wind("x", 2, 90, math.Inf(1)),
		wind("x", 3, 90, -1),
	})
	assert.Zero(t, rose.Binned)
	assert.Equal(t, 3, rose.Undetermined)

	_, ok := rose.DominantSector()
	assert.False(t, ok)
}

func TestAggregate_Idempotent(t *testing.T) {
	a := newAggregator(t, 16)
	obs := []domain.DistrictObservation{
		wind("x", 3, 10, 3),
		wind("x", 1, 200, 14),
		wind("x", 2, 200, 0.5),
	}
	reversed := []domain.DistrictObservation{obs[2], obs[1], obs[0]}

	first := a.Aggregate("x", obs)
	assert.Equal(t, first, a.Aggregate("x", obs))
	assert.Equal(t, first, a.Aggregate("x", reversed))
}

func TestAggregate_DuplicateDayLastWins(t *testing.T) {
	a := newAggregator(t, 8)
	rose := a.Aggregate("x", []domain.DistrictObservation{
		wind("x", 1, 0, 3),
		wind("x", 1, 180, 3),
	})
	counts := rose.SectorCounts()
	assert.Equal(t, 0, counts[0])
	assert.Equal(t, 1, counts[4])
}

func TestDominantSector_TieGoesToLowestIndex(t *testing.T) {
	a := newAggregator(t, 8)
	rose := a.Aggregate("x", []domain.DistrictObservation{
		wind("x", 1, 270, 3),
		wind("x", 2, 90, 3),
	})
	s, ok := rose.DominantSector()
	require.True(t, ok)
	assert.Equal(t, 2, s)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want string
	}{
		{"sectors", Config{Sectors: 12, Bands: DefaultConfig().Bands}, "8 or 16"},
		{"no bands", Config{Sectors: 8}, "at least one"},
		{"offset", Config{Sectors: 8, Bands: []SpeedBand{{Name: "a", Min: 1}}}, "start at 0"},
		{"order", Config{Sectors: 8, Bands: []SpeedBand{{Name: "a"}, {Name: "b", Min: 4}, {Name: "c", Min: 4}}}, "must start above"},
		{"dup", Config{Sectors: 8, Bands: []SpeedBand{{Name: "a"}, {Name: "a", Min: 4}}}, "defined twice"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
	assert.NoError(t, DefaultConfig().Validate())
}

func TestParseBands(t *testing.T) {
	got, err := ParseBands("calm:0, light:2,moderate:6,strong:12")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig().Bands, got)

	_, err = ParseBands("calm")
	assert.Error(t, err)
	_, err = ParseBands("calm:x")
	assert.Error(t, err)
}
