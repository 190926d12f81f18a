package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2024, time.November, d, 0, 0, 0, 0, time.UTC)
}

func TestNormalize_LastSuppliedWins(t *testing.T) {
	obs := []DistrictObservation{
		{DistrictID: "lahore", Date: day(2), PM25: Ptr(100.0)},
		{DistrictID: "lahore", Date: day(1), PM25: Ptr(80.0)},
		{DistrictID: "lahore", Date: day(2).Add(5 * time.Hour), PM25: Ptr(140.0)},
		{DistrictID: "kasur", Date: day(1), PM25: Ptr(60.0)},
	}

	got := Normalize(obs)

	require.Len(t, got["lahore"], 2)
	assert.Equal(t, day(1), got["lahore"][0].Date)
	assert.Equal(t, day(2), got["lahore"][1].Date)
	assert.Equal(t, 140.0, *got["lahore"][1].PM25)
	require.Len(t, got["kasur"], 1)
	assert.Equal(t, []string{"kasur", "lahore"}, SortedKeys(got))
}

func TestNormalize_DoesNotMutateInput(t *testing.T) {
	obs := []DistrictObservation{{DistrictID: "lahore", Date: day(3).Add(7 * time.Hour)}}
	Normalize(obs)
	assert.Equal(t, day(3).Add(7*time.Hour), obs[0].Date)
}

func TestPeriod(t *testing.T) {
	p := NewPeriod(day(1).Add(13*time.Hour), day(3).Add(2*time.Hour))

	assert.Equal(t, day(1), p.From)
	assert.Equal(t, day(3), p.To)
	assert.Equal(t, 3, p.Days())
	assert.True(t, p.Contains(day(3).Add(23*time.Hour)))
	assert.False(t, p.Contains(day(4)))
	assert.False(t, p.Contains(day(1).Add(-time.Second)))
	assert.Equal(t, 0, Period{From: day(3), To: day(1)}.Days())
}

func TestDayIndex_Consecutive(t *testing.T) {
	assert.Equal(t, DayIndex(day(1))+1, DayIndex(day(2)))
	assert.Equal(t, DayIndex(day(1)), DayIndex(day(1).Add(23*time.Hour)))
}

func TestFilterPeriod(t *testing.T) {
	obs := []DistrictObservation{
		{DistrictID: "a", Date: day(1)},
		{DistrictID: "a", Date: day(5)},
		{DistrictID: "b", Date: day(2)},
	}
	got := FilterPeriod(obs, NewPeriod(day(1), day(2)))
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].DistrictID)
	assert.Equal(t, "b", got[1].DistrictID)
}
