package domain

import (
	"slices"
	"strings"
	"time"
)

// Period is an inclusive range of UTC days.
type Period struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

// NewPeriod truncates both ends to their UTC day.
func NewPeriod(from, to time.Time) Period {
	return Period{From: Day(from), To: Day(to)}
}

// Contains reports whether t falls on a day within the period.
func (p Period) Contains(t time.Time) bool {
	d := Day(t)
	return !d.Before(p.From) && !d.After(p.To)
}

// Days returns the number of days covered, counting both ends.
func (p Period) Days() int {
	if p.To.Before(p.From) {
		return 0
	}
	return int(p.To.Sub(p.From).Hours()/24) + 1
}

// Day truncates t to midnight UTC.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DayIndex returns the number of whole days between the Unix epoch and t's UTC day.
// Consecutive days differ by exactly one, which makes lag alignment a lookup.
func DayIndex(t time.Time) int64 {
	return Day(t).Unix() / 86400
}

// Normalize groups observations by district, resolves duplicate days with
// last-supplied-wins, and sorts each district's series by date ascending.
// The input slice is not modified.
func Normalize(obs []DistrictObservation) map[string][]DistrictObservation {
	byDay := make(map[string]map[int64]DistrictObservation)
	for _, o := range obs {
		days, ok := byDay[o.DistrictID]
		if !ok {
			days = make(map[int64]DistrictObservation)
			byDay[o.DistrictID] = days
		}
		o.Date = Day(o.Date)
		days[DayIndex(o.Date)] = o
	}

	out := make(map[string][]DistrictObservation, len(byDay))
	for id, days := range byDay {
		series := make([]DistrictObservation, 0, len(days))
		for _, o := range days {
			series = append(series, o)
		}
		sortByDate(series)
		out[id] = series
	}
	return out
}

// NormalizeDistrict is Normalize for a single district's series. Records from
// other districts are kept under their own IDs and ignored here.
func NormalizeDistrict(id string, obs []DistrictObservation) []DistrictObservation {
	return Normalize(obs)[id]
}

// FilterPeriod returns the observations whose date falls inside p, in input order.
func FilterPeriod(obs []DistrictObservation, p Period) []DistrictObservation {
	out := make([]DistrictObservation, 0, len(obs))
	for _, o := range obs {
		if p.Contains(o.Date) {
			out = append(out, o)
		}
	}
	return out
}

// SortedKeys returns the district IDs of a normalized set in lexical order.
func SortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func sortByDate(series []DistrictObservation) {
	slices.SortFunc(series, func(a, b DistrictObservation) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return strings.Compare(a.DistrictID, b.DistrictID)
	})
}
