package correlate

import (
	"github.com/jawad201-cmd/punjab-smog-pipline/internal/domain"
)

// Metric selects one reading from an observation.
type Metric func(domain.DistrictObservation) *float64

// Readings used by the engine.
var (
	FireRadiativePower Metric = func(o domain.DistrictObservation) *float64 { return o.FireRadiativePower }
	PM25               Metric = func(o domain.DistrictObservation) *float64 { return o.PM25 }
	PM10               Metric = func(o domain.DistrictObservation) *float64 { return o.PM10 }
	WindSpeed          Metric = func(o domain.DistrictObservation) *float64 { return o.WindSpeed }
)

// Aggregation folds one day's district readings into a province value.
type Aggregation int

const (
	Sum Aggregation = iota
	Mean
)

// Extract builds a series of metric m from obs, keeping input order.
func Extract(obs []domain.DistrictObservation, m Metric) Series {
	s := make(Series, len(obs))
	for i, o := range obs {
		s[i] = Sample{Date: o.Date, Value: m(o)}
	}
	return s
}

// ProvinceSeries folds normalized per-district series into one province-wide
// daily series of metric m. Only districts reporting m on a day take part in
// that day's value; a day with no reports is absent. The result is sorted by date.
func ProvinceSeries(byDistrict map[string][]domain.DistrictObservation, m Metric, agg Aggregation) Series {
	type acc struct {
		sum float64
		n   int
	}
	days := make(map[int64]*acc)
	for _, id := range domain.SortedKeys(byDistrict) {
		for _, o := range byDistrict[id] {
			v := m(o)
			if v == nil {
				continue
			}
			d := domain.DayIndex(o.Date)
			a, ok := days[d]
			if !ok {
				a = &acc{}
				days[d] = a
			}
			a.sum += *v
			a.n++
		}
	}

	out := make(Series, 0, len(days))
	for _, d := range sortedDays(days) {
		a := days[d]
		v := a.sum
		if agg == Mean {
			v /= float64(a.n)
		}
		out = append(out, Sample{Date: dayTime(d), Value: domain.Ptr(v)})
	}
	return out
}
