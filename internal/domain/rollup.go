package domain

import (
	"math"
	"slices"
	"strings"
	"time"
)

// calmResultant is the minimum resultant vector length (relative to sample
// count) below which opposing wind directions are treated as cancelling out.
const calmResultant = 1e-9

type hourKey struct {
	district string
	hour     int64
}

type dayKey struct {
	district string
	day      int64
}

// RollupDaily folds hourly snapshots into one observation per district per day.
//
// Duplicate (district, hour) records are resolved last-wins first. Then, per day:
//   - PM2.5, PM10, and wind speed are the mean of the present hourly values
//   - wind direction is the unit-vector mean of the present hourly directions
//   - fire count and FRP are the maximum hourly value, because each hourly
//     snapshot already carries the trailing 24h FIRMS total
//
// A field with no present hourly value stays nil. Output is sorted by
// district, then date.
func RollupDaily(hourly []DistrictObservation) []DistrictObservation {
	latest := make(map[hourKey]DistrictObservation, len(hourly))
	for _, o := range hourly {
		latest[hourKey{o.DistrictID, o.Date.UTC().Truncate(time.Hour).Unix()}] = o
	}

	groups := make(map[dayKey][]DistrictObservation)
	for _, o := range latest {
		k := dayKey{o.DistrictID, DayIndex(o.Date)}
		groups[k] = append(groups[k], o)
	}

	out := make([]DistrictObservation, 0, len(groups))
	for k, hours := range groups {
		// Map iteration is random; fix the fold order so float sums are reproducible.
		slices.SortFunc(hours, func(a, b DistrictObservation) int { return a.Date.Compare(b.Date) })
		out = append(out, foldDay(k.district, Day(hours[0].Date), hours))
	}

	slices.SortFunc(out, func(a, b DistrictObservation) int {
		if c := strings.Compare(a.DistrictID, b.DistrictID); c != 0 {
			return c
		}
		return a.Date.Compare(b.Date)
	})
	return out
}

func foldDay(district string, day time.Time, hours []DistrictObservation) DistrictObservation {
	var pm25, pm10, speed, frp, dirs []float64
	var fires []int
	for _, h := range hours {
		if h.PM25 != nil {
			pm25 = append(pm25, *h.PM25)
		}
		if h.PM10 != nil {
			pm10 = append(pm10, *h.PM10)
		}
		if h.WindSpeed != nil {
			speed = append(speed, *h.WindSpeed)
		}
		if h.WindDirection != nil {
			dirs = append(dirs, *h.WindDirection)
		}
		if h.FireRadiativePower != nil {
			frp = append(frp, *h.FireRadiativePower)
		}
		if h.FireCount != nil {
			fires = append(fires, *h.FireCount)
		}
	}

	out := DistrictObservation{
		DistrictID:    district,
		Date:          day,
		PM25:          meanOrNil(pm25),
		PM10:          meanOrNil(pm10),
		WindSpeed:     meanOrNil(speed),
		WindDirection: CircularMean(dirs),
	}
	if len(frp) > 0 {
		out.FireRadiativePower = Ptr(slices.Max(frp))
	}
	if len(fires) > 0 {
		out.FireCount = Ptr(slices.Max(fires))
	}
	return out
}

// CircularMean returns the direction of the resultant of unit vectors at the
// given compass bearings, in [0, 360). Returns nil for empty input or when the
// vectors cancel out.
func CircularMean(degrees []float64) *float64 {
	if len(degrees) == 0 {
		return nil
	}
	var sx, sy float64
	for _, d := range degrees {
		r := d * math.Pi / 180
		sx += math.Sin(r)
		sy += math.Cos(r)
	}
	if math.Hypot(sx, sy) < calmResultant*float64(len(degrees)) {
		return nil
	}
	deg := math.Atan2(sx, sy) * 180 / math.Pi
	if deg < 0 {
		deg += 360
	}
	if deg >= 360 {
		deg -= 360
	}
	return &deg
}

func meanOrNil(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return Ptr(sum / float64(len(values)))
}
