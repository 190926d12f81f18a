package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
	"unicode"
)

// timestampLayouts lists the formats the collector has emitted over time.
// pandas writes "2006-01-02 15:04:05" when the frame is serialized without a zone.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// RawRecord is the flat JSON row produced by the collector for one district.
// Fields are nullable because each provider can fail independently.
type RawRecord struct {
	Timestamp          string   `json:"timestamp"`
	District           string   `json:"district"`
	PM25               *float64 `json:"pm2_5"`
	PM10               *float64 `json:"pm10"`
	WindSpeed          *float64 `json:"wind_speed"`
	WindDir            *float64 `json:"wind_dir"`
	ProvincialFireLoad *float64 `json:"provincial_fire_load"`
	LocalFireCount     *int     `json:"local_fire_count"`
	LocalFireFRP       *float64 `json:"local_fire_frp"`
}

// ParseRawEvent deserializes a RawEvent's value into an hourly DistrictObservation.
// The timestamp is floored to the hour; when the record carries none, the
// message timestamp is used instead.
func ParseRawEvent(raw RawEvent) (DistrictObservation, error) {
	var rec RawRecord
	if err := json.Unmarshal(raw.Value, &rec); err != nil {
		return DistrictObservation{}, fmt.Errorf("parse raw event: %w", err)
	}

	id := Slug(rec.District)
	if id == "" {
		return DistrictObservation{}, errors.New("parse raw event: missing district")
	}

	ts, err := parseTimestamp(rec.Timestamp, raw.Timestamp)
	if err != nil {
		return DistrictObservation{}, fmt.Errorf("parse raw event: %w", err)
	}

	return DistrictObservation{
		DistrictID:         id,
		Date:               ts.Truncate(time.Hour),
		PM25:               nonNegative(rec.PM25),
		PM10:               nonNegative(rec.PM10),
		FireCount:          rec.LocalFireCount,
		FireRadiativePower: nonNegative(rec.LocalFireFRP),
		WindSpeed:          nonNegative(rec.WindSpeed),
		WindDirection:      finite(rec.WindDir),
	}, nil
}

// Slug converts a district name into its registry ID:
// "Dera Ghazi Khan" → "dera-ghazi-khan", "Mandi Bahauddin" → "mandi-bahauddin".
// Already-slugged IDs pass through unchanged.
func Slug(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.TrimSpace(name) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			dash = false
			b.WriteRune(unicode.ToLower(r))
		default:
			dash = true
		}
	}
	return b.String()
}

func parseTimestamp(value string, fallback time.Time) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		if fallback.IsZero() {
			return time.Time{}, errors.New("missing timestamp")
		}
		return fallback.UTC(), nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}

// nonNegative drops negative or non-finite readings, which only come from
// provider glitches.
func nonNegative(v *float64) *float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) || *v < 0 {
		return nil
	}
	return v
}

func finite(v *float64) *float64 {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) {
		return nil
	}
	return v
}
