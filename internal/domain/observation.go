package domain

import (
	"context"
	"time"
)

// ProvinceScope is the scope ID used for province-wide aggregates.
const ProvinceScope = "province"

// DistrictObservation is one district's readings for one day (or one hour
// before rollup). Nil fields are missing readings, not zeros.
type DistrictObservation struct {
	DistrictID         string    `json:"district_id"`
	Date               time.Time `json:"date"`
	PM25               *float64  `json:"pm25,omitempty"`
	PM10               *float64  `json:"pm10,omitempty"`
	FireCount          *int      `json:"fire_count,omitempty"`
	FireRadiativePower *float64  `json:"fire_radiative_power,omitempty"` // MW
	WindSpeed          *float64  `json:"wind_speed,omitempty"`           // km/h
	WindDirection      *float64  `json:"wind_direction_degrees,omitempty"`
}

// HasWind reports whether both wind fields are present.
func (o DistrictObservation) HasWind() bool {
	return o.WindSpeed != nil && o.WindDirection != nil
}

// DistrictLocation is a static registry entry.
type DistrictLocation struct {
	DistrictID string  `json:"district_id" yaml:"id" validate:"required"`
	Name       string  `json:"name" yaml:"name" validate:"required"`
	Latitude   float64 `json:"latitude" yaml:"lat" validate:"latitude"`
	Longitude  float64 `json:"longitude" yaml:"lon" validate:"longitude"`
}

// FireDetection is a single satellite fire pixel from the FIRMS feed.
type FireDetection struct {
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	FRP        float64 `json:"frp"`
	Confidence string  `json:"confidence"` // "l", "n", or "h" for VIIRS
}

// RawEvent represents an unprocessed message from the observations topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// OutputEvent is the serialized form destined for the reports topic.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}

// Ptr returns a pointer to v. Handy for building observations with present fields.
func Ptr[T any](v T) *T {
	return &v
}
