package windrose

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// SpeedBand is a named speed class. A band covers [Min, next band's Min).
// The last band is open-ended.
type SpeedBand struct {
	Name string  `json:"name"`
	Min  float64 `json:"min_kmh"`
}

// Config controls sector count and speed classes.
type Config struct {
	Sectors int         // 8 or 16
	Bands   []SpeedBand // ascending by Min; the first band must start at 0
}

// DefaultConfig returns 8 sectors and the calm/light/moderate/strong bands
// [0,2), [2,6), [6,12) and [12,∞) km/h. Every band includes its lower bound,
// so exactly 2 is light and exactly 12 is strong.
func DefaultConfig() Config {
	return Config{
		Sectors: 8,
		Bands: []SpeedBand{
			{Name: "calm", Min: 0},
			{Name: "light", Min: 2},
			{Name: "moderate", Min: 6},
			{Name: "strong", Min: 12},
		},
	}
}

// Validate checks the sector count and band ordering.
func (c Config) Validate() error {
	if c.Sectors != 8 && c.Sectors != 16 {
		return fmt.Errorf("wind sectors must be 8 or 16, got %d", c.Sectors)
	}
	if len(c.Bands) == 0 {
		return errors.New("at least one speed band is required")
	}
	if c.Bands[0].Min != 0 {
		return fmt.Errorf("first speed band must start at 0, got %g", c.Bands[0].Min)
	}
	seen := make(map[string]bool, len(c.Bands))
	for i, b := range c.Bands {
		if b.Name == "" {
			return fmt.Errorf("speed band %d has no name", i)
		}
		if seen[b.Name] {
			return fmt.Errorf("speed band %q defined twice", b.Name)
		}
		seen[b.Name] = true
		if i > 0 && b.Min <= c.Bands[i-1].Min {
			return fmt.Errorf("speed band %q must start above %g", b.Name, c.Bands[i-1].Min)
		}
	}
	return nil
}

// ParseBands parses "calm:0,light:2,moderate:6,strong:12".
func ParseBands(s string) ([]SpeedBand, error) {
	parts := strings.Split(s, ",")
	bands := make([]SpeedBand, 0, len(parts))
	for _, p := range parts {
		name, lower, ok := strings.Cut(strings.TrimSpace(p), ":")
		if !ok {
			return nil, fmt.Errorf("speed band %q: want name:min", p)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(lower), 64)
		if err != nil {
			return nil, fmt.Errorf("speed band %q: %w", p, err)
		}
		bands = append(bands, SpeedBand{Name: strings.TrimSpace(name), Min: v})
	}
	return bands, nil
}
