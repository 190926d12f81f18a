// Package correlate measures how strongly fire activity on one day tracks
// particulate concentration a fixed number of days later.
package correlate

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/jawad201-cmd/punjab-smog-pipline/internal/domain"
)

// Status says whether a correlation coefficient is defined.
type Status string

const (
	StatusOK               Status = "ok"
	StatusInsufficientData Status = "insufficient_data"
	StatusZeroVariance     Status = "zero_variance"
)

// ErrInvalidLag is returned for lags outside [0, MaxLagDays].
var ErrInvalidLag = errors.New("lag out of range")

// Sample is one day of a series. A nil Value is a missing reading.
type Sample struct {
	Date  time.Time
	Value *float64
}

// Series is a daily series. Order does not matter; the last sample for a day wins.
type Series []Sample

// Result is the correlation of one scope at one lag. Coefficient is nil
// unless Status is StatusOK.
type Result struct {
	Scope       string   `json:"scope"`
	LagDays     int      `json:"lag_days"`
	Coefficient *float64 `json:"correlation_coefficient"`
	SampleSize  int      `json:"sample_size"`
	Status      Status   `json:"status"`
}

// Defined reports whether the result carries a coefficient.
func (r Result) Defined() bool {
	return r.Status == StatusOK && r.Coefficient != nil
}

// Config holds correlation thresholds.
type Config struct {
	MinSampleSize int
	MaxLagDays    int
}

// DefaultConfig returns min_sample_size 3 and lags 0 through 2.
func DefaultConfig() Config {
	return Config{MinSampleSize: 3, MaxLagDays: 2}
}

// Validate checks the thresholds are usable.
func (c Config) Validate() error {
	if c.MinSampleSize < 2 {
		return fmt.Errorf("min sample size must be at least 2, got %d", c.MinSampleSize)
	}
	if c.MaxLagDays < 0 {
		return fmt.Errorf("max lag days must not be negative, got %d", c.MaxLagDays)
	}
	return nil
}

// Lags returns every lag the correlator evaluates, ascending.
func (c Config) Lags() []int {
	lags := make([]int, 0, c.MaxLagDays+1)
	for l := 0; l <= c.MaxLagDays; l++ {
		lags = append(lags, l)
	}
	return lags
}

// Correlator computes lag correlations.
type Correlator struct {
	cfg Config
}

// New returns a Correlator for cfg.
func New(cfg Config) (*Correlator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Correlator{cfg: cfg}, nil
}

// Config returns the correlator's configuration.
func (c *Correlator) Config() Config { return c.cfg }

// Correlate pairs fire on day t with pollution on day t+lag, drops pairs with
// either side missing, and returns the Pearson coefficient of what remains.
// Fewer than MinSampleSize pairs yields StatusInsufficientData; a constant
// side yields StatusZeroVariance. Neither carries a coefficient.
func (c *Correlator) Correlate(scope string, fire, pollution Series, lag int) (Result, error) {
	if lag < 0 || lag > c.cfg.MaxLagDays {
		return Result{}, fmt.Errorf("%w: %d not in [0, %d]", ErrInvalidLag, lag, c.cfg.MaxLagDays)
	}

	xs, ys := align(fire, pollution, lag)
	res := Result{Scope: scope, LagDays: lag, SampleSize: len(xs)}
	if len(xs) < c.cfg.MinSampleSize {
		res.Status = StatusInsufficientData
		return res, nil
	}
	r, ok := Pearson(xs, ys)
	if !ok {
		res.Status = StatusZeroVariance
		return res, nil
	}
	res.Coefficient = domain.Ptr(r)
	res.Status = StatusOK
	return res, nil
}

// align returns the paired values in fire-day order.
func align(fire, pollution Series, lag int) (xs, ys []float64) {
	fx := byDay(fire)
	py := byDay(pollution)

	days := make([]int64, 0, len(fx))
	for d := range fx {
		if _, ok := py[d+int64(lag)]; ok {
			days = append(days, d)
		}
	}
	slices.Sort(days)

	xs = make([]float64, len(days))
	ys = make([]float64, len(days))
	for i, d := range days {
		xs[i] = fx[d]
		ys[i] = py[d+int64(lag)]
	}
	return xs, ys
}

// byDay indexes the present values of s by day. A later sample for the same
// day replaces an earlier one, and a later missing sample clears it.
func byDay(s Series) map[int64]float64 {
	out := make(map[int64]float64, len(s))
	for _, smp := range s {
		d := domain.DayIndex(smp.Date)
		if smp.Value == nil || math.IsNaN(*smp.Value) || math.IsInf(*smp.Value, 0) {
			delete(out, d)
			continue
		}
		out[d] = *smp.Value
	}
	return out
}

// Pearson returns the correlation coefficient of xs and ys using the two-pass
// formulation: means first, then centred cross products. ok is false when
// either side has zero variance or the lengths differ or are below 2.
func Pearson(xs, ys []float64) (r float64, ok bool) {
	if len(xs) != len(ys) || len(xs) < 2 {
		return 0, false
	}
	mx, err := stats.Mean(xs)
	if err != nil {
		return 0, false
	}
	my, err := stats.Mean(ys)
	if err != nil {
		return 0, false
	}

	var sxy, sxx, syy float64
	for i := range xs {
		dx := xs[i] - mx
		dy := ys[i] - my
		sxy += dx * dy
		sxx += dx * dx
		syy += dy * dy
	}
	if sxx == 0 || syy == 0 {
		return 0, false
	}
	r = sxy / math.Sqrt(sxx*syy)
	return math.Max(-1, math.Min(1, r)), true
}
