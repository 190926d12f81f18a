// Package analysis runs every analytical component over one snapshot of
// observations and assembles the results into a Report.
package analysis

import (
	"context"
	"fmt"
	"runtime"
	"slices"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jawad201-cmd/punjab-smog-pipline/internal/attribution"
	"github.com/jawad201-cmd/punjab-smog-pipline/internal/correlate"
	"github.com/jawad201-cmd/punjab-smog-pipline/internal/domain"
	"github.com/jawad201-cmd/punjab-smog-pipline/internal/geo"
	"github.com/jawad201-cmd/punjab-smog-pipline/internal/ratio"
	"github.com/jawad201-cmd/punjab-smog-pipline/internal/windrose"
)

// Config gathers the configuration of every component.
type Config struct {
	WindRose    windrose.Config
	Correlation correlate.Config
	Ratio       ratio.Config
	Attribution attribution.Config
	Workers     int // <= 0 means GOMAXPROCS
}

// DefaultConfig returns each component's defaults.
func DefaultConfig() Config {
	return Config{
		WindRose:    windrose.DefaultConfig(),
		Correlation: correlate.DefaultConfig(),
		Ratio:       ratio.DefaultConfig(),
		Attribution: attribution.DefaultConfig(),
	}
}

// Request is one analysis over an already materialized snapshot.
type Request struct {
	Observations []domain.DistrictObservation
	// Period bounds the analysis. The zero Period spans the observations.
	Period domain.Period
	// Districts limits the per-district sections. Nil means every
	// registered district.
	Districts []string
}

// Engine runs analyses against a district registry.
type Engine struct {
	registry *geo.Registry
	cfg      Config
	roses    *windrose.Aggregator
	corr     *correlate.Correlator
	ratios   *ratio.Analyzer
}

// NewEngine validates cfg and builds the components.
func NewEngine(registry *geo.Registry, cfg Config) (*Engine, error) {
	roses, err := windrose.New(cfg.WindRose)
	if err != nil {
		return nil, fmt.Errorf("wind rose config: %w", err)
	}
	corr, err := correlate.New(cfg.Correlation)
	if err != nil {
		return nil, fmt.Errorf("correlation config: %w", err)
	}
	ratios, err := ratio.New(cfg.Ratio)
	if err != nil {
		return nil, fmt.Errorf("ratio config: %w", err)
	}
	if cfg.Attribution.LagDays < 0 || cfg.Attribution.LagDays > cfg.Correlation.MaxLagDays {
		return nil, fmt.Errorf("attribution config: lag %d not in [0, %d]", cfg.Attribution.LagDays, cfg.Correlation.MaxLagDays)
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.GOMAXPROCS(0)
	}
	return &Engine{registry: registry, cfg: cfg, roses: roses, corr: corr, ratios: ratios}, nil
}

// Analyze computes correlations, wind roses, attributions, ratio trends,
// dispersion fits and latest conditions for req. Observations for districts
// missing from the registry are ignored; a requested district missing from
// the registry is an error.
func (e *Engine) Analyze(ctx context.Context, req Request) (*Report, error) {
	ix, err := e.registry.Index()
	if err != nil {
		return nil, fmt.Errorf("load district registry: %w", err)
	}

	districts := req.Districts
	if districts == nil {
		districts = ix.IDs()
	} else {
		districts = slices.Clone(districts)
		slices.Sort(districts)
		districts = slices.Compact(districts)
	}
	for _, id := range districts {
		if !ix.Contains(id) {
			return nil, domain.UnknownDistrict(id)
		}
	}

	period := req.Period
	if period.From.IsZero() && period.To.IsZero() {
		period = span(req.Observations)
	}
	obs := make([]domain.DistrictObservation, 0, len(req.Observations))
	for _, o := range domain.FilterPeriod(req.Observations, period) {
		if ix.Contains(o.DistrictID) {
			obs = append(obs, o)
		}
	}
	byDistrict := domain.Normalize(obs)

	attr, err := attribution.New(ix, e.roses, e.corr, e.cfg.Attribution)
	if err != nil {
		return nil, err
	}

	report := &Report{
		ID:           uuid.NewString(),
		GeneratedAt:  domain.Clock().Now().UTC(),
		Period:       period,
		Districts:    districts,
		WindRoses:    make([]windrose.Rose, len(districts)),
		Attributions: make([]DistrictAttribution, len(districts)),
		Ratios:       make([]DistrictRatio, len(districts)),
	}

	report.Correlations, err = e.corr.All(ctx, obs, districts, e.cfg.Workers)
	if err != nil {
		return nil, err
	}
	report.Summaries = make([]string, len(report.Correlations))
	for i, c := range report.Correlations {
		report.Summaries[i] = c.Summary()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.Workers)
	for i, id := range districts {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			series := byDistrict[id]
			report.WindRoses[i] = e.roses.Aggregate(id, series)

			scores, err := attr.Attribute(id, period, obs)
			if err != nil {
				return fmt.Errorf("attribute %s: %w", id, err)
			}
			report.Attributions[i] = DistrictAttribution{DistrictID: id, Scores: scores}

			trend := e.ratios.Trend(id, series)
			report.Ratios[i] = DistrictRatio{DistrictID: id, Trend: trend, Summary: ratio.Summarize(id, trend)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for _, id := range districts {
		if s, ok := byDistrict[id]; ok {
			report.Latest = append(report.Latest, s[len(s)-1])
		}
	}
	// Province rows cover every registered district, matching the
	// province-wide correlations.
	report.Dispersion = e.corr.DispersionAll(byDistrict, districts)
	return report, nil
}

// span returns the period from the earliest to the latest observation.
func span(obs []domain.DistrictObservation) domain.Period {
	if len(obs) == 0 {
		return domain.Period{}
	}
	var lo, hi time.Time
	for i, o := range obs {
		if i == 0 || o.Date.Before(lo) {
			lo = o.Date
		}
		if i == 0 || o.Date.After(hi) {
			hi = o.Date
		}
	}
	return domain.NewPeriod(lo, hi)
}
