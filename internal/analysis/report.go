package analysis

import (
	"time"

	"github.com/jawad201-cmd/punjab-smog-pipline/internal/attribution"
	"github.com/jawad201-cmd/punjab-smog-pipline/internal/correlate"
	"github.com/jawad201-cmd/punjab-smog-pipline/internal/domain"
	"github.com/jawad201-cmd/punjab-smog-pipline/internal/ratio"
	"github.com/jawad201-cmd/punjab-smog-pipline/internal/windrose"
)

// Report is the immutable result of one analysis run. Per-district sections
// are ordered by district ID.
type Report struct {
	ID          string        `json:"id"`
	GeneratedAt time.Time     `json:"generated_at"`
	Period      domain.Period `json:"period"`
	Districts   []string      `json:"districts"`

	Correlations []correlate.Result     `json:"correlations"`
	Summaries    []string               `json:"summaries"`
	Dispersion   []correlate.Dispersion `json:"dispersion"`

	WindRoses    []windrose.Rose       `json:"wind_roses"`
	Attributions []DistrictAttribution `json:"attributions"`
	Ratios       []DistrictRatio       `json:"ratios"`

	Latest []domain.DistrictObservation `json:"latest"`
}

// DistrictAttribution is the ranked upwind sources of one target.
type DistrictAttribution struct {
	DistrictID string              `json:"district_id"`
	Scores     []attribution.Score `json:"scores"`
}

// DistrictRatio is the PM2.5/PM10 trend of one district.
type DistrictRatio struct {
	DistrictID string        `json:"district_id"`
	Trend      []ratio.Point `json:"trend"`
	Summary    ratio.Summary `json:"summary"`
}

// Attribution returns the ranking for id, or nil.
func (r *Report) Attribution(id string) []attribution.Score {
	for _, a := range r.Attributions {
		if a.DistrictID == id {
			return a.Scores
		}
	}
	return nil
}

// Correlation returns the result for scope at lag.
func (r *Report) Correlation(scope string, lag int) (correlate.Result, bool) {
	for _, c := range r.Correlations {
		if c.Scope == scope && c.LagDays == lag {
			return c, true
		}
	}
	return correlate.Result{}, false
}
