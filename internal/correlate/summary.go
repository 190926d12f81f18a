package correlate

import (
	"fmt"

	"github.com/jawad201-cmd/punjab-smog-pipline/internal/domain"
)

// Summary renders r as a sentence for reports, e.g.
// "province-wide PM2.5 correlates with fire activity at lag 1 day, r=0.62, n=45".
func (r Result) Summary() string {
	scope := r.Scope + " PM2.5"
	if r.Scope == domain.ProvinceScope {
		scope = "province-wide PM2.5"
	}
	lag := fmt.Sprintf("lag %d days", r.LagDays)
	if r.LagDays == 1 {
		lag = "lag 1 day"
	}

	switch r.Status {
	case StatusOK:
		return fmt.Sprintf("%s correlates with fire activity at %s, r=%.2f, n=%d", scope, lag, *r.Coefficient, r.SampleSize)
	case StatusZeroVariance:
		return fmt.Sprintf("%s vs fire activity at %s: no variation to correlate, n=%d", scope, lag, r.SampleSize)
	default:
		return fmt.Sprintf("%s vs fire activity at %s: insufficient data, n=%d", scope, lag, r.SampleSize)
	}
}
