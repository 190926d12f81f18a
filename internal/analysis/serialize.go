package analysis

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jawad201-cmd/punjab-smog-pipline/internal/domain"
)

// SerializeReport encodes a report for the reports topic, keyed by report ID.
func SerializeReport(r *Report) (domain.OutputEvent, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return domain.OutputEvent{}, fmt.Errorf("serialize report: %w", err)
	}
	return domain.OutputEvent{
		Key:   []byte(r.ID),
		Value: data,
		Headers: map[string]string{
			"report_id":    r.ID,
			"generated_at": r.GeneratedAt.Format(time.RFC3339),
			"period_from":  r.Period.From.Format(time.DateOnly),
			"period_to":    r.Period.To.Format(time.DateOnly),
		},
	}, nil
}
