package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jawad201-cmd/punjab-smog-pipline/internal/domain"
	"github.com/jawad201-cmd/punjab-smog-pipline/internal/geo"
)

// ObservationTransformer implements Transformer by parsing collector records
// and checking the district against the registry.
type ObservationTransformer struct {
	registry *geo.Registry
	logger   *slog.Logger
}

// NewTransformer creates an ObservationTransformer. Pass a nil registry to
// accept any district.
func NewTransformer(registry *geo.Registry, logger *slog.Logger) *ObservationTransformer {
	return &ObservationTransformer{
		registry: registry,
		logger:   logger,
	}
}

func (t *ObservationTransformer) Transform(_ context.Context, raw domain.RawEvent) (domain.DistrictObservation, error) {
	obs, err := domain.ParseRawEvent(raw)
	if err != nil {
		return domain.DistrictObservation{}, err
	}
	if t.registry == nil {
		return obs, nil
	}

	ix, err := t.registry.Index()
	if err != nil {
		return domain.DistrictObservation{}, fmt.Errorf("load district registry: %w", err)
	}
	if !ix.Contains(obs.DistrictID) {
		return domain.DistrictObservation{}, domain.UnknownDistrict(obs.DistrictID)
	}
	t.logger.Debug("observation parsed", "district", obs.DistrictID, "hour", obs.Date)
	return obs, nil
}
