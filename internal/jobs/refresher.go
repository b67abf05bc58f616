package jobs

import (
	"context"

	"go.uber.org/zap"

	"intern-match/internal/storage"
)

// Store is the slice of the document store the refresher needs.
type Store interface {
	ReplaceCityCollections(ctx context.Context, groups []storage.CityJobCollection) error
}

// RefreshStats summarizes one completed refresh.
type RefreshStats struct {
	TotalCities int     `json:"totalCities"`
	TotalJobs   int     `json:"totalJobs"`
	Summary     Summary `json:"summary"`
}

// Refresher runs the end-to-end refresh: harvest the source listings, group
// them by normalized city, and replace the stored collections wholesale.
type Refresher struct {
	harvester *Harvester
	store     Store
	guard     *RefreshGuard
	logger    *zap.Logger
}

func NewRefresher(harvester *Harvester, store Store, guard *RefreshGuard, logger *zap.Logger) *Refresher {
	return &Refresher{harvester: harvester, store: store, guard: guard, logger: logger}
}

// Refresh replaces all stored job collections with a fresh harvest. The
// store is only touched after a non-empty harvest, so a failed refresh
// leaves the previous collections intact.
func (r *Refresher) Refresh(ctx context.Context) (*RefreshStats, error) {
	release, err := r.guard.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	result, err := r.harvester.Harvest(ctx)
	if err != nil {
		return nil, err
	}

	groups := GroupByCity(result.Jobs)
	if err := r.store.ReplaceCityCollections(ctx, groups); err != nil {
		return nil, err
	}

	stats := &RefreshStats{
		TotalCities: len(groups),
		TotalJobs:   len(result.Jobs),
		Summary:     result.Summary,
	}

	r.logger.Info("job collections replaced",
		zap.Int("cities", stats.TotalCities),
		zap.Int("jobs", stats.TotalJobs),
	)

	return stats, nil
}
