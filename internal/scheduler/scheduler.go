// Package scheduler wires up the optional cron job that periodically
// refreshes the stored job collections without waiting for a manual
// /api/refresh-jobs call.
package scheduler

import (
	"context"
	"errors"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"intern-match/internal/jobs"
)

// Scheduler wraps robfig/cron around the refresher.
type Scheduler struct {
	cron      *cron.Cron
	refresher *jobs.Refresher
	spec      string // cron spec, e.g. "@every 12h"
	logger    *zap.Logger
}

func New(refresher *jobs.Refresher, spec string, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		refresher: refresher,
		spec:      spec,
		logger:    logger,
	}
}

// Start registers the refresh job and starts the scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(s.spec, func() {
		s.runRefresh(ctx)
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	s.cron.Start()
	s.logger.Info("refresh scheduler started", zap.String("spec", s.spec))
	return nil
}

// Stop gracefully shuts down the scheduler.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.logger.Info("refresh scheduler stopped")
}

func (s *Scheduler) runRefresh(ctx context.Context) {
	s.logger.Info("scheduled refresh started")

	stats, err := s.refresher.Refresh(ctx)
	if err != nil {
		if errors.Is(err, jobs.ErrRefreshInProgress) {
			s.logger.Info("scheduled refresh skipped: another refresh holds the lock")
			return
		}
		s.logger.Error("scheduled refresh failed", zap.Error(err))
		return
	}

	s.logger.Info("scheduled refresh complete",
		zap.Int("cities", stats.TotalCities),
		zap.Int("jobs", stats.TotalJobs),
	)
}
