package worker

import (
	"context"

	"github.com/robfig/cron/v3"

	"github.com/costpulse/costpulse/internal/pkg/logger"
	"github.com/costpulse/costpulse/internal/services"
)

// SyncScheduler runs the full-account sync on a cron schedule. Overlapping
// runs are collapsed by the sync service's per-account flight grouping, so
// a slow batch never stacks up behind the next tick.
type SyncScheduler struct {
	service  *services.SyncService
	schedule string
	cron     *cron.Cron
	logger   *logger.Logger
}

// NewSyncScheduler creates a scheduler. An empty schedule disables it.
func NewSyncScheduler(service *services.SyncService, schedule string, log *logger.Logger) *SyncScheduler {
	return &SyncScheduler{
		service:  service,
		schedule: schedule,
		cron:     cron.New(),
		logger:   log,
	}
}

// Start registers the cron entry and begins ticking. It returns immediately;
// the cron runs on its own goroutine until Stop.
func (s *SyncScheduler) Start(ctx context.Context) error {
	if s.schedule == "" {
		s.logger.Info("sync scheduler disabled")
		return nil
	}

	_, err := s.cron.AddFunc(s.schedule, func() {
		s.logger.Info("scheduled sync starting")
		summary, err := s.service.SyncAll(ctx)
		if err != nil {
			s.logger.ErrorWithErr(err, "scheduled sync failed")
			return
		}
		s.logger.WithFields(map[string]interface{}{
			"succeeded": summary.Succeeded,
			"skipped":   summary.Skipped,
			"failed":    summary.Failed,
		}).Info("scheduled sync finished")
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.WithFields(map[string]interface{}{"schedule": s.schedule}).Info("sync scheduler started")
	return nil
}

// Stop halts the cron and waits for a running job to finish.
func (s *SyncScheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("sync scheduler stopped")
}
