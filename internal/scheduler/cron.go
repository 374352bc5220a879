package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/amelner/gallerysync/internal/controllers"
	"github.com/amelner/gallerysync/internal/store"
)

// Scheduler runs the polling fallback for generations in flight. Change
// notifications are at-least-once but can be delayed or dropped, so while the
// store holds unresolved records the gallery is re-fetched on a fixed
// interval as a safety net.
type Scheduler struct {
	cron   *cron.Cron
	loader *controllers.Loader
	store  *store.Store
	logger *logrus.Logger

	pollInterval string
}

// NewScheduler creates a new scheduler
func NewScheduler(loader *controllers.Loader, st *store.Store, pollSeconds int, logger *logrus.Logger) *Scheduler {
	return &Scheduler{
		cron:         cron.New(),
		loader:       loader,
		store:        st,
		logger:       logger,
		pollInterval: fmt.Sprintf("@every %ds", pollSeconds),
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() error {
	s.logger.Info("Starting scheduler")

	_, err := s.cron.AddFunc(s.pollInterval, func() {
		s.runPendingPoll()
	})
	if err != nil {
		return fmt.Errorf("failed to add pending poll job: %w", err)
	}

	s.cron.Start()
	s.logger.WithField("interval", s.pollInterval).Info("Scheduler started")
	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	s.cron.Stop()
}

// runPendingPoll re-fetches the gallery while unresolved records exist
func (s *Scheduler) runPendingPoll() {
	pending := s.store.PendingCount()
	if pending == 0 {
		return
	}

	s.logger.WithField("pending", pending).Debug("Polling for unresolved generations")

	ctx := context.Background()
	if err := s.loader.Refresh(ctx); err != nil {
		s.logger.WithError(err).Warn("Pending poll refresh failed")
		return
	}

	// The subscription may have dropped while generations were in flight
	s.loader.EnsureSubscribed()
}
