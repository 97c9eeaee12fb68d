package history

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler prunes a backend on a cron schedule, deleting events older
// than the retention period.
type Scheduler struct {
	backend   Backend
	schedule  string
	retention time.Duration
	now       func() time.Time

	cron    *cron.Cron
	mu      sync.Mutex
	logger  *slog.Logger
	running bool
}

// NewScheduler creates a scheduler. A zero retention or an empty schedule
// makes Start a no-op.
func NewScheduler(backend Backend, schedule string, retention time.Duration) *Scheduler {
	return &Scheduler{
		backend:   backend,
		schedule:  schedule,
		retention: retention,
		now:       time.Now,
		cron:      cron.New(),
		logger:    slog.Default().With("component", "history.scheduler"),
	}
}

// Start begins scheduled pruning. The scheduler stops when ctx is done.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.schedule == "" || s.retention <= 0 {
		s.logger.Info("history retention not configured, skipping scheduler")
		return nil
	}
	if s.running {
		return nil
	}

	if _, err := cron.ParseStandard(s.schedule); err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", s.schedule, err)
	}

	_, err := s.cron.AddFunc(s.schedule, func() {
		s.PruneNow(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule pruning: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info("history scheduler started",
		"schedule", s.schedule,
		"retention", s.retention,
	)

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	return nil
}

// PruneNow runs one pruning cycle and returns the number of deleted events.
func (s *Scheduler) PruneNow(ctx context.Context) int64 {
	cutoff := s.now().Add(-s.retention)

	deleted, err := s.backend.Prune(ctx, cutoff)
	if err != nil {
		s.logger.Error("scheduled pruning failed", "error", err)
		return 0
	}

	if deleted > 0 {
		s.logger.Info("scheduled pruning completed", "deleted_count", deleted)
	} else {
		s.logger.Debug("scheduled pruning completed, no events deleted")
	}
	return deleted
}

// Stop stops the scheduler and waits for a running prune to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		<-s.cron.Stop().Done()
		s.running = false
		s.logger.Info("history scheduler stopped")
	}
}

// IsRunning returns true if the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns the next scheduled pruning time, or nil when nothing is
// scheduled.
func (s *Scheduler) NextRun() *time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.cron.Entries()
	if len(entries) == 0 {
		return nil
	}
	next := entries[0].Next
	return &next
}
