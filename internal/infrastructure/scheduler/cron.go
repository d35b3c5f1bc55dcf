package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"NewsCourier/internal/ports"
)

// CronScheduler runs named jobs on cron expressions. Overlapping triggers for
// the same job are skipped, never run concurrently.
type CronScheduler struct {
	cron   *cron.Cron
	logger *slog.Logger
}

var _ ports.Scheduler = (*CronScheduler)(nil)

// NewCronScheduler builds a scheduler evaluating expressions in the given
// location.
func NewCronScheduler(loc *time.Location, logger *slog.Logger) *CronScheduler {
	return &CronScheduler{
		cron:   cron.New(cron.WithLocation(loc)),
		logger: logger,
	}
}

// AddJob registers a named job under a cron spec.
func (s *CronScheduler) AddJob(name, spec string, job func(context.Context)) error {
	var running sync.Mutex

	_, err := s.cron.AddFunc(spec, func() {
		if !running.TryLock() {
			s.logger.Warn("previous run still active, skipping trigger", "job", name)
			return
		}
		defer running.Unlock()

		start := time.Now()
		s.logger.Info("job started", "job", name)
		job(context.Background())
		s.logger.Info("job finished", "job", name, "elapsed", time.Since(start))
	})
	if err != nil {
		return fmt.Errorf("schedule job %s (%q): %w", name, spec, err)
	}
	return nil
}

// Start launches the cron loop in its own goroutine.
func (s *CronScheduler) Start() {
	s.cron.Start()
}

// Stop halts triggering and waits for running jobs, bounded by ctx.
func (s *CronScheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler stop: %w", ctx.Err())
	}
}
