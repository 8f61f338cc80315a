package lifecycle

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Scheduler invokes the runner periodically so the service is self-driving.
// External cron invocations through the HTTP entry point remain safe to
// combine with it: sweeps are idempotent.
type Scheduler struct {
	interval time.Duration
	runner   *Runner

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewScheduler creates a Scheduler.
func NewScheduler(interval time.Duration, runner *Runner) *Scheduler {
	return &Scheduler{
		interval: interval,
		runner:   runner,
		stopCh:   make(chan struct{}),
	}
}

// Start launches the scheduler goroutine.
func (s *Scheduler) Start(ctx context.Context) {
	slog.Info("starting lifecycle scheduler", "interval", s.interval)

	s.wg.Add(1)
	go s.run(ctx)
}

// Stop gracefully stops the scheduler.
func (s *Scheduler) Stop() {
	close(s.stopCh)
	s.wg.Wait()
	slog.Info("lifecycle scheduler stopped")
}

func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) {
	res, err := s.runner.Run(ctx)
	if err != nil {
		slog.Error("scheduled lifecycle sweep failed", "error", err)
		return
	}

	if !res.NotificationsConfigured {
		slog.Warn("notification settings not configured, sweep ran without notices")
	}
}
