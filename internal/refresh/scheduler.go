package refresh

import (
	"context"
	"log/slog"
	"time"

	"github.com/Adarsh108-tech/glacier-server/internal/logger"
)

type runner interface {
	Run(ctx context.Context) (Result, error)
}

// Scheduler runs a task at start and then on every interval until its
// context is canceled.
type Scheduler struct {
	task     runner
	interval time.Duration
	timeout  time.Duration
	log      *slog.Logger
}

// NewScheduler builds a scheduler. timeout bounds every run; zero means the
// run only ends with the parent context.
func NewScheduler(task runner, interval, timeout time.Duration, log *slog.Logger) *Scheduler {
	if log == nil {
		log = logger.Discard()
	}
	return &Scheduler{task: task, interval: interval, timeout: timeout, log: log}
}

// Start blocks until ctx is done.
func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info("refresh scheduler running", slog.Duration("interval", s.interval))

	s.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			s.log.Info("refresh scheduler stopped")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce runs a single cycle, isolating panics and errors from the caller.
func (s *Scheduler) RunOnce(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("refresh run panicked", slog.Any("panic", r))
		}
	}()

	runCtx := ctx
	if s.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	if _, err := s.task.Run(runCtx); err != nil {
		s.log.Warn("refresh run failed (will retry on next interval)", slog.Any("err", err))
	}
}
