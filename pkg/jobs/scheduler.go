package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// Task is a unit of scheduled work. It must be idempotent: a failed run is
// re-executed from scratch on retry.
type Task func(ctx context.Context) error

// SchedulerConfig tunes retry behaviour for scheduled tasks.
type SchedulerConfig struct {
	MaxAttempts int
	RetryDelay  time.Duration
	Logger      *zap.Logger
}

// Scheduler runs registered tasks on cron schedules with bounded retries.
// Overlapping runs of the same task are skipped.
type Scheduler struct {
	cron        *cron.Cron
	maxAttempts int
	retryDelay  time.Duration
	logger      *zap.Logger

	mu      sync.Mutex
	ctx     context.Context
	cancel  context.CancelFunc
	started bool
}

// NewScheduler builds a scheduler with sane retry defaults.
func NewScheduler(cfg SchedulerConfig) *Scheduler {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 30 * time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return &Scheduler{
		cron:        cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))),
		maxAttempts: cfg.MaxAttempts,
		retryDelay:  cfg.RetryDelay,
		logger:      cfg.Logger,
	}
}

// Register adds a task under the given cron spec.
func (s *Scheduler) Register(name, spec string, task Task) error {
	if task == nil {
		return fmt.Errorf("task %s is nil", name)
	}
	_, err := s.cron.AddFunc(spec, func() {
		s.mu.Lock()
		ctx := s.ctx
		s.mu.Unlock()
		if ctx == nil {
			ctx = context.Background()
		}
		s.runWithRetry(ctx, name, task)
	})
	if err != nil {
		return fmt.Errorf("register task %s: %w", name, err)
	}
	return nil
}

// Start begins cron dispatch. Safe to call once.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.cron.Start()
	s.started = true
	s.logger.Sugar().Infow("scheduler started")
}

// Stop cancels running tasks and waits for cron entries to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return
	}
	s.cancel()
	s.mu.Unlock()
	<-s.cron.Stop().Done()
	s.logger.Sugar().Infow("scheduler stopped")
}

// RunNow executes the task immediately with the configured retry policy,
// returning the last error when every attempt fails.
func (s *Scheduler) RunNow(ctx context.Context, name string, task Task) error {
	return s.runWithRetry(ctx, name, task)
}

func (s *Scheduler) runWithRetry(ctx context.Context, name string, task Task) error {
	var lastErr error
	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = task(ctx)
		if lastErr == nil {
			if attempt > 1 {
				s.logger.Sugar().Infow("task recovered", "task", name, "attempt", attempt)
			}
			return nil
		}
		s.logger.Sugar().Warnw("task failed", "task", name, "attempt", attempt, "error", lastErr)
		if attempt < s.maxAttempts {
			timer := time.NewTimer(s.retryDelay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
	}
	s.logger.Sugar().Errorw("task exceeded retries", "task", name, "attempts", s.maxAttempts, "error", lastErr)
	return lastErr
}
