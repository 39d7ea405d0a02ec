// AngelaMos | 2026
// scheduler.go

package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/carterperez-dev/habit-ledger/internal/config"
	"github.com/carterperez-dev/habit-ledger/internal/core"
	"github.com/carterperez-dev/habit-ledger/internal/habit"
)

const sweepJobName = "missed-day-sweep"

type Sweeper interface {
	Sweep(ctx context.Context) (*habit.SweepResult, error)
}

// Locker hands out a lease so that one replica sweeps per interval.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error)
}

// Scheduler runs the periodic background jobs. With the sweep disabled it
// starts and stops without scheduling anything.
type Scheduler struct {
	sched    gocron.Scheduler
	sweeper  Sweeper
	locker   Locker
	clock    clockwork.Clock
	logger   *slog.Logger
	interval time.Duration
	ctx      context.Context
	cancel   context.CancelFunc
	sweep    gocron.Job

	stopOnce sync.Once
	stopErr  error
}

func New(
	cfg config.JobsConfig,
	sweeper Sweeper,
	locker Locker,
	clock clockwork.Clock,
	logger *slog.Logger,
) (*Scheduler, error) {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "jobs")

	sched, err := gocron.NewScheduler(
		gocron.WithClock(clock),
		gocron.WithLogger(logger),
		gocron.WithLocation(time.UTC),
	)
	if err != nil {
		return nil, fmt.Errorf("create scheduler: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		sched:    sched,
		sweeper:  sweeper,
		locker:   locker,
		clock:    clock,
		logger:   logger,
		interval: cfg.SweepInterval,
		ctx:      ctx,
		cancel:   cancel,
	}

	if !cfg.SweepEnabled {
		return s, nil
	}

	s.sweep, err = sched.NewJob(
		gocron.DurationJob(cfg.SweepInterval),
		gocron.NewTask(s.runSweep),
		gocron.WithName(sweepJobName),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithEventListeners(
			gocron.AfterJobRunsWithPanic(func(_ uuid.UUID, name string, recoverData any) {
				logger.Error("job panicked", "job", name, "panic", recoverData)
			}),
		),
	)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("schedule sweep: %w", err)
	}

	return s, nil
}

func (s *Scheduler) Start() {
	s.sched.Start()
	if s.sweep != nil {
		s.logger.Info("scheduler started", "job", sweepJobName, "interval", s.interval)
	}
}

// RunSweepNow triggers the sweep job outside its schedule.
func (s *Scheduler) RunSweepNow() error {
	if s.sweep == nil {
		return fmt.Errorf("%s is not scheduled", sweepJobName)
	}
	return s.sweep.RunNow()
}

// Shutdown cancels a running sweep and waits for it. It is safe to call
// more than once.
func (s *Scheduler) Shutdown() error {
	s.stopOnce.Do(func() {
		s.cancel()
		if err := s.sched.Shutdown(); err != nil {
			s.stopErr = fmt.Errorf("shutdown scheduler: %w", err)
		}
	})
	return s.stopErr
}

func (s *Scheduler) runSweep() {
	ctx, cancel := context.WithTimeout(s.ctx, s.interval)
	defer cancel()

	if s.locker != nil {
		release, err := s.locker.TryLock(ctx, sweepJobName, s.interval)
		if errors.Is(err, core.ErrLockHeld) {
			s.logger.Debug("sweep skipped, another instance holds the lock")
			return
		}
		if err != nil {
			s.logger.Warn("sweep lock unavailable", "error", err)
			return
		}
		defer func() {
			if err := release(context.WithoutCancel(ctx)); err != nil {
				s.logger.Warn("sweep lock release failed", "error", err)
			}
		}()
	}

	start := s.clock.Now()
	result, err := s.sweeper.Sweep(ctx)
	if err != nil {
		s.logger.Warn("sweep failed", "error", err, "duration", s.clock.Since(start))
		return
	}

	level := slog.LevelInfo
	if result.Errors > 0 {
		level = slog.LevelWarn
	}
	s.logger.Log(ctx, level, "sweep finished",
		"users", result.Users,
		"failed_logs", result.FailedLogs,
		"freezes_used", result.FreezesUsed,
		"streaks_reset", result.StreaksReset,
		"errors", result.Errors,
		"duration", s.clock.Since(start),
	)
}
