// AngelaMos | 2026
// sweep.go

package habit

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/carterperez-dev/habit-ledger/internal/core"
)

// SweepResult tallies one missed-day sweep.
type SweepResult struct {
	Users        int `json:"users"`
	FailedLogs   int `json:"failed_logs"`
	FreezesUsed  int `json:"freezes_used"`
	StreaksReset int `json:"streaks_reset"`
	Errors       int `json:"errors"`
}

func (r *SweepResult) add(o *SweepResult) {
	r.Users += o.Users
	r.FailedLogs += o.FailedLogs
	r.FreezesUsed += o.FreezesUsed
	r.StreaksReset += o.StreaksReset
	r.Errors += o.Errors
}

// Sweep marks yesterday's unlogged due habits as failed for every user
// with an active habit. A failing user is logged and counted, and does
// not stop the others.
func (s *Service) Sweep(ctx context.Context) (*SweepResult, error) {
	ctx, span := core.StartSpan(ctx, "habit.sweep")

	owners, err := s.repo.ListOwnersWithActiveHabits(ctx)
	if err != nil {
		core.EndSpan(span, err)
		return nil, fmt.Errorf("sweep: %w", err)
	}

	var (
		mu     sync.Mutex
		result SweepResult
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.sweepConcurrency)

	for _, userID := range owners {
		g.Go(func() error {
			r, err := s.SweepUser(gctx, userID)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				result.Errors++
				s.logger.Warn("sweep user failed", "user_id", userID, "error", err)
				return nil
			}
			result.add(r)
			return nil
		})
	}
	_ = g.Wait() //nolint:errcheck // per-user errors are counted, never returned

	err = ctx.Err()
	span.SetAttributes(
		attribute.Int("sweep.users", result.Users),
		attribute.Int("sweep.failed_logs", result.FailedLogs),
		attribute.Int("sweep.errors", result.Errors),
	)
	core.EndSpan(span, err)
	if err != nil {
		return &result, fmt.Errorf("sweep: %w", err)
	}

	s.logger.Info("missed-day sweep finished",
		"users", result.Users,
		"failed_logs", result.FailedLogs,
		"freezes_used", result.FreezesUsed,
		"streaks_reset", result.StreaksReset,
		"errors", result.Errors,
	)

	return &result, nil
}

// SweepUser handles one user in a single transaction. Yesterday is taken
// in the user's timezone.
func (s *Service) SweepUser(ctx context.Context, userID string) (*SweepResult, error) {
	result := &SweepResult{Users: 1}

	err := s.inTx(ctx, func(_ core.DBTX, repo Repository) error {
		owner, err := repo.GetOwner(ctx, userID, true)
		if err != nil {
			return err
		}
		loc := owner.Location()

		yesterday, err := core.AddDays(core.DayIn(s.clock.Now(), loc), -1)
		if err != nil {
			return err
		}
		day, err := core.ParseDate(yesterday)
		if err != nil {
			return err
		}

		habits, err := repo.ListActiveForUpdate(ctx, userID)
		if err != nil {
			return err
		}

		freezes := owner.StreakFreezes
		for i := range habits {
			h := &habits[i]
			if !h.IsDueOn(day) || !h.ExistedOn(yesterday, loc) {
				continue
			}

			inserted, err := repo.InsertFailedLog(ctx, &Log{
				ID:      uuid.New().String(),
				HabitID: h.ID,
				UserID:  userID,
				Date:    yesterday,
				Status:  StatusFailed,
			})
			if err != nil {
				return err
			}
			if !inserted {
				continue
			}
			result.FailedLogs++

			if h.StreakCurrent == 0 {
				continue
			}

			if freezes > 0 {
				if err := repo.ConsumeStreakFreeze(ctx, userID); err != nil {
					return err
				}
				freezes--
				result.FreezesUsed++
				continue
			}

			h.BreakStreak()
			if err := repo.UpdateStreak(ctx, h); err != nil {
				return err
			}
			result.StreaksReset++
		}

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("sweep user: %w", err)
	}

	if result.FailedLogs > 0 {
		s.logger.Debug("user swept",
			"user_id", userID,
			"failed_logs", result.FailedLogs,
			"freezes_used", result.FreezesUsed,
			"streaks_reset", result.StreaksReset,
		)
	}

	return result, nil
}
