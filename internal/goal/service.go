// AngelaMos | 2026
// service.go

package goal

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/habit-ledger/internal/core"
	"github.com/carterperez-dev/habit-ledger/internal/gamification"
)

// XPGranter appends history-backed awards to the gamification ledger
// inside the caller's transaction.
type XPGranter interface {
	Grant(
		ctx context.Context,
		tx core.DBTX,
		userID string,
		award gamification.Award,
	) (*gamification.Profile, error)
}

type Service struct {
	repo   Repository
	tx     core.Transactor
	xp     XPGranter
	clock  clockwork.Clock
	logger *slog.Logger
}

func NewService(
	repo Repository,
	tx core.Transactor,
	xp XPGranter,
	clock clockwork.Clock,
	logger *slog.Logger,
) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, tx: tx, xp: xp, clock: clock, logger: logger}
}

func validTargetDate(date *string) (*string, error) {
	if date == nil || *date == "" {
		return nil, nil
	}
	if _, err := core.ParseDate(*date); err != nil {
		return nil, err
	}
	return date, nil
}

func (s *Service) Create(
	ctx context.Context,
	userID string,
	req CreateGoalRequest,
) (*Goal, error) {
	if userID == "" {
		return nil, fmt.Errorf("create goal: %w", core.ErrUnauthorized)
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, fmt.Errorf("title is required: %w", core.ErrInvalidInput)
	}
	target, err := validTargetDate(req.TargetDate)
	if err != nil {
		return nil, fmt.Errorf("create goal: %w", err)
	}

	g := &Goal{
		ID:          uuid.New().String(),
		UserID:      userID,
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		Category:    strings.TrimSpace(req.Category),
		TargetDate:  target,
		Status:      StatusNotStarted,
	}

	err = s.tx.InTx(ctx, func(tx core.DBTX) error {
		repo := s.repo.WithTx(tx)

		if err := repo.Create(ctx, g); err != nil {
			return err
		}

		for i, t := range req.Milestones {
			m := &Milestone{
				ID:     uuid.New().String(),
				GoalID: g.ID,
				Title:  strings.TrimSpace(t),
				Status: MilestonePending,
				Order:  i,
			}
			if err := repo.CreateMilestone(ctx, m); err != nil {
				return err
			}
			g.Milestones = append(g.Milestones, *m)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create goal: %w", err)
	}

	s.logger.Debug("goal created",
		"user_id", userID,
		"goal_id", g.ID,
		"milestones", len(g.Milestones),
	)

	return g, nil
}

func (s *Service) List(ctx context.Context, userID, status string) ([]Goal, error) {
	if userID == "" {
		return nil, fmt.Errorf("list goals: %w", core.ErrUnauthorized)
	}

	switch status {
	case "", StatusNotStarted, StatusInProgress, StatusCompleted:
	default:
		return nil, fmt.Errorf("unknown goal status %q: %w", status, core.ErrInvalidInput)
	}

	return s.repo.List(ctx, userID, status)
}

func (s *Service) Get(ctx context.Context, userID, goalID string) (*Goal, error) {
	if userID == "" {
		return nil, fmt.Errorf("get goal: %w", core.ErrUnauthorized)
	}

	g, err := s.repo.GetByID(ctx, userID, goalID)
	if err != nil {
		return nil, fmt.Errorf("get goal: %w", err)
	}

	milestones, err := s.repo.ListMilestones(ctx, g.ID)
	if err != nil {
		return nil, fmt.Errorf("get goal: %w", err)
	}
	g.Milestones = milestones

	return g, nil
}

func (s *Service) Update(
	ctx context.Context,
	userID, goalID string,
	req UpdateGoalRequest,
) (*Goal, error) {
	if userID == "" {
		return nil, fmt.Errorf("update goal: %w", core.ErrUnauthorized)
	}

	var goal *Goal
	err := s.tx.InTx(ctx, func(tx core.DBTX) error {
		repo := s.repo.WithTx(tx)

		g, err := repo.GetForUpdate(ctx, userID, goalID)
		if err != nil {
			return err
		}

		if req.Title != nil {
			title := strings.TrimSpace(*req.Title)
			if title == "" {
				return fmt.Errorf("title is required: %w", core.ErrInvalidInput)
			}
			g.Title = title
		}
		if req.Description != nil {
			g.Description = strings.TrimSpace(*req.Description)
		}
		if req.Category != nil {
			g.Category = strings.TrimSpace(*req.Category)
		}
		if req.TargetDate != nil {
			target, err := validTargetDate(req.TargetDate)
			if err != nil {
				return err
			}
			g.TargetDate = target
		}

		if err := repo.Update(ctx, g); err != nil {
			return err
		}

		milestones, err := repo.ListMilestones(ctx, g.ID)
		if err != nil {
			return err
		}
		g.Milestones = milestones

		goal = g
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("update goal: %w", err)
	}

	return goal, nil
}

// Delete removes the goal and its milestones. XP already granted stays.
func (s *Service) Delete(ctx context.Context, userID, goalID string) error {
	if userID == "" {
		return fmt.Errorf("delete goal: %w", core.ErrUnauthorized)
	}

	err := s.tx.InTx(ctx, func(tx core.DBTX) error {
		repo := s.repo.WithTx(tx)

		g, err := repo.GetForUpdate(ctx, userID, goalID)
		if err != nil {
			return err
		}
		if err := repo.DeleteMilestones(ctx, g.ID); err != nil {
			return err
		}
		return repo.Delete(ctx, userID, g.ID)
	})
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}

	return nil
}

// mutateMilestones locks the goal, runs fn and recomputes progress from
// the resulting milestones in the same transaction.
func (s *Service) mutateMilestones(
	ctx context.Context,
	userID, goalID string,
	fn func(tx core.DBTX, repo Repository, g *Goal) error,
) (*Goal, error) {
	if userID == "" {
		return nil, core.ErrUnauthorized
	}

	var goal *Goal
	err := s.tx.InTx(ctx, func(tx core.DBTX) error {
		repo := s.repo.WithTx(tx)

		g, err := repo.GetForUpdate(ctx, userID, goalID)
		if err != nil {
			return err
		}

		if err := fn(tx, repo, g); err != nil {
			return err
		}

		milestones, err := repo.ListMilestones(ctx, g.ID)
		if err != nil {
			return err
		}
		g.Recompute(milestones)

		if err := repo.SaveProgress(ctx, g); err != nil {
			return err
		}

		goal = g
		return nil
	})
	if err != nil {
		return nil, err
	}

	return goal, nil
}

func (s *Service) AddMilestone(
	ctx context.Context,
	userID, goalID, title string,
) (*Goal, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("title is required: %w", core.ErrInvalidInput)
	}

	g, err := s.mutateMilestones(ctx, userID, goalID,
		func(_ core.DBTX, repo Repository, g *Goal) error {
			existing, err := repo.ListMilestones(ctx, g.ID)
			if err != nil {
				return err
			}

			order := 0
			for _, m := range existing {
				if m.Order >= order {
					order = m.Order + 1
				}
			}

			return repo.CreateMilestone(ctx, &Milestone{
				ID:     uuid.New().String(),
				GoalID: g.ID,
				Title:  title,
				Status: MilestonePending,
				Order:  order,
			})
		})
	if err != nil {
		return nil, fmt.Errorf("add milestone: %w", err)
	}

	return g, nil
}

// CompleteMilestone marks a milestone done. The milestone XP is granted
// the first time only, and completing a completed milestone changes
// nothing.
func (s *Service) CompleteMilestone(
	ctx context.Context,
	userID, goalID, milestoneID string,
) (*Goal, int, error) {
	ctx, span := core.StartSpan(ctx, "goal.milestone.complete",
		attribute.String("goal.id", goalID),
		attribute.String("milestone.id", milestoneID),
	)

	earned := 0
	g, err := s.mutateMilestones(ctx, userID, goalID,
		func(tx core.DBTX, repo Repository, g *Goal) error {
			m, err := repo.GetMilestone(ctx, g.ID, milestoneID)
			if err != nil {
				return err
			}
			if m.Status == MilestoneCompleted {
				return nil
			}

			now := s.clock.Now().UTC()
			m.Status = MilestoneCompleted
			m.CompletedAt = &now

			award := !m.XPAwarded
			m.XPAwarded = true

			if err := repo.UpdateMilestone(ctx, m); err != nil {
				return err
			}

			if !award {
				return nil
			}

			_, err = s.xp.Grant(ctx, tx, userID, gamification.Award{
				Amount:      gamification.XPMilestoneComplete,
				Source:      gamification.SourceMilestoneComplete,
				Description: "Milestone completed: " + m.Title,
			})
			if err != nil {
				return err
			}
			earned = gamification.XPMilestoneComplete
			return nil
		})
	core.EndSpan(span, err)
	if err != nil {
		return nil, 0, fmt.Errorf("complete milestone: %w", err)
	}

	s.logger.Debug("milestone completed",
		"user_id", userID,
		"goal_id", goalID,
		"milestone_id", milestoneID,
		"progress", g.Progress,
		"xp_earned", earned,
	)

	return g, earned, nil
}

// ReopenMilestone moves a milestone back to pending. XP is never taken
// back.
func (s *Service) ReopenMilestone(
	ctx context.Context,
	userID, goalID, milestoneID string,
) (*Goal, error) {
	g, err := s.mutateMilestones(ctx, userID, goalID,
		func(_ core.DBTX, repo Repository, g *Goal) error {
			m, err := repo.GetMilestone(ctx, g.ID, milestoneID)
			if err != nil {
				return err
			}
			if m.Status == MilestonePending {
				return nil
			}

			m.Status = MilestonePending
			m.CompletedAt = nil
			return repo.UpdateMilestone(ctx, m)
		})
	if err != nil {
		return nil, fmt.Errorf("reopen milestone: %w", err)
	}

	return g, nil
}

func (s *Service) DeleteMilestone(
	ctx context.Context,
	userID, goalID, milestoneID string,
) (*Goal, error) {
	g, err := s.mutateMilestones(ctx, userID, goalID,
		func(_ core.DBTX, repo Repository, g *Goal) error {
			return repo.DeleteMilestone(ctx, g.ID, milestoneID)
		})
	if err != nil {
		return nil, fmt.Errorf("delete milestone: %w", err)
	}

	return g, nil
}
