// AngelaMos | 2026
// service.go

package gamification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/habit-ledger/internal/core"
)

type Service struct {
	repo   Repository
	tx     core.Transactor
	clock  clockwork.Clock
	logger *slog.Logger
}

func NewService(
	repo Repository,
	tx core.Transactor,
	clock clockwork.Clock,
	logger *slog.Logger,
) *Service {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, tx: tx, clock: clock, logger: logger}
}

// within runs fn against a repository bound to tx, opening a transaction
// of its own when the caller did not pass one.
func (s *Service) within(
	ctx context.Context,
	tx core.DBTX,
	fn func(repo Repository) error,
) error {
	if tx != nil {
		return fn(s.repo.WithTx(tx))
	}
	return s.tx.InTx(ctx, func(tx core.DBTX) error {
		return fn(s.repo.WithTx(tx))
	})
}

func (s *Service) EnsureProfile(
	ctx context.Context,
	tx core.DBTX,
	userID string,
) error {
	if userID == "" {
		return fmt.Errorf("ensure profile: %w", core.ErrUnauthorized)
	}
	return s.repo.WithTx(tx).EnsureProfile(ctx, userID)
}

// lockProfile returns the caller's profile row locked for update,
// creating it first if registration never did.
func lockProfile(
	ctx context.Context,
	repo Repository,
	userID string,
) (*Profile, error) {
	p, err := repo.GetProfileForUpdate(ctx, userID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return nil, err
	}

	if err := repo.EnsureProfile(ctx, userID); err != nil {
		return nil, err
	}
	return repo.GetProfileForUpdate(ctx, userID)
}

// ApplyHabitXP adjusts the total by delta without writing history. This
// is the habit toggle path.
func (s *Service) ApplyHabitXP(
	ctx context.Context,
	tx core.DBTX,
	userID string,
	delta int,
) (*Profile, error) {
	if userID == "" {
		return nil, fmt.Errorf("apply habit xp: %w", core.ErrUnauthorized)
	}

	var profile *Profile
	err := s.within(ctx, tx, func(repo Repository) error {
		p, err := lockProfile(ctx, repo, userID)
		if err != nil {
			return err
		}

		p.SetTotal(p.TotalXP + delta)

		if err := repo.SaveProfile(ctx, p); err != nil {
			return err
		}
		profile = p
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("apply habit xp: %w", err)
	}

	return profile, nil
}

// UnlockStreakAchievement records streak_7, streak_30 or streak_100 when
// streak is exactly one of those milestones. Repeats are no-ops.
func (s *Service) UnlockStreakAchievement(
	ctx context.Context,
	tx core.DBTX,
	userID string,
	streak int,
) error {
	name, ok := StreakAchievement(streak)
	if !ok {
		return nil
	}

	err := s.within(ctx, tx, func(repo Repository) error {
		p, err := lockProfile(ctx, repo, userID)
		if err != nil {
			return err
		}

		if p.Achievements.Has(name) {
			return nil
		}
		p.Achievements = p.Achievements.With(name)

		return repo.SaveProfile(ctx, p)
	})
	if err != nil {
		return fmt.Errorf("unlock achievement: %w", err)
	}

	core.AddSpanEvent(ctx, "achievement.unlocked",
		attribute.String("achievement", name),
	)
	s.logger.Debug("achievement unlocked", "user_id", userID, "achievement", name)

	return nil
}

// Grant adds a positive award and appends it to the XP history.
func (s *Service) Grant(
	ctx context.Context,
	tx core.DBTX,
	userID string,
	award Award,
) (*Profile, error) {
	if userID == "" {
		return nil, fmt.Errorf("grant xp: %w", core.ErrUnauthorized)
	}
	if award.Amount <= 0 || award.Source == "" {
		return nil, fmt.Errorf("grant xp: %w", core.ErrInvalidInput)
	}

	ctx, span := core.StartSpan(ctx, "gamification.grant",
		attribute.String("xp.source", award.Source),
		attribute.Int("xp.amount", award.Amount),
	)

	var profile *Profile
	err := s.within(ctx, tx, func(repo Repository) error {
		p, err := lockProfile(ctx, repo, userID)
		if err != nil {
			return err
		}
		if err := s.grant(ctx, repo, p, award); err != nil {
			return err
		}
		profile = p
		return nil
	})
	core.EndSpan(span, err)
	if err != nil {
		return nil, fmt.Errorf("grant xp: %w", err)
	}

	return profile, nil
}

// grant applies award to a profile already locked by the caller.
func (s *Service) grant(
	ctx context.Context,
	repo Repository,
	p *Profile,
	award Award,
) error {
	p.SetTotal(p.TotalXP + award.Amount)

	if err := repo.SaveProfile(ctx, p); err != nil {
		return err
	}

	entry := &XPEntry{
		ID:          uuid.New().String(),
		UserID:      p.UserID,
		Amount:      award.Amount,
		Source:      award.Source,
		Description: award.Description,
		CreatedAt:   s.clock.Now().UTC(),
	}
	if err := repo.AppendHistory(ctx, entry); err != nil {
		return err
	}

	s.logger.Debug("xp granted",
		"user_id", p.UserID,
		"source", award.Source,
		"amount", award.Amount,
		"total_xp", p.TotalXP,
	)

	return nil
}

// ClaimDailyLogin grants the daily login bonus at most once per UTC day.
// It reports whether this call granted it.
func (s *Service) ClaimDailyLogin(
	ctx context.Context,
	userID string,
) (*Profile, bool, error) {
	if userID == "" {
		return nil, false, fmt.Errorf("daily login: %w", core.ErrUnauthorized)
	}

	today := s.clock.Now().UTC().Format(core.DateLayout)

	var (
		profile *Profile
		granted bool
	)
	err := s.within(ctx, nil, func(repo Repository) error {
		p, err := lockProfile(ctx, repo, userID)
		if err != nil {
			return err
		}

		if p.LastDailyLogin != nil && *p.LastDailyLogin == today {
			profile = p
			return nil
		}

		p.LastDailyLogin = &today
		err = s.grant(ctx, repo, p, Award{
			Amount:      XPDailyLogin,
			Source:      SourceDailyLogin,
			Description: "Daily login bonus",
		})
		if err != nil {
			return err
		}

		profile = p
		granted = true
		return nil
	})
	if err != nil {
		return nil, false, fmt.Errorf("daily login: %w", err)
	}

	return profile, granted, nil
}

func (s *Service) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	if userID == "" {
		return nil, fmt.Errorf("get profile: %w", core.ErrUnauthorized)
	}

	p, err := s.repo.GetProfile(ctx, userID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return nil, err
	}

	if err := s.repo.EnsureProfile(ctx, userID); err != nil {
		return nil, err
	}
	return s.repo.GetProfile(ctx, userID)
}

func (s *Service) History(
	ctx context.Context,
	userID string,
	page, pageSize int,
) ([]XPEntry, int, error) {
	if userID == "" {
		return nil, 0, fmt.Errorf("xp history: %w", core.ErrUnauthorized)
	}

	page, pageSize = PageBounds(page, pageSize)

	return s.repo.ListHistory(ctx, userID, pageSize, (page-1)*pageSize)
}

func (s *Service) Totals(ctx context.Context) (*LedgerTotals, error) {
	return s.repo.Totals(ctx)
}
