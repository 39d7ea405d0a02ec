// AngelaMos | 2026
// service.go

package reflection

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel/attribute"

	"github.com/carterperez-dev/habit-ledger/internal/core"
	"github.com/carterperez-dev/habit-ledger/internal/gamification"
)

// Scorer rates how much of a day's due habits were completed, 0 to 100.
type Scorer interface {
	DailyScore(ctx context.Context, userID, date string) (string, int, error)
}

type XPGranter interface {
	Grant(
		ctx context.Context,
		tx core.DBTX,
		userID string,
		award gamification.Award,
	) (*gamification.Profile, error)
}

const (
	maxRangeDays       = 366
	defaultReviewLimit = 12
	maxReviewLimit     = 104
)

type Service struct {
	repo   Repository
	tx     core.Transactor
	scorer Scorer
	xp     XPGranter
	clock  clockwork.Clock
	logger *slog.Logger
}

func NewService(
	repo Repository,
	tx core.Transactor,
	scorer Scorer,
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
	return &Service{
		repo:   repo,
		tx:     tx,
		scorer: scorer,
		xp:     xp,
		clock:  clock,
		logger: logger,
	}
}

// Submit records the evening reflection for a day and grants its XP,
// plus the perfect day bonus when the day's habit score is high enough.
// A second reflection for the same day is a duplicate.
func (s *Service) Submit(
	ctx context.Context,
	userID string,
	req SubmitReflectionRequest,
) (*Reflection, error) {
	if userID == "" {
		return nil, fmt.Errorf("submit reflection: %w", core.ErrUnauthorized)
	}
	if _, err := core.ParseDate(req.Date); err != nil {
		return nil, fmt.Errorf("submit reflection: %w", err)
	}
	if req.Mood < 1 || req.Mood > 5 {
		return nil, fmt.Errorf("mood must be between 1 and 5: %w", core.ErrInvalidInput)
	}

	_, score, err := s.scorer.DailyScore(ctx, userID, req.Date)
	if err != nil {
		return nil, fmt.Errorf("submit reflection: %w", err)
	}

	ref := &Reflection{
		ID:            uuid.New().String(),
		UserID:        userID,
		Date:          req.Date,
		Mood:          req.Mood,
		Wins:          strings.TrimSpace(req.Wins),
		Challenges:    strings.TrimSpace(req.Challenges),
		Gratitude:     strings.TrimSpace(req.Gratitude),
		TomorrowFocus: strings.TrimSpace(req.TomorrowFocus),
		DailyScore:    score,
		XPEarned:      gamification.XPEveningReflection,
	}

	awards := []gamification.Award{{
		Amount:      gamification.XPEveningReflection,
		Source:      gamification.SourceEveningReflection,
		Description: "Evening reflection for " + req.Date,
	}}
	if ref.PerfectDay() {
		ref.XPEarned += gamification.XPPerfectDay
		awards = append(awards, gamification.Award{
			Amount:      gamification.XPPerfectDay,
			Source:      gamification.SourcePerfectDay,
			Description: fmt.Sprintf("Perfect day %s (%d%%)", req.Date, score),
		})
	}

	ctx, span := core.StartSpan(ctx, "reflection.submit",
		attribute.String("reflection.date", req.Date),
		attribute.Int("reflection.daily_score", score),
	)

	err = s.tx.InTx(ctx, func(tx core.DBTX) error {
		if err := s.repo.WithTx(tx).CreateReflection(ctx, ref); err != nil {
			return err
		}
		for _, a := range awards {
			if _, err := s.xp.Grant(ctx, tx, userID, a); err != nil {
				return err
			}
		}
		return nil
	})
	core.EndSpan(span, err)
	if err != nil {
		return nil, fmt.Errorf("submit reflection: %w", err)
	}

	s.logger.Debug("reflection submitted",
		"user_id", userID,
		"date", req.Date,
		"daily_score", score,
		"xp_earned", ref.XPEarned,
	)

	return ref, nil
}

// List returns reflections between from and to inclusive, newest first.
// Empty bounds default to the last 30 days.
func (s *Service) List(ctx context.Context, userID, from, to string) ([]Reflection, error) {
	if userID == "" {
		return nil, fmt.Errorf("list reflections: %w", core.ErrUnauthorized)
	}

	if to == "" {
		to = s.clock.Now().UTC().Format(core.DateLayout)
	}
	end, err := core.ParseDate(to)
	if err != nil {
		return nil, fmt.Errorf("list reflections: %w", err)
	}
	if from == "" {
		from = end.AddDate(0, 0, -29).Format(core.DateLayout)
	}
	start, err := core.ParseDate(from)
	if err != nil {
		return nil, fmt.Errorf("list reflections: %w", err)
	}

	if end.Before(start) {
		return nil, fmt.Errorf("from must not be after to: %w", core.ErrInvalidInput)
	}
	if end.Sub(start) >= maxRangeDays*24*time.Hour {
		return nil, fmt.Errorf("range is limited to %d days: %w", maxRangeDays, core.ErrInvalidInput)
	}

	return s.repo.ListReflections(ctx, userID, from, to)
}

// SubmitWeeklyReview records the review for the week starting on a
// Monday and grants its XP.
func (s *Service) SubmitWeeklyReview(
	ctx context.Context,
	userID string,
	req SubmitWeeklyReviewRequest,
) (*WeeklyReview, error) {
	if userID == "" {
		return nil, fmt.Errorf("submit weekly review: %w", core.ErrUnauthorized)
	}

	start, err := core.ParseDate(req.WeekStart)
	if err != nil {
		return nil, fmt.Errorf("submit weekly review: %w", err)
	}
	if start.Weekday() != time.Monday {
		return nil, fmt.Errorf("week_start must be a Monday: %w", core.ErrInvalidInput)
	}
	if req.Rating < 1 || req.Rating > 5 {
		return nil, fmt.Errorf("rating must be between 1 and 5: %w", core.ErrInvalidInput)
	}

	review := &WeeklyReview{
		ID:            uuid.New().String(),
		UserID:        userID,
		WeekStart:     req.WeekStart,
		Rating:        req.Rating,
		Highlights:    strings.TrimSpace(req.Highlights),
		Challenges:    strings.TrimSpace(req.Challenges),
		NextWeekFocus: strings.TrimSpace(req.NextWeekFocus),
		XPEarned:      gamification.XPWeeklyReview,
	}

	err = s.tx.InTx(ctx, func(tx core.DBTX) error {
		if err := s.repo.WithTx(tx).CreateWeeklyReview(ctx, review); err != nil {
			return err
		}
		_, err := s.xp.Grant(ctx, tx, userID, gamification.Award{
			Amount:      gamification.XPWeeklyReview,
			Source:      gamification.SourceWeeklyReview,
			Description: "Weekly review for week of " + req.WeekStart,
		})
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("submit weekly review: %w", err)
	}

	return review, nil
}

func (s *Service) ListWeeklyReviews(
	ctx context.Context,
	userID string,
	limit int,
) ([]WeeklyReview, error) {
	if userID == "" {
		return nil, fmt.Errorf("list weekly reviews: %w", core.ErrUnauthorized)
	}
	if limit < 1 || limit > maxReviewLimit {
		limit = defaultReviewLimit
	}

	return s.repo.ListWeeklyReviews(ctx, userID, limit)
}
