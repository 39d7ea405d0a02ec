// AngelaMos | 2026
// repository.go

package reflection

import (
	"context"
	"fmt"

	"github.com/carterperez-dev/habit-ledger/internal/core"
)

type Repository interface {
	WithTx(tx core.DBTX) Repository
	CreateReflection(ctx context.Context, r *Reflection) error
	ListReflections(ctx context.Context, userID, from, to string) ([]Reflection, error)
	CreateWeeklyReview(ctx context.Context, w *WeeklyReview) error
	ListWeeklyReviews(ctx context.Context, userID string, limit int) ([]WeeklyReview, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx core.DBTX) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateReflection(ctx context.Context, ref *Reflection) error {
	query := `
		INSERT INTO reflections (
			id, user_id, reflection_date, mood, wins, challenges,
			gratitude, tomorrow_focus, daily_score, xp_earned
		)
		VALUES ($1, $2, $3::date, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at`

	err := r.db.GetContext(ctx, &ref.CreatedAt, query,
		ref.ID,
		ref.UserID,
		ref.Date,
		ref.Mood,
		ref.Wins,
		ref.Challenges,
		ref.Gratitude,
		ref.TomorrowFocus,
		ref.DailyScore,
		ref.XPEarned,
	)
	if err != nil {
		if core.IsDuplicateKey(err) {
			return fmt.Errorf("create reflection: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create reflection: %w", err)
	}

	return nil
}

func (r *repository) ListReflections(
	ctx context.Context,
	userID, from, to string,
) ([]Reflection, error) {
	query := `
		SELECT id, user_id, to_char(reflection_date, 'YYYY-MM-DD') AS reflection_date,
		       mood, wins, challenges, gratitude, tomorrow_focus,
		       daily_score, xp_earned, created_at
		FROM reflections
		WHERE user_id = $1 AND reflection_date BETWEEN $2::date AND $3::date
		ORDER BY reflection_date DESC`

	out := []Reflection{}
	if err := r.db.SelectContext(ctx, &out, query, userID, from, to); err != nil {
		return nil, fmt.Errorf("list reflections: %w", err)
	}

	return out, nil
}

func (r *repository) CreateWeeklyReview(ctx context.Context, w *WeeklyReview) error {
	query := `
		INSERT INTO weekly_reviews (
			id, user_id, week_start, rating, highlights, challenges,
			next_week_focus, xp_earned
		)
		VALUES ($1, $2, $3::date, $4, $5, $6, $7, $8)
		RETURNING created_at`

	err := r.db.GetContext(ctx, &w.CreatedAt, query,
		w.ID,
		w.UserID,
		w.WeekStart,
		w.Rating,
		w.Highlights,
		w.Challenges,
		w.NextWeekFocus,
		w.XPEarned,
	)
	if err != nil {
		if core.IsDuplicateKey(err) {
			return fmt.Errorf("create weekly review: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create weekly review: %w", err)
	}

	return nil
}

func (r *repository) ListWeeklyReviews(
	ctx context.Context,
	userID string,
	limit int,
) ([]WeeklyReview, error) {
	query := `
		SELECT id, user_id, to_char(week_start, 'YYYY-MM-DD') AS week_start,
		       rating, highlights, challenges, next_week_focus, xp_earned,
		       created_at
		FROM weekly_reviews
		WHERE user_id = $1
		ORDER BY week_start DESC
		LIMIT $2`

	out := []WeeklyReview{}
	if err := r.db.SelectContext(ctx, &out, query, userID, limit); err != nil {
		return nil, fmt.Errorf("list weekly reviews: %w", err)
	}

	return out, nil
}
