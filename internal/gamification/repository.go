// AngelaMos | 2026
// repository.go

package gamification

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carterperez-dev/habit-ledger/internal/core"
)

type Repository interface {
	WithTx(tx core.DBTX) Repository
	EnsureProfile(ctx context.Context, userID string) error
	GetProfile(ctx context.Context, userID string) (*Profile, error)
	GetProfileForUpdate(ctx context.Context, userID string) (*Profile, error)
	SaveProfile(ctx context.Context, p *Profile) error
	AppendHistory(ctx context.Context, entry *XPEntry) error
	ListHistory(
		ctx context.Context,
		userID string,
		limit, offset int,
	) ([]XPEntry, int, error)
	Totals(ctx context.Context) (*LedgerTotals, error)
}

// LedgerTotals is an operator view across all profiles.
type LedgerTotals struct {
	Profiles     int `db:"profiles"       json:"profiles"`
	TotalXP      int `db:"total_xp"       json:"total_xp"`
	HistoryCount int `db:"history_count"  json:"history_count"`
	MaxLevel     int `db:"max_level"      json:"max_level"`
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

const profileColumns = `user_id, total_xp, level, achievements, badges,
		       to_char(last_daily_login, 'YYYY-MM-DD') AS last_daily_login,
		       created_at, updated_at`

func (r *repository) EnsureProfile(ctx context.Context, userID string) error {
	query := `
		INSERT INTO gamification_profiles (user_id)
		VALUES ($1)
		ON CONFLICT (user_id) DO NOTHING`

	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("ensure profile: %w", err)
	}
	return nil
}

func (r *repository) GetProfile(
	ctx context.Context,
	userID string,
) (*Profile, error) {
	return r.getProfile(ctx, userID, "")
}

func (r *repository) GetProfileForUpdate(
	ctx context.Context,
	userID string,
) (*Profile, error) {
	return r.getProfile(ctx, userID, " FOR UPDATE")
}

func (r *repository) getProfile(
	ctx context.Context,
	userID, lock string,
) (*Profile, error) {
	query := `SELECT ` + profileColumns + `
		FROM gamification_profiles
		WHERE user_id = $1` + lock

	var p Profile
	err := r.db.GetContext(ctx, &p, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get profile: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}

	return &p, nil
}

func (r *repository) SaveProfile(ctx context.Context, p *Profile) error {
	query := `
		UPDATE gamification_profiles
		SET total_xp = $2, level = $3, achievements = $4, badges = $5,
		    last_daily_login = $6::date, updated_at = NOW()
		WHERE user_id = $1
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &p.UpdatedAt, query,
		p.UserID,
		p.TotalXP,
		p.Level,
		p.Achievements,
		p.Badges,
		p.LastDailyLogin,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("save profile: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("save profile: %w", err)
	}

	return nil
}

func (r *repository) AppendHistory(ctx context.Context, entry *XPEntry) error {
	query := `
		INSERT INTO xp_history (id, user_id, amount, source, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.db.ExecContext(ctx, query,
		entry.ID,
		entry.UserID,
		entry.Amount,
		entry.Source,
		entry.Description,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append xp history: %w", err)
	}

	return nil
}

func (r *repository) ListHistory(
	ctx context.Context,
	userID string,
	limit, offset int,
) ([]XPEntry, int, error) {
	var total int
	countQuery := `SELECT COUNT(*) FROM xp_history WHERE user_id = $1`
	if err := r.db.GetContext(ctx, &total, countQuery, userID); err != nil {
		return nil, 0, fmt.Errorf("count xp history: %w", err)
	}

	query := `
		SELECT id, user_id, amount, source, description, created_at
		FROM xp_history
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`

	entries := []XPEntry{}
	if err := r.db.SelectContext(ctx, &entries, query, userID, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("list xp history: %w", err)
	}

	return entries, total, nil
}

func (r *repository) Totals(ctx context.Context) (*LedgerTotals, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM gamification_profiles) AS profiles,
			(SELECT COALESCE(SUM(total_xp), 0) FROM gamification_profiles) AS total_xp,
			(SELECT COUNT(*) FROM xp_history) AS history_count,
			(SELECT COALESCE(MAX(level), 1) FROM gamification_profiles) AS max_level`

	var t LedgerTotals
	if err := r.db.GetContext(ctx, &t, query); err != nil {
		return nil, fmt.Errorf("ledger totals: %w", err)
	}
	return &t, nil
}
