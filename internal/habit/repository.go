// AngelaMos | 2026
// repository.go

package habit

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carterperez-dev/habit-ledger/internal/core"
)

type Repository interface {
	WithTx(tx core.DBTX) Repository

	Create(ctx context.Context, h *Habit) error
	GetByID(ctx context.Context, userID, id string) (*Habit, error)
	GetForUpdate(ctx context.Context, userID, id string) (*Habit, error)
	Update(ctx context.Context, h *Habit) error
	UpdateStreak(ctx context.Context, h *Habit) error
	Delete(ctx context.Context, userID, id string) error
	ListByUser(ctx context.Context, userID string, activeOnly bool) ([]Habit, error)
	ListActiveForUpdate(ctx context.Context, userID string) ([]Habit, error)
	CountActive(ctx context.Context, userID string) (int, error)
	SetOrder(ctx context.Context, userID, id string, order int) error

	GetLog(ctx context.Context, habitID, date string) (*Log, error)
	InsertLog(ctx context.Context, l *Log) error
	UpdateLog(ctx context.Context, l *Log) error
	DeleteLog(ctx context.Context, id string) error
	DeleteLogs(ctx context.Context, habitID string) error
	InsertFailedLog(ctx context.Context, l *Log) (bool, error)
	ListLogs(ctx context.Context, habitID string) ([]Log, error)
	ListLogsInRange(ctx context.Context, userID, from, to, habitID string) ([]Log, error)

	GetOwner(ctx context.Context, userID string, forUpdate bool) (*Owner, error)
	ConsumeStreakFreeze(ctx context.Context, userID string) error
	ListOwnersWithActiveHabits(ctx context.Context) ([]string, error)
	Counts(ctx context.Context) (*Counts, error)
}

// Counts is an operator view across all habits and logs.
type Counts struct {
	Habits    int `db:"habits"    json:"habits"`
	Active    int `db:"active"    json:"active"`
	Logs      int `db:"logs"      json:"logs"`
	Completed int `db:"completed" json:"completed"`
	Skipped   int `db:"skipped"   json:"skipped"`
	Failed    int `db:"failed"    json:"failed"`
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

const habitColumns = `id, user_id, title, description, category, frequency,
		       custom_days, time_of_day, is_active, streak_current,
		       streak_longest, sort_order, created_at, updated_at`

const logColumns = `id, habit_id, user_id,
		       to_char(log_date, 'YYYY-MM-DD') AS log_date,
		       status, mood, note, completed_at, created_at, updated_at`

func (r *repository) Create(ctx context.Context, h *Habit) error {
	query := `
		INSERT INTO habits (
			id, user_id, title, description, category, frequency,
			custom_days, time_of_day, is_active, sort_order
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING created_at, updated_at`

	err := r.db.GetContext(ctx, h, query,
		h.ID,
		h.UserID,
		h.Title,
		h.Description,
		h.Category,
		h.Frequency,
		h.CustomDays,
		h.TimeOfDay,
		h.IsActive,
		h.Order,
	)
	if err != nil {
		return fmt.Errorf("create habit: %w", err)
	}

	return nil
}

func (r *repository) GetByID(
	ctx context.Context,
	userID, id string,
) (*Habit, error) {
	return r.get(ctx, userID, id, "")
}

func (r *repository) GetForUpdate(
	ctx context.Context,
	userID, id string,
) (*Habit, error) {
	return r.get(ctx, userID, id, " FOR UPDATE")
}

// get scopes the lookup to the owner so a foreign habit reads as missing.
func (r *repository) get(
	ctx context.Context,
	userID, id, lock string,
) (*Habit, error) {
	query := `SELECT ` + habitColumns + `
		FROM habits
		WHERE id = $1 AND user_id = $2` + lock

	var h Habit
	err := r.db.GetContext(ctx, &h, query, id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get habit: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get habit: %w", err)
	}

	return &h, nil
}

func (r *repository) Update(ctx context.Context, h *Habit) error {
	query := `
		UPDATE habits
		SET title = $3, description = $4, category = $5, frequency = $6,
		    custom_days = $7, time_of_day = $8, is_active = $9,
		    updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &h.UpdatedAt, query,
		h.ID,
		h.UserID,
		h.Title,
		h.Description,
		h.Category,
		h.Frequency,
		h.CustomDays,
		h.TimeOfDay,
		h.IsActive,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update habit: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update habit: %w", err)
	}

	return nil
}

func (r *repository) UpdateStreak(ctx context.Context, h *Habit) error {
	query := `
		UPDATE habits
		SET streak_current = $2, streak_longest = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &h.UpdatedAt, query,
		h.ID,
		h.StreakCurrent,
		h.StreakLongest,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update streak: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update streak: %w", err)
	}

	return nil
}

func (r *repository) Delete(ctx context.Context, userID, id string) error {
	query := `DELETE FROM habits WHERE id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("delete habit: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete habit rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("delete habit: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) ListByUser(
	ctx context.Context,
	userID string,
	activeOnly bool,
) ([]Habit, error) {
	query := `SELECT ` + habitColumns + `
		FROM habits
		WHERE user_id = $1`
	if activeOnly {
		query += ` AND is_active`
	}
	query += ` ORDER BY sort_order, created_at`

	habits := []Habit{}
	if err := r.db.SelectContext(ctx, &habits, query, userID); err != nil {
		return nil, fmt.Errorf("list habits: %w", err)
	}

	return habits, nil
}

func (r *repository) ListActiveForUpdate(
	ctx context.Context,
	userID string,
) ([]Habit, error) {
	query := `SELECT ` + habitColumns + `
		FROM habits
		WHERE user_id = $1 AND is_active
		ORDER BY id
		FOR UPDATE`

	habits := []Habit{}
	if err := r.db.SelectContext(ctx, &habits, query, userID); err != nil {
		return nil, fmt.Errorf("lock active habits: %w", err)
	}

	return habits, nil
}

func (r *repository) CountActive(ctx context.Context, userID string) (int, error) {
	query := `SELECT COUNT(*) FROM habits WHERE user_id = $1 AND is_active`

	var count int
	if err := r.db.GetContext(ctx, &count, query, userID); err != nil {
		return 0, fmt.Errorf("count active habits: %w", err)
	}

	return count, nil
}

func (r *repository) SetOrder(
	ctx context.Context,
	userID, id string,
	order int,
) error {
	query := `
		UPDATE habits
		SET sort_order = $3, updated_at = NOW()
		WHERE id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, id, userID, order)
	if err != nil {
		return fmt.Errorf("set habit order: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("set habit order rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("set habit order: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) GetLog(
	ctx context.Context,
	habitID, date string,
) (*Log, error) {
	query := `SELECT ` + logColumns + `
		FROM habit_logs
		WHERE habit_id = $1 AND log_date = $2::date`

	var l Log
	err := r.db.GetContext(ctx, &l, query, habitID, date)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get habit log: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get habit log: %w", err)
	}

	return &l, nil
}

func (r *repository) InsertLog(ctx context.Context, l *Log) error {
	query := `
		INSERT INTO habit_logs (
			id, habit_id, user_id, log_date, status, mood, note, completed_at
		)
		VALUES ($1, $2, $3, $4::date, $5, $6, $7, $8)
		RETURNING created_at, updated_at`

	err := r.db.GetContext(ctx, l, query,
		l.ID,
		l.HabitID,
		l.UserID,
		l.Date,
		l.Status,
		l.Mood,
		l.Note,
		l.CompletedAt,
	)
	if err != nil {
		if core.IsDuplicateKey(err) {
			return fmt.Errorf("insert habit log: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("insert habit log: %w", err)
	}

	return nil
}

func (r *repository) UpdateLog(ctx context.Context, l *Log) error {
	query := `
		UPDATE habit_logs
		SET status = $2, mood = $3, note = $4, completed_at = $5,
		    updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &l.UpdatedAt, query,
		l.ID,
		l.Status,
		l.Mood,
		l.Note,
		l.CompletedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update habit log: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update habit log: %w", err)
	}

	return nil
}

func (r *repository) DeleteLog(ctx context.Context, id string) error {
	query := `DELETE FROM habit_logs WHERE id = $1`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete habit log: %w", err)
	}
	return nil
}

func (r *repository) DeleteLogs(ctx context.Context, habitID string) error {
	query := `DELETE FROM habit_logs WHERE habit_id = $1`

	if _, err := r.db.ExecContext(ctx, query, habitID); err != nil {
		return fmt.Errorf("delete habit logs: %w", err)
	}
	return nil
}

// InsertFailedLog records a miss unless the day already has a log. It
// reports whether a row was written.
func (r *repository) InsertFailedLog(ctx context.Context, l *Log) (bool, error) {
	query := `
		INSERT INTO habit_logs (id, habit_id, user_id, log_date, status)
		VALUES ($1, $2, $3, $4::date, $5)
		ON CONFLICT (habit_id, log_date) DO NOTHING`

	result, err := r.db.ExecContext(ctx, query,
		l.ID,
		l.HabitID,
		l.UserID,
		l.Date,
		StatusFailed,
	)
	if err != nil {
		return false, fmt.Errorf("insert failed log: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("insert failed log rows affected: %w", err)
	}

	return rows == 1, nil
}

func (r *repository) ListLogs(ctx context.Context, habitID string) ([]Log, error) {
	query := `SELECT ` + logColumns + `
		FROM habit_logs
		WHERE habit_id = $1
		ORDER BY log_date`

	logs := []Log{}
	if err := r.db.SelectContext(ctx, &logs, query, habitID); err != nil {
		return nil, fmt.Errorf("list habit logs: %w", err)
	}

	return logs, nil
}

func (r *repository) ListLogsInRange(
	ctx context.Context,
	userID, from, to, habitID string,
) ([]Log, error) {
	query := `SELECT ` + logColumns + `
		FROM habit_logs
		WHERE user_id = $1 AND log_date BETWEEN $2::date AND $3::date`
	args := []any{userID, from, to}

	if habitID != "" {
		query += ` AND habit_id = $4`
		args = append(args, habitID)
	}
	query += ` ORDER BY log_date, habit_id`

	logs := []Log{}
	if err := r.db.SelectContext(ctx, &logs, query, args...); err != nil {
		return nil, fmt.Errorf("list habit logs in range: %w", err)
	}

	return logs, nil
}

func (r *repository) GetOwner(
	ctx context.Context,
	userID string,
	forUpdate bool,
) (*Owner, error) {
	query := `
		SELECT id, plan, timezone, streak_freezes
		FROM users
		WHERE id = $1 AND deleted_at IS NULL`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var o Owner
	err := r.db.GetContext(ctx, &o, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get owner: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get owner: %w", err)
	}

	return &o, nil
}

func (r *repository) ConsumeStreakFreeze(ctx context.Context, userID string) error {
	query := `
		UPDATE users
		SET streak_freezes = streak_freezes - 1, updated_at = NOW()
		WHERE id = $1 AND streak_freezes > 0`

	result, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("consume streak freeze: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("consume streak freeze rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("consume streak freeze: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) ListOwnersWithActiveHabits(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT h.user_id
		FROM habits h
		JOIN users u ON u.id = h.user_id
		WHERE h.is_active AND u.deleted_at IS NULL
		ORDER BY h.user_id`

	ids := []string{}
	if err := r.db.SelectContext(ctx, &ids, query); err != nil {
		return nil, fmt.Errorf("list habit owners: %w", err)
	}

	return ids, nil
}

func (r *repository) Counts(ctx context.Context) (*Counts, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM habits) AS habits,
			(SELECT COUNT(*) FROM habits WHERE is_active) AS active,
			(SELECT COUNT(*) FROM habit_logs) AS logs,
			(SELECT COUNT(*) FROM habit_logs WHERE status = 'completed') AS completed,
			(SELECT COUNT(*) FROM habit_logs WHERE status = 'skipped') AS skipped,
			(SELECT COUNT(*) FROM habit_logs WHERE status = 'failed') AS failed`

	var c Counts
	if err := r.db.GetContext(ctx, &c, query); err != nil {
		return nil, fmt.Errorf("habit counts: %w", err)
	}
	return &c, nil
}
