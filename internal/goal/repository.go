// AngelaMos | 2026
// repository.go

package goal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/carterperez-dev/habit-ledger/internal/core"
)

type Repository interface {
	WithTx(tx core.DBTX) Repository

	Create(ctx context.Context, g *Goal) error
	GetByID(ctx context.Context, userID, id string) (*Goal, error)
	GetForUpdate(ctx context.Context, userID, id string) (*Goal, error)
	Update(ctx context.Context, g *Goal) error
	SaveProgress(ctx context.Context, g *Goal) error
	Delete(ctx context.Context, userID, id string) error
	List(ctx context.Context, userID, status string) ([]Goal, error)

	CreateMilestone(ctx context.Context, m *Milestone) error
	GetMilestone(ctx context.Context, goalID, id string) (*Milestone, error)
	UpdateMilestone(ctx context.Context, m *Milestone) error
	DeleteMilestone(ctx context.Context, goalID, id string) error
	DeleteMilestones(ctx context.Context, goalID string) error
	ListMilestones(ctx context.Context, goalID string) ([]Milestone, error)
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

const goalColumns = `id, user_id, title, description, category,
		       to_char(target_date, 'YYYY-MM-DD') AS target_date,
		       status, progress, created_at, updated_at`

const milestoneColumns = `id, goal_id, title, status, sort_order,
		       completed_at, xp_awarded, created_at, updated_at`

func (r *repository) Create(ctx context.Context, g *Goal) error {
	query := `
		INSERT INTO goals (id, user_id, title, description, category, target_date, status, progress)
		VALUES ($1, $2, $3, $4, $5, $6::date, $7, $8)
		RETURNING created_at, updated_at`

	err := r.db.GetContext(ctx, g, query,
		g.ID,
		g.UserID,
		g.Title,
		g.Description,
		g.Category,
		g.TargetDate,
		g.Status,
		g.Progress,
	)
	if err != nil {
		return fmt.Errorf("create goal: %w", err)
	}

	return nil
}

func (r *repository) GetByID(ctx context.Context, userID, id string) (*Goal, error) {
	return r.get(ctx, userID, id, "")
}

func (r *repository) GetForUpdate(ctx context.Context, userID, id string) (*Goal, error) {
	return r.get(ctx, userID, id, " FOR UPDATE")
}

func (r *repository) get(ctx context.Context, userID, id, lock string) (*Goal, error) {
	query := `SELECT ` + goalColumns + `
		FROM goals
		WHERE id = $1 AND user_id = $2` + lock

	var g Goal
	err := r.db.GetContext(ctx, &g, query, id, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get goal: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get goal: %w", err)
	}

	return &g, nil
}

func (r *repository) Update(ctx context.Context, g *Goal) error {
	query := `
		UPDATE goals
		SET title = $3, description = $4, category = $5,
		    target_date = $6::date, updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &g.UpdatedAt, query,
		g.ID,
		g.UserID,
		g.Title,
		g.Description,
		g.Category,
		g.TargetDate,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update goal: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update goal: %w", err)
	}

	return nil
}

func (r *repository) SaveProgress(ctx context.Context, g *Goal) error {
	query := `
		UPDATE goals
		SET status = $2, progress = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &g.UpdatedAt, query, g.ID, g.Status, g.Progress)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("save goal progress: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("save goal progress: %w", err)
	}

	return nil
}

func (r *repository) Delete(ctx context.Context, userID, id string) error {
	query := `DELETE FROM goals WHERE id = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete goal rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("delete goal: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) List(ctx context.Context, userID, status string) ([]Goal, error) {
	query := `SELECT ` + goalColumns + `
		FROM goals
		WHERE user_id = $1`
	args := []any{userID}

	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	goals := []Goal{}
	if err := r.db.SelectContext(ctx, &goals, query, args...); err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}

	return goals, nil
}

func (r *repository) CreateMilestone(ctx context.Context, m *Milestone) error {
	query := `
		INSERT INTO milestones (id, goal_id, title, status, sort_order)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at`

	err := r.db.GetContext(ctx, m, query, m.ID, m.GoalID, m.Title, m.Status, m.Order)
	if err != nil {
		return fmt.Errorf("create milestone: %w", err)
	}

	return nil
}

func (r *repository) GetMilestone(ctx context.Context, goalID, id string) (*Milestone, error) {
	query := `SELECT ` + milestoneColumns + `
		FROM milestones
		WHERE id = $1 AND goal_id = $2`

	var m Milestone
	err := r.db.GetContext(ctx, &m, query, id, goalID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get milestone: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get milestone: %w", err)
	}

	return &m, nil
}

func (r *repository) UpdateMilestone(ctx context.Context, m *Milestone) error {
	query := `
		UPDATE milestones
		SET status = $2, completed_at = $3, xp_awarded = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &m.UpdatedAt, query, m.ID, m.Status, m.CompletedAt, m.XPAwarded)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("update milestone: %w", core.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update milestone: %w", err)
	}

	return nil
}

func (r *repository) DeleteMilestone(ctx context.Context, goalID, id string) error {
	query := `DELETE FROM milestones WHERE id = $1 AND goal_id = $2`

	result, err := r.db.ExecContext(ctx, query, id, goalID)
	if err != nil {
		return fmt.Errorf("delete milestone: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete milestone rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("delete milestone: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) DeleteMilestones(ctx context.Context, goalID string) error {
	query := `DELETE FROM milestones WHERE goal_id = $1`

	if _, err := r.db.ExecContext(ctx, query, goalID); err != nil {
		return fmt.Errorf("delete milestones: %w", err)
	}
	return nil
}

func (r *repository) ListMilestones(ctx context.Context, goalID string) ([]Milestone, error) {
	query := `SELECT ` + milestoneColumns + `
		FROM milestones
		WHERE goal_id = $1
		ORDER BY sort_order, created_at`

	milestones := []Milestone{}
	if err := r.db.SelectContext(ctx, &milestones, query, goalID); err != nil {
		return nil, fmt.Errorf("list milestones: %w", err)
	}

	return milestones, nil
}
