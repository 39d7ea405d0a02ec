// AngelaMos | 2026
// entity.go

package goal

import (
	"math"
	"time"
)

type Goal struct {
	ID          string    `db:"id"`
	UserID      string    `db:"user_id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	Category    string    `db:"category"`
	TargetDate  *string   `db:"target_date"`
	Status      string    `db:"status"`
	Progress    int       `db:"progress"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`

	Milestones []Milestone `db:"-"`
}

type Milestone struct {
	ID          string     `db:"id"`
	GoalID      string     `db:"goal_id"`
	Title       string     `db:"title"`
	Status      string     `db:"status"`
	Order       int        `db:"sort_order"`
	CompletedAt *time.Time `db:"completed_at"`
	XPAwarded   bool       `db:"xp_awarded"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
}

const (
	StatusNotStarted = "not_started"
	StatusInProgress = "in_progress"
	StatusCompleted  = "completed"
)

const (
	MilestonePending   = "pending"
	MilestoneCompleted = "completed"
)

// Progress is the rounded share of completed milestones, 0 when there
// are none.
func Progress(milestones []Milestone) int {
	if len(milestones) == 0 {
		return 0
	}

	done := 0
	for _, m := range milestones {
		if m.Status == MilestoneCompleted {
			done++
		}
	}

	return int(math.Round(float64(done) / float64(len(milestones)) * 100))
}

// Recompute derives progress and status from the goal's milestones after
// any milestone change.
func (g *Goal) Recompute(milestones []Milestone) {
	g.Milestones = milestones
	g.Progress = Progress(milestones)

	if g.Progress == 100 {
		g.Status = StatusCompleted
	} else {
		g.Status = StatusInProgress
	}
}
