// AngelaMos | 2026
// dto.go

package goal

import (
	"time"
)

type CreateGoalRequest struct {
	Title       string   `json:"title"                 validate:"required,min=1,max=120"`
	Description string   `json:"description"           validate:"max=2000"`
	Category    string   `json:"category"              validate:"max=50"`
	TargetDate  *string  `json:"target_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Milestones  []string `json:"milestones"            validate:"max=50,dive,required,min=1,max=200"`
}

// UpdateGoalRequest patches a goal. An empty target_date clears it.
type UpdateGoalRequest struct {
	Title       *string `json:"title,omitempty"       validate:"omitempty,min=1,max=120"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=2000"`
	Category    *string `json:"category,omitempty"    validate:"omitempty,max=50"`
	TargetDate  *string `json:"target_date,omitempty" validate:"omitempty,max=10"`
}

type AddMilestoneRequest struct {
	Title string `json:"title" validate:"required,min=1,max=200"`
}

type MilestoneResponse struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Status      string     `json:"status"`
	Order       int        `json:"order"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

type GoalResponse struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Category    string              `json:"category"`
	TargetDate  *string             `json:"target_date,omitempty"`
	Status      string              `json:"status"`
	Progress    int                 `json:"progress"`
	Milestones  []MilestoneResponse `json:"milestones,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

type MilestoneResult struct {
	Goal     GoalResponse `json:"goal"`
	XPEarned int          `json:"xp_earned"`
}

func ToGoalResponse(g *Goal) GoalResponse {
	resp := GoalResponse{
		ID:          g.ID,
		Title:       g.Title,
		Description: g.Description,
		Category:    g.Category,
		TargetDate:  g.TargetDate,
		Status:      g.Status,
		Progress:    g.Progress,
		CreatedAt:   g.CreatedAt,
		UpdatedAt:   g.UpdatedAt,
	}

	for _, m := range g.Milestones {
		resp.Milestones = append(resp.Milestones, MilestoneResponse{
			ID:          m.ID,
			Title:       m.Title,
			Status:      m.Status,
			Order:       m.Order,
			CompletedAt: m.CompletedAt,
		})
	}

	return resp
}

func ToGoalResponses(goals []Goal) []GoalResponse {
	out := make([]GoalResponse, 0, len(goals))
	for i := range goals {
		out = append(out, ToGoalResponse(&goals[i]))
	}
	return out
}
