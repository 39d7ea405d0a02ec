// AngelaMos | 2026
// dto.go

package habit

import (
	"time"
)

type CreateHabitRequest struct {
	Title       string `json:"title"        validate:"required,min=1,max=120"`
	Description string `json:"description"  validate:"max=1000"`
	Category    string `json:"category"     validate:"max=50"`
	Frequency   string `json:"frequency"    validate:"required,oneof=daily weekdays weekends 3x_week weekly custom"`
	CustomDays  []int  `json:"custom_days"  validate:"omitempty,max=7,dive,min=0,max=6"`
	TimeOfDay   string `json:"time_of_day"  validate:"omitempty,oneof=morning afternoon evening anytime"`
}

// UpdateHabitRequest is a field patch. Nil fields are left unchanged.
type UpdateHabitRequest struct {
	Title       *string `json:"title,omitempty"       validate:"omitempty,min=1,max=120"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=1000"`
	Category    *string `json:"category,omitempty"    validate:"omitempty,max=50"`
	Frequency   *string `json:"frequency,omitempty"   validate:"omitempty,oneof=daily weekdays weekends 3x_week weekly custom"`
	CustomDays  *[]int  `json:"custom_days,omitempty" validate:"omitempty,max=7,dive,min=0,max=6"`
	TimeOfDay   *string `json:"time_of_day,omitempty" validate:"omitempty,oneof=morning afternoon evening anytime"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

type ToggleRequest struct {
	Date string  `json:"date"           validate:"required,datetime=2006-01-02"`
	Mood *int    `json:"mood,omitempty" validate:"omitempty,min=1,max=5"`
	Note *string `json:"note,omitempty" validate:"omitempty,max=500"`
}

type SkipRequest struct {
	Date string `json:"date" validate:"required,datetime=2006-01-02"`
}

type ReorderRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,max=500,dive,uuid"`
}

type CreatedResponse struct {
	ID string `json:"id"`
}

type HabitResponse struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Category      string    `json:"category"`
	Frequency     string    `json:"frequency"`
	CustomDays    []int     `json:"custom_days"`
	TimeOfDay     string    `json:"time_of_day"`
	IsActive      bool      `json:"is_active"`
	StreakCurrent int       `json:"streak_current"`
	StreakLongest int       `json:"streak_longest"`
	Order         int       `json:"order"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type LogResponse struct {
	ID          string     `json:"id"`
	HabitID     string     `json:"habit_id"`
	Date        string     `json:"date"`
	Status      string     `json:"status"`
	Mood        *int       `json:"mood,omitempty"`
	Note        *string    `json:"note,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

type ScoreResponse struct {
	Date  string `json:"date"`
	Score int    `json:"score"`
}

func ToHabitResponse(h *Habit) HabitResponse {
	days := []int(h.CustomDays)
	if days == nil {
		days = []int{}
	}

	return HabitResponse{
		ID:            h.ID,
		Title:         h.Title,
		Description:   h.Description,
		Category:      h.Category,
		Frequency:     h.Frequency,
		CustomDays:    days,
		TimeOfDay:     h.TimeOfDay,
		IsActive:      h.IsActive,
		StreakCurrent: h.StreakCurrent,
		StreakLongest: h.StreakLongest,
		Order:         h.Order,
		CreatedAt:     h.CreatedAt,
		UpdatedAt:     h.UpdatedAt,
	}
}

func ToHabitResponses(habits []Habit) []HabitResponse {
	out := make([]HabitResponse, 0, len(habits))
	for i := range habits {
		out = append(out, ToHabitResponse(&habits[i]))
	}
	return out
}

func ToLogResponses(logs []Log) []LogResponse {
	out := make([]LogResponse, 0, len(logs))
	for _, l := range logs {
		out = append(out, LogResponse{
			ID:          l.ID,
			HabitID:     l.HabitID,
			Date:        l.Date,
			Status:      l.Status,
			Mood:        l.Mood,
			Note:        l.Note,
			CompletedAt: l.CompletedAt,
		})
	}
	return out
}
