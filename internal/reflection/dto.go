// AngelaMos | 2026
// dto.go

package reflection

import (
	"time"
)

type SubmitReflectionRequest struct {
	Date          string `json:"date"           validate:"required,datetime=2006-01-02"`
	Mood          int    `json:"mood"           validate:"required,min=1,max=5"`
	Wins          string `json:"wins"           validate:"max=2000"`
	Challenges    string `json:"challenges"     validate:"max=2000"`
	Gratitude     string `json:"gratitude"      validate:"max=2000"`
	TomorrowFocus string `json:"tomorrow_focus" validate:"max=2000"`
}

type SubmitWeeklyReviewRequest struct {
	WeekStart     string `json:"week_start"      validate:"required,datetime=2006-01-02"`
	Rating        int    `json:"rating"          validate:"required,min=1,max=5"`
	Highlights    string `json:"highlights"      validate:"max=4000"`
	Challenges    string `json:"challenges"      validate:"max=4000"`
	NextWeekFocus string `json:"next_week_focus" validate:"max=4000"`
}

type ReflectionResponse struct {
	ID            string    `json:"id"`
	Date          string    `json:"date"`
	Mood          int       `json:"mood"`
	Wins          string    `json:"wins"`
	Challenges    string    `json:"challenges"`
	Gratitude     string    `json:"gratitude"`
	TomorrowFocus string    `json:"tomorrow_focus"`
	DailyScore    int       `json:"daily_score"`
	PerfectDay    bool      `json:"perfect_day"`
	XPEarned      int       `json:"xp_earned"`
	CreatedAt     time.Time `json:"created_at"`
}

type WeeklyReviewResponse struct {
	ID            string    `json:"id"`
	WeekStart     string    `json:"week_start"`
	Rating        int       `json:"rating"`
	Highlights    string    `json:"highlights"`
	Challenges    string    `json:"challenges"`
	NextWeekFocus string    `json:"next_week_focus"`
	XPEarned      int       `json:"xp_earned"`
	CreatedAt     time.Time `json:"created_at"`
}

func ToReflectionResponse(r *Reflection) ReflectionResponse {
	return ReflectionResponse{
		ID:            r.ID,
		Date:          r.Date,
		Mood:          r.Mood,
		Wins:          r.Wins,
		Challenges:    r.Challenges,
		Gratitude:     r.Gratitude,
		TomorrowFocus: r.TomorrowFocus,
		DailyScore:    r.DailyScore,
		PerfectDay:    r.PerfectDay(),
		XPEarned:      r.XPEarned,
		CreatedAt:     r.CreatedAt,
	}
}

func ToReflectionResponses(rs []Reflection) []ReflectionResponse {
	out := make([]ReflectionResponse, 0, len(rs))
	for i := range rs {
		out = append(out, ToReflectionResponse(&rs[i]))
	}
	return out
}

func ToWeeklyReviewResponse(w *WeeklyReview) WeeklyReviewResponse {
	return WeeklyReviewResponse{
		ID:            w.ID,
		WeekStart:     w.WeekStart,
		Rating:        w.Rating,
		Highlights:    w.Highlights,
		Challenges:    w.Challenges,
		NextWeekFocus: w.NextWeekFocus,
		XPEarned:      w.XPEarned,
		CreatedAt:     w.CreatedAt,
	}
}

func ToWeeklyReviewResponses(ws []WeeklyReview) []WeeklyReviewResponse {
	out := make([]WeeklyReviewResponse, 0, len(ws))
	for i := range ws {
		out = append(out, ToWeeklyReviewResponse(&ws[i]))
	}
	return out
}
