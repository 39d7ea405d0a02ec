// AngelaMos | 2026
// entity.go

package reflection

import (
	"time"
)

// Reflection is the evening check-in for one calendar day.
type Reflection struct {
	ID            string    `db:"id"`
	UserID        string    `db:"user_id"`
	Date          string    `db:"reflection_date"`
	Mood          int       `db:"mood"`
	Wins          string    `db:"wins"`
	Challenges    string    `db:"challenges"`
	Gratitude     string    `db:"gratitude"`
	TomorrowFocus string    `db:"tomorrow_focus"`
	DailyScore    int       `db:"daily_score"`
	XPEarned      int       `db:"xp_earned"`
	CreatedAt     time.Time `db:"created_at"`
}

// WeeklyReview covers the ISO week starting on WeekStart, a Monday.
type WeeklyReview struct {
	ID            string    `db:"id"`
	UserID        string    `db:"user_id"`
	WeekStart     string    `db:"week_start"`
	Rating        int       `db:"rating"`
	Highlights    string    `db:"highlights"`
	Challenges    string    `db:"challenges"`
	NextWeekFocus string    `db:"next_week_focus"`
	XPEarned      int       `db:"xp_earned"`
	CreatedAt     time.Time `db:"created_at"`
}

// PerfectDayScore is the daily score at or above which a reflection
// earns the perfect day bonus.
const PerfectDayScore = 95

func (r *Reflection) PerfectDay() bool {
	return r.DailyScore >= PerfectDayScore
}
