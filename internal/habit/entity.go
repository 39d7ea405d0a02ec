// AngelaMos | 2026
// entity.go

package habit

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"slices"
	"time"
)

type Habit struct {
	ID            string    `db:"id"`
	UserID        string    `db:"user_id"`
	Title         string    `db:"title"`
	Description   string    `db:"description"`
	Category      string    `db:"category"`
	Frequency     string    `db:"frequency"`
	CustomDays    Weekdays  `db:"custom_days"`
	TimeOfDay     string    `db:"time_of_day"`
	IsActive      bool      `db:"is_active"`
	StreakCurrent int       `db:"streak_current"`
	StreakLongest int       `db:"streak_longest"`
	Order         int       `db:"sort_order"`
	CreatedAt     time.Time `db:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"`
}

// Log is the single completion record for a habit on one calendar day.
type Log struct {
	ID          string     `db:"id"`
	HabitID     string     `db:"habit_id"`
	UserID      string     `db:"user_id"`
	Date        string     `db:"log_date"`
	Status      string     `db:"status"`
	Mood        *int       `db:"mood"`
	Note        *string    `db:"note"`
	CompletedAt *time.Time `db:"completed_at"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
}

// Owner is the slice of a user row the habit store needs for quotas and
// the missed-day sweep.
type Owner struct {
	ID            string `db:"id"`
	Plan          string `db:"plan"`
	Timezone      string `db:"timezone"`
	StreakFreezes int    `db:"streak_freezes"`
}

func (o *Owner) Location() *time.Location {
	loc, err := time.LoadLocation(o.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

const (
	StatusCompleted = "completed"
	StatusSkipped   = "skipped"
	StatusFailed    = "failed"
)

const (
	FrequencyDaily    = "daily"
	FrequencyWeekdays = "weekdays"
	FrequencyWeekends = "weekends"
	Frequency3xWeek   = "3x_week"
	FrequencyWeekly   = "weekly"
	FrequencyCustom   = "custom"
)

const (
	TimeMorning   = "morning"
	TimeAfternoon = "afternoon"
	TimeEvening   = "evening"
	TimeAnytime   = "anytime"
)

const (
	ActionCompleted   = "completed"
	ActionUncompleted = "uncompleted"
	ActionSkipped     = "skipped"
)

// Weekdays is a set of days, 0=Sunday through 6=Saturday, persisted as a
// JSONB array.
type Weekdays []int

func (w Weekdays) Has(day time.Weekday) bool {
	return slices.Contains(w, int(day))
}

func (w Weekdays) Value() (driver.Value, error) {
	if w == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]int(w))
	if err != nil {
		return nil, fmt.Errorf("marshal weekdays: %w", err)
	}
	return string(b), nil
}

func (w *Weekdays) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*w = Weekdays{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("scan weekdays: unsupported type %T", src)
	}

	var out []int
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("scan weekdays: %w", err)
	}
	*w = out
	return nil
}
