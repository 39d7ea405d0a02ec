// AngelaMos | 2026
// entity.go

package gamification

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"slices"
	"time"
)

type Profile struct {
	UserID         string     `db:"user_id"`
	TotalXP        int        `db:"total_xp"`
	Level          int        `db:"level"`
	Achievements   StringList `db:"achievements"`
	Badges         StringList `db:"badges"`
	LastDailyLogin *string    `db:"last_daily_login"`
	CreatedAt      time.Time  `db:"created_at"`
	UpdatedAt      time.Time  `db:"updated_at"`
}

// SetTotal stores a new total, clamped at zero, and recomputes the level
// and any level badges it unlocks.
func (p *Profile) SetTotal(total int) {
	if total < 0 {
		total = 0
	}
	p.TotalXP = total
	p.Level = Level(total)

	for _, badge := range LevelBadges(p.Level) {
		p.Badges = p.Badges.With(badge)
	}
}

type XPEntry struct {
	ID          string    `db:"id"`
	UserID      string    `db:"user_id"`
	Amount      int       `db:"amount"`
	Source      string    `db:"source"`
	Description string    `db:"description"`
	CreatedAt   time.Time `db:"created_at"`
}

// Award is a history-backed XP grant.
type Award struct {
	Amount      int
	Source      string
	Description string
}

const (
	SourceHabitComplete     = "habit_complete"
	SourceDailyLogin        = "daily_login"
	SourceEveningReflection = "evening_reflection"
	SourcePerfectDay        = "perfect_day"
	SourceMilestoneComplete = "milestone_complete"
	SourceWeeklyReview      = "weekly_review"
)

const (
	XPDailyLogin        = 5
	XPEveningReflection = 15
	XPPerfectDay        = 25
	XPMilestoneComplete = 50
	XPWeeklyReview      = 30
)

// StringList is a set-like list persisted as a JSONB array.
type StringList []string

func (l StringList) Has(s string) bool {
	return slices.Contains(l, s)
}

// With returns the list with s appended unless it is already present.
func (l StringList) With(s string) StringList {
	if l.Has(s) {
		return l
	}
	return append(l, s)
}

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, fmt.Errorf("marshal string list: %w", err)
	}
	return string(b), nil
}

func (l *StringList) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = StringList{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("scan string list: unsupported type %T", src)
	}

	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("scan string list: %w", err)
	}
	*l = out
	return nil
}
