// AngelaMos | 2026
// schedule.go

package habit

import (
	"fmt"
	"slices"
	"time"

	"github.com/carterperez-dev/habit-ledger/internal/core"
)

// IsDueOn reports whether the habit is scheduled on date. Flexible
// policies (3x_week, weekly) are never due on a specific day.
func (h *Habit) IsDueOn(date time.Time) bool {
	day := date.Weekday()

	switch h.Frequency {
	case FrequencyDaily:
		return true
	case FrequencyWeekdays:
		return day >= time.Monday && day <= time.Friday
	case FrequencyWeekends:
		return day == time.Saturday || day == time.Sunday
	case FrequencyCustom:
		return h.CustomDays.Has(day)
	default:
		return false
	}
}

// ExistedOn reports whether the habit had been created by the end of date
// in loc.
func (h *Habit) ExistedOn(date string, loc *time.Location) bool {
	return core.DayIn(h.CreatedAt, loc) <= date
}

func validFrequency(f string) bool {
	switch f {
	case FrequencyDaily, FrequencyWeekdays, FrequencyWeekends,
		Frequency3xWeek, FrequencyWeekly, FrequencyCustom:
		return true
	}
	return false
}

func validTimeOfDay(t string) bool {
	switch t {
	case TimeMorning, TimeAfternoon, TimeEvening, TimeAnytime:
		return true
	}
	return false
}

// normalizeSchedule checks a frequency and its day set. Custom schedules
// need at least one day; every other policy stores none.
func normalizeSchedule(frequency string, days []int) (Weekdays, error) {
	if !validFrequency(frequency) {
		return nil, fmt.Errorf("unknown frequency %q: %w", frequency, core.ErrInvalidInput)
	}

	if frequency != FrequencyCustom {
		return Weekdays{}, nil
	}

	if len(days) == 0 {
		return nil, fmt.Errorf("custom frequency needs at least one day: %w", core.ErrInvalidInput)
	}

	out := make(Weekdays, 0, len(days))
	for _, d := range days {
		if d < 0 || d > 6 {
			return nil, fmt.Errorf("weekday %d out of range: %w", d, core.ErrInvalidInput)
		}
		if !slices.Contains(out, d) {
			out = append(out, d)
		}
	}
	slices.Sort(out)

	return out, nil
}
