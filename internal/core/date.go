// AngelaMos | 2026
// date.go

package core

import (
	"fmt"
	"time"
)

// DateLayout is the calendar-day format used on the wire and in logs.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD calendar day as midnight UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, ErrInvalidInput)
	}
	return t, nil
}

// AddDays shifts a valid YYYY-MM-DD day by n days.
func AddDays(date string, n int) (string, error) {
	t, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	return t.AddDate(0, 0, n).Format(DateLayout), nil
}

// DayIn returns the calendar day of now in loc.
func DayIn(now time.Time, loc *time.Location) string {
	return now.In(loc).Format(DateLayout)
}
