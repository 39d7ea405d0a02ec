// AngelaMos | 2026
// stats.go

package habit

import (
	"math"
	"time"

	"github.com/carterperez-dev/habit-ledger/internal/core"
)

type WeekdayStat struct {
	Day       string `json:"day"`
	Total     int    `json:"total"`
	Completed int    `json:"completed"`
	Rate      int    `json:"rate"`
}

type Stats struct {
	CompletionRate int           `json:"completion_rate"`
	TotalLogs      int           `json:"total_logs"`
	CompletedCount int           `json:"completed_count"`
	BestDay        string        `json:"best_day"`
	WorstDay       string        `json:"worst_day"`
	Weekdays       []WeekdayStat `json:"weekdays"`
	StreakCurrent  int           `json:"streak_current"`
	StreakLongest  int           `json:"streak_longest"`
}

// ComputeStats aggregates a habit's logs. Best and worst day only consider
// weekdays with at least one log and keep the first weekday, Sunday
// through Saturday, on ties.
func ComputeStats(logs []Log) Stats {
	var total, completed [7]int

	stats := Stats{TotalLogs: len(logs)}

	for _, l := range logs {
		day, err := core.ParseDate(l.Date)
		if err != nil {
			continue
		}
		wd := day.Weekday()
		total[wd]++
		if l.Status == StatusCompleted {
			completed[wd]++
			stats.CompletedCount++
		}
	}

	stats.CompletionRate = percent(stats.CompletedCount, stats.TotalLogs)

	bestRate, worstRate := -1.0, 101.0
	stats.Weekdays = make([]WeekdayStat, 0, 7)

	for d := time.Sunday; d <= time.Saturday; d++ {
		ws := WeekdayStat{
			Day:       d.String(),
			Total:     total[d],
			Completed: completed[d],
			Rate:      percent(completed[d], total[d]),
		}
		stats.Weekdays = append(stats.Weekdays, ws)

		if total[d] == 0 {
			continue
		}

		rate := float64(completed[d]) / float64(total[d]) * 100
		if rate > bestRate {
			bestRate = rate
			stats.BestDay = ws.Day
		}
		if rate < worstRate {
			worstRate = rate
			stats.WorstDay = ws.Day
		}
	}

	return stats
}

func percent(part, whole int) int {
	if whole == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(whole) * 100))
}

// DailyScore is the share of habits due on date that were completed,
// 0 to 100. Nothing due scores 0.
func DailyScore(habits []Habit, logs []Log, date string, loc *time.Location) int {
	day, err := core.ParseDate(date)
	if err != nil {
		return 0
	}

	done := make(map[string]bool, len(logs))
	for _, l := range logs {
		if l.Date == date && l.Status == StatusCompleted {
			done[l.HabitID] = true
		}
	}

	var due, completed int
	for i := range habits {
		h := &habits[i]
		if !h.IsActive || !h.IsDueOn(day) || !h.ExistedOn(date, loc) {
			continue
		}
		due++
		if done[h.ID] {
			completed++
		}
	}

	return percent(completed, due)
}
