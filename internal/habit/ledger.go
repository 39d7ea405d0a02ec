// AngelaMos | 2026
// ledger.go

package habit

const (
	BaseCompletionXP = 10
	WeekStreakBonus  = 5
	MonthStreakBonus = 10
	UncompleteXP     = -BaseCompletionXP
)

// CompletionXP is the award for a completion that brings the streak to
// newStreak.
func CompletionXP(newStreak int) int {
	xp := BaseCompletionXP
	if newStreak >= 7 {
		xp += WeekStreakBonus
	}
	if newStreak >= 30 {
		xp += MonthStreakBonus
	}
	return xp
}

// Complete extends the streak by one and returns the XP earned.
func (h *Habit) Complete() int {
	h.StreakCurrent++
	if h.StreakCurrent > h.StreakLongest {
		h.StreakLongest = h.StreakCurrent
	}
	return CompletionXP(h.StreakCurrent)
}

// Uncomplete takes one day off the streak. The longest streak is kept.
func (h *Habit) Uncomplete() {
	if h.StreakCurrent > 0 {
		h.StreakCurrent--
	}
}

// BreakStreak resets the current streak after a miss.
func (h *Habit) BreakStreak() {
	h.StreakCurrent = 0
}

// ToggleResult is what toggleComplete reports to the caller. Streak is
// nil when the toggle removed a completion.
type ToggleResult struct {
	Action   string `json:"action"`
	XPChange int    `json:"xp_change"`
	Streak   *int   `json:"streak,omitempty"`
}

type SkipResult struct {
	Action string `json:"action"`
	Streak int    `json:"streak"`
}
