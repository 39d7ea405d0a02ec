// AngelaMos | 2026
// level.go

package gamification

import (
	"fmt"
)

const XPPerLevel = 100

// Level is floor(totalXP / 100) + 1. Negative totals count as zero.
func Level(totalXP int) int {
	if totalXP < 0 {
		totalXP = 0
	}
	return totalXP/XPPerLevel + 1
}

var levelBadgeThresholds = []int{5, 10, 25, 50}

// LevelBadges lists every level badge earned at or below level.
func LevelBadges(level int) []string {
	var badges []string
	for _, threshold := range levelBadgeThresholds {
		if level >= threshold {
			badges = append(badges, fmt.Sprintf("level_%d", threshold))
		}
	}
	return badges
}

var streakMilestones = []int{7, 30, 100}

// StreakAchievement names the achievement unlocked when a streak reaches
// exactly streak, if any.
func StreakAchievement(streak int) (string, bool) {
	for _, m := range streakMilestones {
		if streak == m {
			return fmt.Sprintf("streak_%d", m), true
		}
	}
	return "", false
}
