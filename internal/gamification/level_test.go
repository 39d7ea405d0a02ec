// AngelaMos | 2026
// level_test.go

package gamification

import (
	"slices"
	"testing"
)

func TestLevel(t *testing.T) {
	tests := []struct {
		total int
		want  int
	}{
		{-50, 1},
		{0, 1},
		{99, 1},
		{100, 2},
		{199, 2},
		{450, 5},
		{10_000, 101},
	}

	for _, tt := range tests {
		if got := Level(tt.total); got != tt.want {
			t.Fatalf("Level(%d) = %d, want %d", tt.total, got, tt.want)
		}
	}
}

func TestLevelBadges(t *testing.T) {
	tests := []struct {
		level int
		want  []string
	}{
		{1, nil},
		{4, nil},
		{5, []string{"level_5"}},
		{24, []string{"level_5", "level_10"}},
		{50, []string{"level_5", "level_10", "level_25", "level_50"}},
	}

	for _, tt := range tests {
		if got := LevelBadges(tt.level); !slices.Equal(got, tt.want) {
			t.Fatalf("LevelBadges(%d) = %v, want %v", tt.level, got, tt.want)
		}
	}
}

func TestStreakAchievement(t *testing.T) {
	tests := []struct {
		streak int
		want   string
		ok     bool
	}{
		{6, "", false},
		{7, "streak_7", true},
		{8, "", false},
		{30, "streak_30", true},
		{100, "streak_100", true},
		{101, "", false},
	}

	for _, tt := range tests {
		got, ok := StreakAchievement(tt.streak)
		if got != tt.want || ok != tt.ok {
			t.Fatalf("StreakAchievement(%d) = (%q, %v), want (%q, %v)",
				tt.streak, got, ok, tt.want, tt.ok)
		}
	}
}

func TestSetTotalClampsAndKeepsBadges(t *testing.T) {
	p := &Profile{}

	p.SetTotal(520)
	if p.Level != 6 {
		t.Fatalf("Level = %d, want 6", p.Level)
	}
	if !p.Badges.Has("level_5") {
		t.Fatalf("Badges = %v, want level_5", p.Badges)
	}

	p.SetTotal(-30)
	if p.TotalXP != 0 || p.Level != 1 {
		t.Fatalf("after negative total: TotalXP = %d, Level = %d, want 0, 1", p.TotalXP, p.Level)
	}
	if !p.Badges.Has("level_5") {
		t.Fatal("level badge was revoked when XP dropped")
	}
}

func TestPageBounds(t *testing.T) {
	tests := []struct {
		page, size         int
		wantPage, wantSize int
	}{
		{0, 0, 1, 20},
		{3, 50, 3, 50},
		{-1, 101, 1, 20},
	}

	for _, tt := range tests {
		page, size := PageBounds(tt.page, tt.size)
		if page != tt.wantPage || size != tt.wantSize {
			t.Fatalf("PageBounds(%d, %d) = (%d, %d), want (%d, %d)",
				tt.page, tt.size, page, size, tt.wantPage, tt.wantSize)
		}
	}
}
