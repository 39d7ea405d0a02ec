// AngelaMos | 2026
// dto.go

package gamification

import (
	"time"
)

type ProfileResponse struct {
	TotalXP       int      `json:"total_xp"`
	Level         int      `json:"level"`
	XPIntoLevel   int      `json:"xp_into_level"`
	XPToNextLevel int      `json:"xp_to_next_level"`
	Achievements  []string `json:"achievements"`
	Badges        []string `json:"badges"`
}

type XPEntryResponse struct {
	ID          string    `json:"id"`
	Amount      int       `json:"amount"`
	Source      string    `json:"source"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

type DailyLoginResponse struct {
	Granted bool            `json:"granted"`
	XP      int             `json:"xp"`
	Profile ProfileResponse `json:"profile"`
}

func ToProfileResponse(p *Profile) ProfileResponse {
	into := p.TotalXP % XPPerLevel

	achievements := []string(p.Achievements)
	if achievements == nil {
		achievements = []string{}
	}
	badges := []string(p.Badges)
	if badges == nil {
		badges = []string{}
	}

	return ProfileResponse{
		TotalXP:       p.TotalXP,
		Level:         p.Level,
		XPIntoLevel:   into,
		XPToNextLevel: XPPerLevel - into,
		Achievements:  achievements,
		Badges:        badges,
	}
}

func ToXPEntryResponses(entries []XPEntry) []XPEntryResponse {
	out := make([]XPEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, XPEntryResponse{
			ID:          e.ID,
			Amount:      e.Amount,
			Source:      e.Source,
			Description: e.Description,
			CreatedAt:   e.CreatedAt,
		})
	}
	return out
}

// PageBounds clamps history paging to page >= 1 and 1..100 entries.
func PageBounds(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}
