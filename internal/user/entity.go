// AngelaMos | 2026
// entity.go

package user

import (
	"time"
)

type User struct {
	ID            string     `db:"id"`
	Email         string     `db:"email"`
	PasswordHash  string     `db:"password_hash"`
	Name          string     `db:"name"`
	Role          string     `db:"role"`
	Plan          string     `db:"plan"`
	Timezone      string     `db:"timezone"`
	StreakFreezes int        `db:"streak_freezes"`
	TokenVersion  int        `db:"token_version"`
	CreatedAt     time.Time  `db:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"`
	DeletedAt     *time.Time `db:"deleted_at"`
}

func (u *User) IsDeleted() bool {
	return u.DeletedAt != nil
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

const (
	PlanFree     = "free"
	PlanPro      = "pro"
	PlanLifetime = "lifetime"
)

const DefaultTimezone = "UTC"

func IsValidPlan(plan string) bool {
	switch plan {
	case PlanFree, PlanPro, PlanLifetime:
		return true
	}
	return false
}
