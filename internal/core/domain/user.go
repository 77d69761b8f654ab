package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Role selects which dashboard variant a user sees.
type Role string

const (
	RoleCommuter    Role = "commuter"
	RoleBusiness    Role = "business"
	RoleCityPlanner Role = "cityPlanner"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleCommuter, RoleBusiness, RoleCityPlanner:
		return true
	}
	return false
}

// User is a commuter account together with its running token and impact totals.
type User struct {
	ID             int64           `json:"id"`
	Username       string          `json:"username"`
	PasswordHash   string          `json:"-"`
	Email          string          `json:"email,omitempty"`
	ProfilePicture string          `json:"profilePicture,omitempty"`
	GoogleID       string          `json:"googleId,omitempty"`
	Role           Role            `json:"role"`
	Tokens         int64           `json:"tokens"`
	CO2Saved       decimal.Decimal `json:"co2Saved"`
	EnergySaved    decimal.Decimal `json:"energySaved"`
	CreatedAt      time.Time       `json:"createdAt"`
}

// UserPatch carries the fields of a partial user update. Nil fields are left as is.
type UserPatch struct {
	Email          *string
	ProfilePicture *string
	GoogleID       *string
	Role           *Role
	Tokens         *int64
	CO2Saved       *decimal.Decimal
	EnergySaved    *decimal.Decimal
}

// Apply merges p into u.
func (p UserPatch) Apply(u *User) {
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.ProfilePicture != nil {
		u.ProfilePicture = *p.ProfilePicture
	}
	if p.GoogleID != nil {
		u.GoogleID = *p.GoogleID
	}
	if p.Role != nil {
		u.Role = *p.Role
	}
	if p.Tokens != nil {
		u.Tokens = *p.Tokens
	}
	if p.CO2Saved != nil {
		u.CO2Saved = *p.CO2Saved
	}
	if p.EnergySaved != nil {
		u.EnergySaved = *p.EnergySaved
	}
}

// SameUsername compares usernames case-insensitively.
func SameUsername(a, b string) bool {
	return strings.EqualFold(a, b)
}

// SameEmail compares emails case-insensitively. Empty emails never match.
func SameEmail(a, b string) bool {
	return a != "" && b != "" && strings.EqualFold(a, b)
}
