package domain

import "time"

// Role is declared on every user but not consulted by ownership checks.
type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleAdmin
}

// User is the local record bound 1:1 to an identity-provider subject.
type User struct {
	ID             string    `json:"id"`
	AuthProviderID string    `json:"authProviderId"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	Role           Role      `json:"role"`
	SchoolID       string    `json:"schoolId,omitempty"`
	OEN            string    `json:"oen,omitempty"`
	CreatedAt      time.Time `json:"createdAt"`
	UpdatedAt      time.Time `json:"updatedAt"`
}
