// Package domain contains the core business entities for Gatekeeper.
// These are pure Go structs with no external dependencies, representing
// the fundamental concepts of the authentication service.
package domain

import (
	"time"
)

// Role is the privilege tier of a user account.
// Ordering of privilege: user < admin < master.
type Role string

const (
	// RoleUser is the default tier with no administrative rights.
	RoleUser Role = "user"

	// RoleAdmin may list, create, update, and delete regular users.
	RoleAdmin Role = "admin"

	// RoleMaster may additionally assign roles and delete admins/masters.
	RoleMaster Role = "master"
)

// tier maps roles onto a comparable ordering.
// Unknown roles map to 0 and therefore compare below every valid role.
func (r Role) tier() int {
	switch r {
	case RoleUser:
		return 1
	case RoleAdmin:
		return 2
	case RoleMaster:
		return 3
	default:
		return 0
	}
}

// AtLeast reports whether r carries at least the privilege of other.
func (r Role) AtLeast(other Role) bool {
	return r.tier() >= other.tier()
}

// Valid reports whether r is one of the three known tiers.
func (r Role) Valid() bool {
	return r.tier() > 0
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// User represents a registered account in the system.
type User struct {
	// ID is the unique identifier for the user (auto-generated).
	ID int64 `json:"id"`

	// Username is the unique username for login and display.
	// Uniqueness is case-sensitive.
	Username string `json:"username"`

	// PasswordHash is the bcrypt hash of the user's password.
	// This should never be exposed in API responses.
	PasswordHash string `json:"-"`

	// Role is the privilege tier of the account.
	Role Role `json:"role"`

	// CreatedAt is the timestamp when the user was created.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is the timestamp when the user was last updated.
	UpdatedAt time.Time `json:"updated_at"`
}

// NewUser creates a new User with the given credentials and role.
func NewUser(username, passwordHash string, role Role) *User {
	now := time.Now().UTC()
	return &User{
		Username:     username,
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
