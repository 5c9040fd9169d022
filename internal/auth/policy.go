// Package auth provides session authentication middleware and the
// authorization policy for Gatekeeper.
package auth

import (
	"github.com/prn-tf/gatekeeper/internal/domain"
)

// Actor is the identity performing a request, resolved from the active
// session by the middleware.
type Actor struct {
	// ID is the user ID of the authenticated account.
	ID int64

	// Username is the username bound at session resolution time.
	Username string

	// Role is the privilege tier of the account.
	Role domain.Role
}

// The policy functions below are pure: they never touch the store and
// never have side effects. Handlers call them with the resolved actor
// before performing any mutation.
//
// Every function assumes the actor is already authenticated; anonymous
// requests are rejected earlier by RequireSession.

// CanListUsers reports whether the actor may list all users.
func CanListUsers(actor Actor) bool {
	return actor.Role.AtLeast(domain.RoleAdmin)
}

// CanCreateUser reports whether the actor may create accounts.
func CanCreateUser(actor Actor) bool {
	return actor.Role.AtLeast(domain.RoleAdmin)
}

// NewUserRole resolves the role a created account receives. Only a master
// may assign a role; any other creator gets the requested role forced down
// to the base tier. An absent request (empty string) also yields the base
// tier for masters.
func NewUserRole(actor Actor, requested domain.Role) domain.Role {
	if actor.Role == domain.RoleMaster && requested != "" {
		return requested
	}
	return domain.RoleUser
}

// CanUpdateUser reports whether the actor may touch the target record at
// all: the owner may update itself, admins and masters may update anyone.
func CanUpdateUser(actor Actor, targetID int64) bool {
	if actor.ID == targetID {
		return true
	}
	return actor.Role.AtLeast(domain.RoleAdmin)
}

// IsSelfRename reports whether the update is an attempt by the actor to
// change its own username while authenticated as that username. Setting
// the username to its current value is not a rename.
func IsSelfRename(actor Actor, targetID int64, newUsername string) bool {
	return actor.ID == targetID && newUsername != "" && newUsername != actor.Username
}

// CanChangeRole reports whether the actor may change any role field.
// Reserved for masters.
func CanChangeRole(actor Actor) bool {
	return actor.Role == domain.RoleMaster
}

// CanDeleteUser reports whether the actor may delete accounts at all.
func CanDeleteUser(actor Actor) bool {
	return actor.Role.AtLeast(domain.RoleAdmin)
}

// IsSelfDelete reports whether the actor is targeting its own account.
// Deleting the account bound to the active session is always denied.
func IsSelfDelete(actor Actor, targetID int64) bool {
	return actor.ID == targetID
}

// CanDeleteTarget reports whether the actor's tier suffices for the
// target's tier: deleting an admin or master requires a master.
func CanDeleteTarget(actor Actor, targetRole domain.Role) bool {
	if targetRole.AtLeast(domain.RoleAdmin) {
		return actor.Role == domain.RoleMaster
	}
	return true
}
