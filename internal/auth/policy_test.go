package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/prn-tf/gatekeeper/internal/domain"
)

var (
	plainUser = Actor{ID: 1, Username: "bob", Role: domain.RoleUser}
	admin     = Actor{ID: 2, Username: "alice", Role: domain.RoleAdmin}
	master    = Actor{ID: 3, Username: "root", Role: domain.RoleMaster}
)

func TestCanListUsers(t *testing.T) {
	assert.False(t, CanListUsers(plainUser))
	assert.True(t, CanListUsers(admin))
	assert.True(t, CanListUsers(master))
}

func TestCanCreateUser(t *testing.T) {
	assert.False(t, CanCreateUser(plainUser))
	assert.True(t, CanCreateUser(admin))
	assert.True(t, CanCreateUser(master))
}

func TestNewUserRole(t *testing.T) {
	tests := []struct {
		name      string
		actor     Actor
		requested domain.Role
		want      domain.Role
	}{
		{"admin requesting admin is forced down", admin, domain.RoleAdmin, domain.RoleUser},
		{"admin requesting master is forced down", admin, domain.RoleMaster, domain.RoleUser},
		{"admin requesting nothing", admin, "", domain.RoleUser},
		{"master may assign admin", master, domain.RoleAdmin, domain.RoleAdmin},
		{"master may assign master", master, domain.RoleMaster, domain.RoleMaster},
		{"master requesting nothing defaults", master, "", domain.RoleUser},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewUserRole(tt.actor, tt.requested))
		})
	}
}

func TestCanUpdateUser(t *testing.T) {
	// Owner may always touch its own record.
	assert.True(t, CanUpdateUser(plainUser, plainUser.ID))
	// A plain user may not touch anyone else.
	assert.False(t, CanUpdateUser(plainUser, admin.ID))
	// Admins and masters may touch anyone.
	assert.True(t, CanUpdateUser(admin, plainUser.ID))
	assert.True(t, CanUpdateUser(master, plainUser.ID))
}

func TestIsSelfRename(t *testing.T) {
	// Changing your own username while logged in is a rename.
	assert.True(t, IsSelfRename(plainUser, plainUser.ID, "robert"))
	// Re-submitting the current username is not.
	assert.False(t, IsSelfRename(plainUser, plainUser.ID, "bob"))
	// Renaming someone else is not a self-rename.
	assert.False(t, IsSelfRename(admin, plainUser.ID, "robert"))
	// An absent username field is not a rename.
	assert.False(t, IsSelfRename(plainUser, plainUser.ID, ""))
}

func TestCanChangeRole(t *testing.T) {
	assert.False(t, CanChangeRole(plainUser))
	assert.False(t, CanChangeRole(admin))
	assert.True(t, CanChangeRole(master))
}

func TestDeletePolicy(t *testing.T) {
	assert.False(t, CanDeleteUser(plainUser))
	assert.True(t, CanDeleteUser(admin))
	assert.True(t, CanDeleteUser(master))

	assert.True(t, IsSelfDelete(admin, admin.ID))
	assert.False(t, IsSelfDelete(admin, plainUser.ID))

	// Only a master may delete admins or masters.
	assert.True(t, CanDeleteTarget(admin, domain.RoleUser))
	assert.False(t, CanDeleteTarget(admin, domain.RoleAdmin))
	assert.False(t, CanDeleteTarget(admin, domain.RoleMaster))
	assert.True(t, CanDeleteTarget(master, domain.RoleAdmin))
	assert.True(t, CanDeleteTarget(master, domain.RoleMaster))
}

func TestRoleOrdering(t *testing.T) {
	assert.True(t, domain.RoleMaster.AtLeast(domain.RoleAdmin))
	assert.True(t, domain.RoleAdmin.AtLeast(domain.RoleUser))
	assert.False(t, domain.RoleUser.AtLeast(domain.RoleAdmin))
	assert.True(t, domain.RoleUser.AtLeast(domain.RoleUser))

	assert.True(t, domain.RoleUser.Valid())
	assert.False(t, domain.Role("superuser").Valid())
	assert.False(t, domain.Role("").Valid())
}
