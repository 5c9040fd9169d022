package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/prn-tf/gatekeeper/internal/auth"
	"github.com/prn-tf/gatekeeper/internal/domain"
	"github.com/prn-tf/gatekeeper/internal/pkg/crypto"
	"github.com/prn-tf/gatekeeper/internal/repository"
)

func newTestUserService(t *testing.T) (*UserService, *MockUserRepository) {
	t.Helper()
	repo := NewMockUserRepository()
	return NewUserService(repo, bcrypt.MinCost, zerolog.Nop()), repo
}

// seedUser inserts a user directly into the repository and returns it.
func seedUser(t *testing.T, repo *MockUserRepository, username string, role domain.Role) *domain.User {
	t.Helper()
	hash, err := crypto.HashPassword("password", bcrypt.MinCost)
	require.NoError(t, err)
	user := domain.NewUser(username, hash, role)
	require.NoError(t, repo.Create(context.Background(), user))
	return user
}

func actorFor(u *domain.User) auth.Actor {
	return auth.Actor{ID: u.ID, Username: u.Username, Role: u.Role}
}

func TestUserService_Get(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestUserService(t)
	bob := seedUser(t, repo, "bob", domain.RoleUser)

	got, err := svc.Get(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, "bob", got.Username)

	_, err = svc.Get(ctx, 9999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestUserService_List(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestUserService(t)
	bob := seedUser(t, repo, "bob", domain.RoleUser)
	alice := seedUser(t, repo, "alice", domain.RoleAdmin)

	t.Run("plain user is denied", func(t *testing.T) {
		_, err := svc.List(ctx, actorFor(bob))
		assert.ErrorIs(t, err, ErrAdminRequired)
	})

	t.Run("admin sees everyone", func(t *testing.T) {
		users, err := svc.List(ctx, actorFor(alice))
		require.NoError(t, err)
		require.Len(t, users, 2)
		assert.Equal(t, "bob", users[0].Username)
		assert.Equal(t, "alice", users[1].Username)
	})
}

func TestUserService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("plain user is denied", func(t *testing.T) {
		svc, repo := newTestUserService(t)
		bob := seedUser(t, repo, "bob", domain.RoleUser)

		_, err := svc.Create(ctx, actorFor(bob), CreateUserInput{Username: "eve", Password: "pw"})
		assert.ErrorIs(t, err, ErrAdminRequired)
	})

	t.Run("admin creates a base-tier user", func(t *testing.T) {
		svc, repo := newTestUserService(t)
		alice := seedUser(t, repo, "alice", domain.RoleAdmin)

		user, err := svc.Create(ctx, actorFor(alice), CreateUserInput{Username: "carol", Password: "pw"})
		require.NoError(t, err)
		assert.Equal(t, domain.RoleUser, user.Role)
		assert.NotZero(t, user.ID)
		assert.True(t, crypto.VerifyPassword("pw", user.PasswordHash))
	})

	t.Run("admin requesting an elevated role is forced down", func(t *testing.T) {
		svc, repo := newTestUserService(t)
		alice := seedUser(t, repo, "alice", domain.RoleAdmin)

		user, err := svc.Create(ctx, actorFor(alice), CreateUserInput{
			Username: "carol",
			Password: "pw",
			Role:     domain.RoleAdmin,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.RoleUser, user.Role)
	})

	t.Run("master may assign any role", func(t *testing.T) {
		svc, repo := newTestUserService(t)
		root := seedUser(t, repo, "root", domain.RoleMaster)

		user, err := svc.Create(ctx, actorFor(root), CreateUserInput{
			Username: "carol",
			Password: "pw",
			Role:     domain.RoleAdmin,
		})
		require.NoError(t, err)
		assert.Equal(t, domain.RoleAdmin, user.Role)
	})

	t.Run("duplicate username is rejected", func(t *testing.T) {
		svc, repo := newTestUserService(t)
		alice := seedUser(t, repo, "alice", domain.RoleAdmin)
		seedUser(t, repo, "bob", domain.RoleUser)

		_, err := svc.Create(ctx, actorFor(alice), CreateUserInput{Username: "bob", Password: "pw"})
		assert.ErrorIs(t, err, ErrUserAlreadyExists)
	})

	t.Run("missing fields are rejected", func(t *testing.T) {
		svc, repo := newTestUserService(t)
		alice := seedUser(t, repo, "alice", domain.RoleAdmin)

		_, err := svc.Create(ctx, actorFor(alice), CreateUserInput{Username: "", Password: "pw"})
		assert.ErrorIs(t, err, ErrInvalidInput)

		_, err = svc.Create(ctx, actorFor(alice), CreateUserInput{Username: "carol", Password: ""})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("unknown role is rejected", func(t *testing.T) {
		svc, repo := newTestUserService(t)
		root := seedUser(t, repo, "root", domain.RoleMaster)

		_, err := svc.Create(ctx, actorFor(root), CreateUserInput{
			Username: "carol",
			Password: "pw",
			Role:     "superuser",
		})
		assert.ErrorIs(t, err, ErrInvalidRole)
	})

	t.Run("insert conflict after a passing pre-check is reported as a duplicate", func(t *testing.T) {
		// The existence pre-check sees a free username, then the insert loses
		// to a concurrent writer and the unique constraint fires.
		svc, repo := newTestUserService(t)
		alice := seedUser(t, repo, "alice", domain.RoleAdmin)
		repo.CreateErr = repository.ErrConflict

		_, err := svc.Create(ctx, actorFor(alice), CreateUserInput{Username: "carol", Password: "pw"})
		assert.ErrorIs(t, err, ErrUserAlreadyExists)
	})
}

func TestUserService_ConcurrentCreate(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestUserService(t)
	alice := seedUser(t, repo, "alice", domain.RoleAdmin)

	const writers = 8

	var wg sync.WaitGroup
	errs := make([]error, writers)

	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Create(ctx, actorFor(alice), CreateUserInput{
				Username: "carol",
				Password: "pw",
			})
		}(i)
	}
	wg.Wait()

	// Exactly one writer wins; every loser sees a duplicate error whether it
	// failed the pre-check or the insert itself.
	created := 0
	for _, err := range errs {
		if err == nil {
			created++
			continue
		}
		assert.ErrorIs(t, err, ErrUserAlreadyExists)
	}
	assert.Equal(t, 1, created)

	users, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "carol", users[1].Username)
}

func TestUserService_Update(t *testing.T) {
	ctx := context.Background()
	str := func(s string) *string { return &s }

	t.Run("user updates own password", func(t *testing.T) {
		svc, repo := newTestUserService(t)
		bob := seedUser(t, repo, "bob", domain.RoleUser)

		updated, err := svc.Update(ctx, actorFor(bob), bob.ID, UpdateUserInput{Password: str("newpw")})
		require.NoError(t, err)
		assert.True(t, crypto.VerifyPassword("newpw", updated.PasswordHash))
	})

	t.Run("user may not update someone else", func(t *testing.T) {
		svc, repo := newTestUserService(t)
		bob := seedUser(t, repo, "bob", domain.RoleUser)
		carol := seedUser(t, repo, "carol", domain.RoleUser)

		_, err := svc.Update(ctx, actorFor(bob), carol.ID, UpdateUserInput{Password: str("pw")})
		assert.ErrorIs(t, err, ErrPermissionDenied)
	})

	t.Run("renaming yourself while logged in is rejected", func(t *testing.T) {
		svc, repo := newTestUserService(t)
		bob := seedUser(t, repo, "bob", domain.RoleUser)

		_, err := svc.Update(ctx, actorFor(bob), bob.ID, UpdateUserInput{Username: str("robert")})
		assert.ErrorIs(t, err, ErrSelfRename)

		// Record stays untouched.
		got, err := repo.GetByID(ctx, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, "bob", got.Username)
	})

	t.Run("resubmitting your current username is fine", func(t *testing.T) {
		svc, repo := newTestUserService(t)
		bob := seedUser(t, repo, "bob", domain.RoleUser)

		_, err := svc.Update(ctx, actorFor(bob), bob.ID, UpdateUserInput{
			Username: str("bob"),
			Password: str("newpw"),
		})
		assert.NoError(t, err)
	})

	t.Run("admin renames another user", func(t *testing.T) {
		svc, repo := newTestUserService(t)
		alice := seedUser(t, repo, "alice", domain.RoleAdmin)
		bob := seedUser(t, repo, "bob", domain.RoleUser)

		updated, err := svc.Update(ctx, actorFor(alice), bob.ID, UpdateUserInput{Username: str("robert")})
		require.NoError(t, err)
		assert.Equal(t, "robert", updated.Username)
	})

	t.Run("rename collision is rejected", func(t *testing.T) {
		svc, repo := newTestUserService(t)
		alice := seedUser(t, repo, "alice", domain.RoleAdmin)
		bob := seedUser(t, repo, "bob", domain.RoleUser)
		seedUser(t, repo, "carol", domain.RoleUser)

		_, err := svc.Update(ctx, actorFor(alice), bob.ID, UpdateUserInput{Username: str("carol")})
		assert.ErrorIs(t, err, ErrUserAlreadyExists)
	})

	t.Run("role change by admin is denied but other fields persist", func(t *testing.T) {
		svc, repo := newTestUserService(t)
		alice := seedUser(t, repo, "alice", domain.RoleAdmin)
		bob := seedUser(t, repo, "bob", domain.RoleUser)

		_, err := svc.Update(ctx, actorFor(alice), bob.ID, UpdateUserInput{
			Username: str("robert"),
			Role:     str("admin"),
		})
		assert.ErrorIs(t, err, ErrRoleChangeDenied)

		got, err := repo.GetByID(ctx, bob.ID)
		require.NoError(t, err)
		assert.Equal(t, "robert", got.Username)
		assert.Equal(t, domain.RoleUser, got.Role)
	})

	t.Run("master changes a role", func(t *testing.T) {
		svc, repo := newTestUserService(t)
		root := seedUser(t, repo, "root", domain.RoleMaster)
		bob := seedUser(t, repo, "bob", domain.RoleUser)

		updated, err := svc.Update(ctx, actorFor(root), bob.ID, UpdateUserInput{Role: str("admin")})
		require.NoError(t, err)
		assert.Equal(t, domain.RoleAdmin, updated.Role)
	})

	t.Run("empty field values are rejected", func(t *testing.T) {
		svc, repo := newTestUserService(t)
		bob := seedUser(t, repo, "bob", domain.RoleUser)

		_, err := svc.Update(ctx, actorFor(bob), bob.ID, UpdateUserInput{Username: str("")})
		assert.ErrorIs(t, err, ErrInvalidInput)

		_, err = svc.Update(ctx, actorFor(bob), bob.ID, UpdateUserInput{Password: str("")})
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("unknown role value is rejected", func(t *testing.T) {
		svc, repo := newTestUserService(t)
		root := seedUser(t, repo, "root", domain.RoleMaster)
		bob := seedUser(t, repo, "bob", domain.RoleUser)

		_, err := svc.Update(ctx, actorFor(root), bob.ID, UpdateUserInput{Role: str("superuser")})
		assert.ErrorIs(t, err, ErrInvalidRole)
	})

	t.Run("unknown target returns not found", func(t *testing.T) {
		svc, repo := newTestUserService(t)
		alice := seedUser(t, repo, "alice", domain.RoleAdmin)

		_, err := svc.Update(ctx, actorFor(alice), 9999, UpdateUserInput{Password: str("pw")})
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestUserService_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("plain user is denied", func(t *testing.T) {
		svc, repo := newTestUserService(t)
		bob := seedUser(t, repo, "bob", domain.RoleUser)
		carol := seedUser(t, repo, "carol", domain.RoleUser)

		err := svc.Delete(ctx, actorFor(bob), carol.ID)
		assert.ErrorIs(t, err, ErrAdminRequired)
	})

	t.Run("admin deletes a base-tier user", func(t *testing.T) {
		svc, repo := newTestUserService(t)
		alice := seedUser(t, repo, "alice", domain.RoleAdmin)
		bob := seedUser(t, repo, "bob", domain.RoleUser)

		require.NoError(t, svc.Delete(ctx, actorFor(alice), bob.ID))

		_, err := repo.GetByID(ctx, bob.ID)
		assert.Error(t, err)
	})

	t.Run("deleting yourself is rejected", func(t *testing.T) {
		svc, repo := newTestUserService(t)
		alice := seedUser(t, repo, "alice", domain.RoleAdmin)

		err := svc.Delete(ctx, actorFor(alice), alice.ID)
		assert.ErrorIs(t, err, ErrSelfDelete)
	})

	t.Run("admin may not delete another admin", func(t *testing.T) {
		svc, repo := newTestUserService(t)
		alice := seedUser(t, repo, "alice", domain.RoleAdmin)
		dave := seedUser(t, repo, "dave", domain.RoleAdmin)

		err := svc.Delete(ctx, actorFor(alice), dave.ID)
		assert.ErrorIs(t, err, ErrTierProtected)
	})

	t.Run("master deletes an admin", func(t *testing.T) {
		svc, repo := newTestUserService(t)
		root := seedUser(t, repo, "root", domain.RoleMaster)
		alice := seedUser(t, repo, "alice", domain.RoleAdmin)

		assert.NoError(t, svc.Delete(ctx, actorFor(root), alice.ID))
	})

	t.Run("unknown target returns not found", func(t *testing.T) {
		svc, repo := newTestUserService(t)
		alice := seedUser(t, repo, "alice", domain.RoleAdmin)

		err := svc.Delete(ctx, actorFor(alice), 9999)
		assert.ErrorIs(t, err, ErrUserNotFound)
	})
}

func TestUserService_RepositoryFailures(t *testing.T) {
	ctx := context.Background()
	errDB := errors.New("connection reset")

	t.Run("get", func(t *testing.T) {
		svc, repo := newTestUserService(t)
		repo.GetErr = errDB

		_, err := svc.Get(ctx, 1)
		assert.ErrorIs(t, err, ErrInternalError)
	})

	t.Run("list", func(t *testing.T) {
		svc, repo := newTestUserService(t)
		alice := seedUser(t, repo, "alice", domain.RoleAdmin)
		repo.ListErr = errDB

		_, err := svc.List(ctx, actorFor(alice))
		assert.ErrorIs(t, err, ErrInternalError)
	})

	t.Run("create", func(t *testing.T) {
		svc, repo := newTestUserService(t)
		alice := seedUser(t, repo, "alice", domain.RoleAdmin)
		repo.CreateErr = errDB

		_, err := svc.Create(ctx, actorFor(alice), CreateUserInput{Username: "carol", Password: "pw"})
		assert.ErrorIs(t, err, ErrInternalError)
	})

	t.Run("update", func(t *testing.T) {
		svc, repo := newTestUserService(t)
		bob := seedUser(t, repo, "bob", domain.RoleUser)
		repo.UpdateErr = errDB

		pw := "newpw"
		_, err := svc.Update(ctx, actorFor(bob), bob.ID, UpdateUserInput{Password: &pw})
		assert.ErrorIs(t, err, ErrInternalError)
	})

	t.Run("delete", func(t *testing.T) {
		svc, repo := newTestUserService(t)
		alice := seedUser(t, repo, "alice", domain.RoleAdmin)
		bob := seedUser(t, repo, "bob", domain.RoleUser)
		repo.DeleteErr = errDB

		err := svc.Delete(ctx, actorFor(alice), bob.ID)
		assert.ErrorIs(t, err, ErrInternalError)
	})
}

func TestUserService_EnsureSeedUser(t *testing.T) {
	ctx := context.Background()

	t.Run("creates master account on empty store", func(t *testing.T) {
		svc, repo := newTestUserService(t)

		require.NoError(t, svc.EnsureSeedUser(ctx, "admin", "admin"))

		user, err := repo.GetByUsername(ctx, "admin")
		require.NoError(t, err)
		assert.Equal(t, domain.RoleMaster, user.Role)
		assert.True(t, crypto.VerifyPassword("admin", user.PasswordHash))
	})

	t.Run("leaves an existing account alone", func(t *testing.T) {
		svc, repo := newTestUserService(t)
		existing := seedUser(t, repo, "admin", domain.RoleMaster)

		require.NoError(t, svc.EnsureSeedUser(ctx, "admin", "different"))

		user, err := repo.GetByUsername(ctx, "admin")
		require.NoError(t, err)
		assert.Equal(t, existing.PasswordHash, user.PasswordHash)
	})
}
