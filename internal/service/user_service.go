package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/prn-tf/gatekeeper/internal/auth"
	"github.com/prn-tf/gatekeeper/internal/domain"
	"github.com/prn-tf/gatekeeper/internal/pkg/crypto"
	"github.com/prn-tf/gatekeeper/internal/repository"
)

// UserService handles user management operations. Every method takes the
// acting identity and consults the authorization policy before touching
// the repository.
type UserService struct {
	userRepo   repository.UserRepository
	bcryptCost int
	logger     zerolog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repository.UserRepository, bcryptCost int, logger zerolog.Logger) *UserService {
	return &UserService{
		userRepo:   userRepo,
		bcryptCost: bcryptCost,
		logger:     logger.With().Str("service", "user").Logger(),
	}
}

// Get retrieves a user by ID. Any authenticated actor may view any user.
func (s *UserService) Get(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error().Err(err).Int64("user_id", id).Msg("failed to get user")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return user, nil
}

// List returns all users. Requires admin privilege.
func (s *UserService) List(ctx context.Context, actor auth.Actor) ([]*domain.User, error) {
	if !auth.CanListUsers(actor) {
		return nil, ErrAdminRequired
	}

	users, err := s.userRepo.List(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list users")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return users, nil
}

// CreateUserInput contains the data needed to create a new user.
type CreateUserInput struct {
	Username string
	Password string
	Role     domain.Role
}

// Create creates a new user account. Requires admin privilege; the assigned
// role is forced to the base tier unless the actor is a master.
func (s *UserService) Create(ctx context.Context, actor auth.Actor, input CreateUserInput) (*domain.User, error) {
	if !auth.CanCreateUser(actor) {
		return nil, ErrAdminRequired
	}

	if input.Username == "" || input.Password == "" {
		return nil, ErrInvalidInput
	}
	if input.Role != "" && !input.Role.Valid() {
		return nil, ErrInvalidRole
	}

	// Friendly pre-check; the unique constraint is the authoritative guard.
	exists, err := s.userRepo.ExistsByUsername(ctx, input.Username)
	if err != nil {
		s.logger.Error().Err(err).Str("username", input.Username).Msg("failed to check username existence")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	if exists {
		return nil, ErrUserAlreadyExists
	}

	passwordHash, err := crypto.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to hash password")
		return nil, fmt.Errorf("%w: failed to hash password", ErrInternalError)
	}

	role := auth.NewUserRole(actor, input.Role)
	user := domain.NewUser(input.Username, passwordHash, role)

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			// Lost the check-then-insert race.
			return nil, ErrUserAlreadyExists
		}
		s.logger.Error().Err(err).Str("username", input.Username).Msg("failed to create user")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().
		Int64("user_id", user.ID).
		Str("username", user.Username).
		Str("role", user.Role.String()).
		Int64("actor_id", actor.ID).
		Msg("user created")

	return user, nil
}

// UpdateUserInput contains the fields to change on a user. Pointer fields
// distinguish an absent field from an explicit empty value.
type UpdateUserInput struct {
	Username *string
	Password *string
	Role     *string
}

// Update applies field changes to a user. Field-level checks are
// independent: username and password changes permitted by policy are
// persisted even when the same request carries a role change the actor may
// not make; the role denial is then reported as ErrRoleChangeDenied rather
// than silently dropped.
func (s *UserService) Update(ctx context.Context, actor auth.Actor, id int64, input UpdateUserInput) (*domain.User, error) {
	if !auth.CanUpdateUser(actor, id) {
		return nil, ErrPermissionDenied
	}

	if input.Username != nil {
		if *input.Username == "" {
			return nil, ErrInvalidInput
		}
		if auth.IsSelfRename(actor, id, *input.Username) {
			return nil, ErrSelfRename
		}
	}
	if input.Password != nil && *input.Password == "" {
		return nil, ErrInvalidInput
	}
	if input.Role != nil && !domain.Role(*input.Role).Valid() {
		return nil, ErrInvalidRole
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error().Err(err).Int64("user_id", id).Msg("failed to get user")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	changed := false
	if input.Username != nil && *input.Username != user.Username {
		user.Username = *input.Username
		changed = true
	}
	if input.Password != nil {
		passwordHash, err := crypto.HashPassword(*input.Password, s.bcryptCost)
		if err != nil {
			s.logger.Error().Err(err).Msg("failed to hash password")
			return nil, fmt.Errorf("%w: failed to hash password", ErrInternalError)
		}
		user.PasswordHash = passwordHash
		changed = true
	}

	roleDenied := false
	if input.Role != nil {
		if auth.CanChangeRole(actor) {
			user.Role = domain.Role(*input.Role)
			changed = true
		} else {
			roleDenied = true
		}
	}

	if changed {
		if err := s.userRepo.Update(ctx, user); err != nil {
			switch {
			case errors.Is(err, repository.ErrConflict):
				return nil, ErrUserAlreadyExists
			case errors.Is(err, repository.ErrNotFound):
				return nil, ErrUserNotFound
			default:
				s.logger.Error().Err(err).Int64("user_id", id).Msg("failed to update user")
				return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
			}
		}

		s.logger.Info().
			Int64("user_id", user.ID).
			Int64("actor_id", actor.ID).
			Msg("user updated")
	}

	if roleDenied {
		return nil, ErrRoleChangeDenied
	}
	return user, nil
}

// Delete removes a user account. Requires admin privilege; self-deletion
// is always denied, and deleting an admin or master requires a master.
func (s *UserService) Delete(ctx context.Context, actor auth.Actor, id int64) error {
	if !auth.CanDeleteUser(actor) {
		return ErrAdminRequired
	}
	if auth.IsSelfDelete(actor, id) {
		return ErrSelfDelete
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		s.logger.Error().Err(err).Int64("user_id", id).Msg("failed to get user")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if !auth.CanDeleteTarget(actor, user.Role) {
		return ErrTierProtected
	}

	if err := s.userRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		s.logger.Error().Err(err).Int64("user_id", id).Msg("failed to delete user")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().
		Int64("user_id", id).
		Int64("actor_id", actor.ID).
		Msg("user deleted")

	return nil
}

// EnsureSeedUser creates the bootstrap master account if no user with the
// seed username exists, so a fresh deployment is never locked out.
func (s *UserService) EnsureSeedUser(ctx context.Context, username, password string) error {
	exists, err := s.userRepo.ExistsByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("failed to check seed user: %w", err)
	}
	if exists {
		return nil
	}

	passwordHash, err := crypto.HashPassword(password, s.bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash seed password: %w", err)
	}

	user := domain.NewUser(username, passwordHash, domain.RoleMaster)
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			// Another instance seeded first.
			return nil
		}
		return fmt.Errorf("failed to create seed user: %w", err)
	}

	s.logger.Info().
		Int64("user_id", user.ID).
		Str("username", user.Username).
		Msg("seed master account created")

	return nil
}
