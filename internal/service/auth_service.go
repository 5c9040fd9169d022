package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/prn-tf/gatekeeper/internal/domain"
	"github.com/prn-tf/gatekeeper/internal/pkg/crypto"
	"github.com/prn-tf/gatekeeper/internal/repository"
	"github.com/prn-tf/gatekeeper/internal/session"
)

// AuthService handles login, logout, and session-to-identity resolution.
type AuthService struct {
	userRepo repository.UserRepository
	sessions *session.Manager
	logger   zerolog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repository.UserRepository, sessions *session.Manager, logger zerolog.Logger) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		sessions: sessions,
		logger:   logger.With().Str("service", "auth").Logger(),
	}
}

// LoginInput contains the data needed to establish a session.
type LoginInput struct {
	Username  string
	Password  string
	IPAddress string
	UserAgent string
}

// Login verifies credentials and establishes a session.
// Returns ErrInvalidCredentials without revealing whether the username
// exists.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*domain.Session, error) {
	if input.Username == "" || input.Password == "" {
		return nil, ErrInvalidInput
	}

	user, err := s.userRepo.GetByUsername(ctx, input.Username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Debug().Str("username", input.Username).Msg("user not found during authentication")
			return nil, ErrInvalidCredentials
		}
		s.logger.Error().Err(err).Str("username", input.Username).Msg("failed to look up user")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if !crypto.VerifyPassword(input.Password, user.PasswordHash) {
		s.logger.Debug().Str("username", input.Username).Msg("invalid password during authentication")
		return nil, ErrInvalidCredentials
	}

	sess, err := s.sessions.Create(ctx, user.ID, input.IPAddress, input.UserAgent)
	if err != nil {
		s.logger.Error().Err(err).Int64("user_id", user.ID).Msg("failed to create session")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().
		Int64("user_id", user.ID).
		Str("username", user.Username).
		Msg("user logged in")

	return sess, nil
}

// Logout destroys the session for the given token. Idempotent.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	if err := s.sessions.Destroy(ctx, token); err != nil {
		s.logger.Error().Err(err).Msg("failed to destroy session")
		return fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return nil
}

// Identify resolves a session token to the user it is bound to.
// Returns domain.ErrSessionNotFound for unknown or expired tokens, and for
// sessions whose user has been deleted in the meantime.
func (s *AuthService) Identify(ctx context.Context, token string) (*domain.User, error) {
	sess, err := s.sessions.Lookup(ctx, token)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// User deleted out from under a live session: drop the session.
			_ = s.sessions.Destroy(ctx, token)
			return nil, domain.ErrSessionNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	return user, nil
}
