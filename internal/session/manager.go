// Package session provides session lifecycle management for Gatekeeper.
// Sessions are kept in a pluggable Store: an in-memory map for single-node
// deployments or Redis when sessions must be shared across instances.
package session

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/prn-tf/gatekeeper/internal/domain"
)

// Store defines the backing storage for sessions.
type Store interface {
	// Save persists a session until its expiry.
	Save(ctx context.Context, sess *domain.Session) error

	// Get retrieves a session by token.
	// Returns domain.ErrSessionNotFound for unknown or expired tokens.
	Get(ctx context.Context, token string) (*domain.Session, error)

	// Delete removes a session by token. Deleting an absent token is not
	// an error.
	Delete(ctx context.Context, token string) error
}

// Manager creates, resolves, and destroys sessions.
type Manager struct {
	store  Store
	ttl    time.Duration
	logger zerolog.Logger
}

// NewManager creates a new session Manager.
func NewManager(store Store, ttl time.Duration, logger zerolog.Logger) *Manager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{
		store:  store,
		ttl:    ttl,
		logger: logger.With().Str("component", "session").Logger(),
	}
}

// Create establishes a new session for the given user.
func (m *Manager) Create(ctx context.Context, userID int64, ipAddress, userAgent string) (*domain.Session, error) {
	now := time.Now().UTC()
	sess := &domain.Session{
		Token:     uuid.NewString(),
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}

	if err := m.store.Save(ctx, sess); err != nil {
		return nil, err
	}

	m.logger.Info().
		Int64("user_id", userID).
		Time("expires_at", sess.ExpiresAt).
		Msg("session created")

	return sess, nil
}

// Lookup resolves a token to its session.
// Returns domain.ErrSessionNotFound for unknown or expired tokens.
func (m *Manager) Lookup(ctx context.Context, token string) (*domain.Session, error) {
	sess, err := m.store.Get(ctx, token)
	if err != nil {
		return nil, err
	}
	if sess.Expired(time.Now().UTC()) {
		// Expired entry still present in the store: clean it up lazily.
		_ = m.store.Delete(ctx, token)
		return nil, domain.ErrSessionNotFound
	}
	return sess, nil
}

// Destroy removes a session. Destroying an unknown token succeeds.
func (m *Manager) Destroy(ctx context.Context, token string) error {
	if err := m.store.Delete(ctx, token); err != nil {
		return err
	}
	m.logger.Debug().Msg("session destroyed")
	return nil
}

// TTL returns the configured session lifetime.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}
