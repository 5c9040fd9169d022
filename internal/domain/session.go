// Package domain contains the core business entities for Gatekeeper.
package domain

import (
	"time"
)

// Session is an ephemeral binding between a request context and exactly
// one user. It is created by a successful login and destroyed by logout
// or store-side expiry.
type Session struct {
	// Token is the opaque session identifier carried by the client cookie.
	Token string `json:"token"`

	// UserID is the ID of the authenticated user.
	UserID int64 `json:"user_id"`

	// CreatedAt is the timestamp when the session was established.
	CreatedAt time.Time `json:"created_at"`

	// ExpiresAt is the timestamp after which the session is invalid.
	ExpiresAt time.Time `json:"expires_at"`

	// IPAddress is the remote address observed at login.
	IPAddress string `json:"ip_address,omitempty"`

	// UserAgent is the User-Agent header observed at login.
	UserAgent string `json:"user_agent,omitempty"`
}

// Expired reports whether the session has passed its expiry time.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && now.After(s.ExpiresAt)
}
