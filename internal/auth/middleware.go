package auth

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/prn-tf/gatekeeper/internal/domain"
)

// IdentityResolver resolves a session token to the user it is bound to.
// Implemented by service.AuthService.
type IdentityResolver interface {
	// Identify returns the user behind the token, or
	// domain.ErrSessionNotFound for unknown/expired tokens.
	Identify(ctx context.Context, token string) (*domain.User, error)
}

// Sessions returns a middleware that resolves the session cookie into an
// Actor on the request context. Requests without a valid session pass
// through anonymously; rejection is left to RequireSession so that open
// endpoints (login, health) can still observe the current identity.
func Sessions(resolver IdentityResolver, cookieName string, logger zerolog.Logger) func(http.Handler) http.Handler {
	logger = logger.With().Str("component", "auth").Logger()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(cookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			user, err := resolver.Identify(r.Context(), cookie.Value)
			if err != nil {
				// Stale cookie: treat as anonymous rather than failing the request.
				logger.Debug().Err(err).Msg("session cookie did not resolve")
				next.ServeHTTP(w, r)
				return
			}

			ctx := WithActor(r.Context(), Actor{
				ID:       user.ID,
				Username: user.Username,
				Role:     user.Role,
			})
			ctx = WithToken(ctx, cookie.Value)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireSession rejects anonymous requests with 401. Routes mounted
// behind it can assume ActorFromContext succeeds.
func RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := ActorFromContext(r.Context()); !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"message":"Authentication required."}`))
			return
		}
		next.ServeHTTP(w, r)
	})
}
