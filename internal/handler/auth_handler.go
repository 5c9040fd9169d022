package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/prn-tf/gatekeeper/internal/auth"
	"github.com/prn-tf/gatekeeper/internal/service"
)

// AuthHandler handles login and logout requests.
type AuthHandler struct {
	authService  *service.AuthService
	cookieName   string
	cookieSecure bool
	sessionTTL   time.Duration
	logger       zerolog.Logger
}

// AuthHandlerConfig contains configuration for the auth handler.
type AuthHandlerConfig struct {
	AuthService  *service.AuthService
	CookieName   string
	CookieSecure bool
	SessionTTL   time.Duration
	Logger       zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(cfg AuthHandlerConfig) *AuthHandler {
	return &AuthHandler{
		authService:  cfg.AuthService,
		cookieName:   cfg.CookieName,
		cookieSecure: cfg.CookieSecure,
		sessionTTL:   cfg.SessionTTL,
		logger:       cfg.Logger.With().Str("handler", "auth").Logger(),
	}
}

// loginRequest is the body of POST /login.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login handles POST /login.
// A request carrying a valid session is rejected with 409 and the existing
// identity stays bound; re-binding a live session to a new identity is
// never allowed.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.ActorFromContext(r.Context()); ok {
		writeError(w, h.logger, service.ErrAlreadyLoggedIn)
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, service.ErrInvalidInput)
		return
	}

	sess, err := h.authService.Login(r.Context(), service.LoginInput{
		Username:  req.Username,
		Password:  req.Password,
		IPAddress: r.RemoteAddr,
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    sess.Token,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure || r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(h.sessionTTL / time.Second),
	})

	writeMessage(w, http.StatusOK, "Login successful")
}

// Logout handles GET /logout. Only reachable behind RequireSession.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	token, _ := auth.TokenFromContext(r.Context())
	if err := h.authService.Logout(r.Context(), token); err != nil {
		writeError(w, h.logger, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		MaxAge:   -1,
	})

	writeMessage(w, http.StatusOK, "Logged out successfully")
}
