package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/prn-tf/gatekeeper/internal/auth"
)

// Router handles HTTP routing for the Gatekeeper API.
type Router struct {
	authHandler       *AuthHandler
	userHandler       *UserHandler
	sessionMiddleware func(http.Handler) http.Handler
	metricsMiddleware func(http.Handler) http.Handler
	logger            zerolog.Logger
}

// RouterConfig contains configuration for the router.
type RouterConfig struct {
	AuthHandler       *AuthHandler
	UserHandler       *UserHandler
	SessionMiddleware func(http.Handler) http.Handler
	MetricsMiddleware func(http.Handler) http.Handler
	Logger            zerolog.Logger
}

// NewRouter creates a new Router.
func NewRouter(cfg RouterConfig) *Router {
	return &Router{
		authHandler:       cfg.AuthHandler,
		userHandler:       cfg.UserHandler,
		sessionMiddleware: cfg.SessionMiddleware,
		metricsMiddleware: cfg.MetricsMiddleware,
		logger:            cfg.Logger.With().Str("component", "router").Logger(),
	}
}

// Handler returns the main HTTP handler.
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if rt.metricsMiddleware != nil {
		r.Use(rt.metricsMiddleware)
	}
	r.Use(rt.sessionMiddleware)

	// Open endpoints
	r.Get("/health", rt.handleHealth)
	r.Post("/login", rt.authHandler.Login)

	// Everything else requires an authenticated session.
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireSession)

		r.Get("/logout", rt.authHandler.Logout)
		r.Get("/users/all", rt.userHandler.ListUsers)
		r.Get("/users/{id}", rt.userHandler.GetUser)
		r.Post("/create_user", rt.userHandler.CreateUser)
		r.Put("/update_user/{id}", rt.userHandler.UpdateUser)
		r.Delete("/delete_user/{id}", rt.userHandler.DeleteUser)
	})

	return r
}

// handleHealth handles health check requests.
func (rt *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}
