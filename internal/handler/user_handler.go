package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/prn-tf/gatekeeper/internal/auth"
	"github.com/prn-tf/gatekeeper/internal/domain"
	"github.com/prn-tf/gatekeeper/internal/service"
)

// UserHandler handles user management requests.
type UserHandler struct {
	userService *service.UserService
	logger      zerolog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService *service.UserService, logger zerolog.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		logger:      logger.With().Str("handler", "user").Logger(),
	}
}

// userView is the public shape of a user record; the credential never
// leaves the service.
type userView struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// userAdminView additionally exposes the role, for admin-only listings.
type userAdminView struct {
	ID       int64       `json:"id"`
	Username string      `json:"username"`
	Role     domain.Role `json:"role"`
}

// userID parses the {id} route parameter.
func userID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil
}

// GetUser handles GET /users/{id}.
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(r)
	if !ok {
		writeError(w, h.logger, service.ErrUserNotFound)
		return
	}

	user, err := h.userService.Get(r.Context(), id)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, userView{ID: user.ID, Username: user.Username})
}

// ListUsers handles GET /users/all.
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())

	users, err := h.userService.List(r.Context(), actor)
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	views := make([]userAdminView, 0, len(users))
	for _, u := range users {
		views = append(views, userAdminView{ID: u.ID, Username: u.Username, Role: u.Role})
	}
	writeJSON(w, http.StatusOK, views)
}

// createUserRequest is the body of POST /create_user.
type createUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

// CreateUser handles POST /create_user.
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())

	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, service.ErrInvalidInput)
		return
	}

	user, err := h.userService.Create(r.Context(), actor, service.CreateUserInput{
		Username: req.Username,
		Password: req.Password,
		Role:     domain.Role(req.Role),
	})
	if err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, userAdminView{ID: user.ID, Username: user.Username, Role: user.Role})
}

// updateUserRequest is the body of PUT /update_user/{id}.
// Pointer fields distinguish an absent field from an explicit empty value.
type updateUserRequest struct {
	Username *string `json:"username"`
	Password *string `json:"password"`
	Role     *string `json:"role"`
}

// UpdateUser handles PUT /update_user/{id}.
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())

	id, ok := userID(r)
	if !ok {
		writeError(w, h.logger, service.ErrUserNotFound)
		return
	}

	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, h.logger, service.ErrInvalidInput)
		return
	}

	if _, err := h.userService.Update(r.Context(), actor, id, service.UpdateUserInput{
		Username: req.Username,
		Password: req.Password,
		Role:     req.Role,
	}); err != nil {
		writeError(w, h.logger, err)
		return
	}

	writeMessage(w, http.StatusOK, "User updated successfully")
}

// DeleteUser handles DELETE /delete_user/{id}.
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	actor, _ := auth.ActorFromContext(r.Context())

	id, ok := userID(r)
	if !ok {
		writeError(w, h.logger, service.ErrUserNotFound)
		return
	}

	if err := h.userService.Delete(r.Context(), actor, id); err != nil {
		writeError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
