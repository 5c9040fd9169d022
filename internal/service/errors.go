// Package service provides business logic services for Gatekeeper.
package service

import "errors"

// Common service errors.
var (
	// User errors
	ErrUserNotFound      = errors.New("user not found")
	ErrUserAlreadyExists = errors.New("username already exists")
	ErrInvalidInput      = errors.New("invalid data provided")
	ErrInvalidRole       = errors.New("role must be one of: user, admin, master")

	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAlreadyLoggedIn    = errors.New("user already logged in")

	// Authorization errors
	ErrAdminRequired    = errors.New("admin access required")
	ErrPermissionDenied = errors.New("you can only update your own profile")
	ErrRoleChangeDenied = errors.New("only master admins can change roles")
	ErrTierProtected    = errors.New("only master admins can delete other admins")

	// Self-protection errors: operations a user may never perform on the
	// account bound to its own active session.
	ErrSelfRename = errors.New("you cannot change your username while you are logged in")
	ErrSelfDelete = errors.New("you cannot delete your own account while logged in")

	// General errors
	ErrInternalError = errors.New("internal server error")
)
