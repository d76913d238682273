package service

import "errors"

// Service-level validation errors
var (
	ErrInvalidRole   = errors.New("invalid role")
	ErrInvalidStatus = errors.New("invalid status")
	ErrInvalidTheme  = errors.New("invalid theme")
	ErrInvalidEmail  = errors.New("invalid email")
	ErrMissingID     = errors.New("identity id is required")
)
