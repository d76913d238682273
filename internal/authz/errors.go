package authz

import "errors"

var (
	// ErrPermissionDenied is returned when a predicate does not
	// affirmatively grant the operation. Denials fail closed.
	ErrPermissionDenied = errors.New("authz: permission denied")
	// ErrNoActor is returned when no caller identity is present
	ErrNoActor = errors.New("authz: no actor in context")
)
