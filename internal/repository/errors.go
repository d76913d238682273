package repository

import (
	"errors"

	"github.com/lib/pq"
)

// Common repository errors
var (
	ErrNotFound     = errors.New("record not found")
	ErrDuplicate    = errors.New("record already exists")
	ErrInvalidInput = errors.New("invalid input")

	// Reset token consumption outcomes. A used token stays used
	// regardless of expiry.
	ErrTokenUsed    = errors.New("reset token already used")
	ErrTokenExpired = errors.New("reset token expired")
)

// mapConstraintError translates Postgres constraint violations into the
// repository error taxonomy. Anything else passes through untouched.
func mapConstraintError(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case "23505": // unique_violation
		return ErrDuplicate
	case "23514": // check_violation
		return ErrInvalidInput
	case "23503": // foreign_key_violation
		return ErrInvalidInput
	}
	return err
}
