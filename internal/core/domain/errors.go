package domain

import (
	"errors"
	"fmt"
)

// Base errors. Specific failures wrap these so callers can match broad
// categories with errors.Is while still surfacing a precise message.
var (
	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
	ErrUserNotFound = errors.New("user not found")
)

var (
	// ErrEmailTaken is returned when the email uniqueness check (or the
	// storage-layer unique index backing it) rejects a write.
	ErrEmailTaken = fmt.Errorf("%w: email already in use", ErrValidation)

	// ErrInvalidRole is returned when a role outside {member, manager} is supplied.
	ErrInvalidRole = fmt.Errorf("%w: role must be member or manager", ErrValidation)

	// ErrInvalidCredentials covers both an unknown email and a wrong password.
	// The two cases are deliberately indistinguishable to the caller.
	ErrInvalidCredentials = fmt.Errorf("%w: invalid credentials", ErrUnauthorized)

	// ErrInvalidToken covers malformed tokens, bad signatures, and expiry.
	ErrInvalidToken = errors.New("invalid token")

	// ErrMissingSecret means the process-wide signing secret was not supplied.
	// Fatal at startup, never a per-request error.
	ErrMissingSecret = errors.New("token signing secret not configured")
)
