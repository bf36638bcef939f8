package service

import "errors"

var (
	// ErrInvalidCredentials covers both an unknown username and a wrong
	// password. Callers must not be able to tell the two apart.
	ErrInvalidCredentials = errors.New("invalid_credentials")

	ErrUserAlreadyExists   = errors.New("user_already_exists")
	ErrInvalidRegistration = errors.New("invalid_registration")
	ErrTooManyAttempts     = errors.New("too_many_attempts")

	// ErrStoreUnavailable wraps any store failure other than not-found or a
	// uniqueness violation.
	ErrStoreUnavailable = errors.New("store_unavailable")
)

// ValidationError describes why a registration was rejected. Message is safe
// to return to the caller. It matches ErrInvalidRegistration.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return "invalid_registration: " + e.Message }

func (e *ValidationError) Unwrap() error { return ErrInvalidRegistration }
