package domain

import (
	"errors"
	"strings"
)

// Identity errors
var (
	ErrDuplicateIdentity  = errors.New("user with this email or username already exists")
	ErrInvalidCredentials = errors.New("invalid email/username or password")
	ErrAccountBlocked     = errors.New("user is blocked")
	ErrUserNotFound       = errors.New("user not found")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrValidationFailed   = errors.New("validation failed")
	ErrStoreUnavailable   = errors.New("store unavailable")
	ErrNotFound           = errors.New("resource not found")
	ErrConcurrentUpdate   = errors.New("record changed concurrently")
)

// ValidationError carries every reason an input was rejected.
type ValidationError struct {
	Reasons []string
}

// NewValidationError builds a ValidationError from reasons
func NewValidationError(reasons ...string) *ValidationError {
	return &ValidationError{Reasons: reasons}
}

func (e *ValidationError) Error() string {
	if len(e.Reasons) == 0 {
		return ErrValidationFailed.Error()
	}
	return ErrValidationFailed.Error() + ": " + strings.Join(e.Reasons, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrValidationFailed
}
