package errors

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidInput          = errors.New("email and password are required")
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrEmailAlreadyInUse     = errors.New("email already in use")
	ErrInvalidOrExpiredToken = errors.New("invalid or expired token")
	ErrInvalidMfaToken       = errors.New("invalid mfa token")
	ErrMfaNotConfigured      = errors.New("mfa secret not configured")
	ErrMfaAlreadyEnabled     = errors.New("mfa already enabled")
	ErrAccountNotFound       = errors.New("account not found")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrWeakPassword          = errors.New("password must be at least 8 characters and contain an uppercase letter, a lowercase letter, a digit and a symbol")
)

// AccountLockedError is returned while an account is inside its lockout
// window. Until tells the handler layer how long the caller has to wait.
type AccountLockedError struct {
	Until time.Time
}

func (e *AccountLockedError) Error() string {
	remaining := time.Until(e.Until).Round(time.Minute)
	if remaining < time.Minute {
		remaining = time.Minute
	}
	return fmt.Sprintf("account locked, try again in %d minute(s)", int(remaining.Minutes()))
}

// AsAccountLocked reports whether err is (or wraps) an AccountLockedError.
func AsAccountLocked(err error) (*AccountLockedError, bool) {
	var locked *AccountLockedError
	if errors.As(err, &locked) {
		return locked, true
	}
	return nil, false
}
