package errors

import (
	"errors"
	"fmt"
)

// Common error types for the studio client
var (
	// Credential errors, surfaced to the page that submitted the form
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrOtpInvalidOrExpired = errors.New("otp invalid or expired")
	ErrValidation          = errors.New("validation failed")
	ErrInvalidToken        = errors.New("invalid or expired link")

	// Session errors
	ErrUnauthorized     = errors.New("unauthorized")
	ErrSessionExpired   = errors.New("session expired")
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrNoRefreshToken   = errors.New("no refresh token")

	// Quota errors
	ErrRateLimited         = errors.New("rate limit exceeded")
	ErrInsufficientCredits = errors.New("insufficient credits")

	// General errors
	ErrRequestFailed = errors.New("request failed")
	ErrNotFound      = errors.New("not found")
	ErrInternal      = errors.New("internal error")
)

// Wrapf wraps an error with context using fmt.Errorf
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// Is reports whether any error in err's chain matches target
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// New is a passthrough to the standard library so callers only import this package
func New(text string) error {
	return errors.New(text)
}
