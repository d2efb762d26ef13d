package domain

import "errors"

// Errors surfaced to callers of the auth service.
var (
	ErrInvalidInput       = errors.New("invalid input")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	// ErrUnavailable marks storage, entropy or deadline failures. Callers may retry.
	ErrUnavailable = errors.New("service unavailable")
)

// Errors reported by credential stores. The auth service translates them.
var (
	ErrDuplicateUsername = errors.New("duplicate username")
	ErrAccountNotFound   = errors.New("account not found")
)

// unavailableError matches both ErrUnavailable and its cause with errors.Is,
// while its message stays generic.
type unavailableError struct {
	cause error
}

func (e *unavailableError) Error() string   { return ErrUnavailable.Error() }
func (e *unavailableError) Unwrap() []error { return []error{ErrUnavailable, e.cause} }

// Unavailable wraps an infrastructure failure without exposing its text.
func Unavailable(cause error) error {
	if cause == nil {
		return ErrUnavailable
	}
	return &unavailableError{cause: cause}
}
