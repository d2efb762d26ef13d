package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// CredentialPolicy holds the shape constraints applied to registration input.
// Lengths are counted in runes.
type CredentialPolicy struct {
	MinUsernameLength int
	MaxUsernameLength int
	MinPasswordLength int
	MaxPasswordLength int
}

// DefaultCredentialPolicy returns the limits used when nothing is configured.
func DefaultCredentialPolicy() CredentialPolicy {
	return CredentialPolicy{
		MinUsernameLength: 3,
		MaxUsernameLength: 32,
		MinPasswordLength: 8,
		MaxPasswordLength: 128,
	}
}

// NormalizeUsername canonicalizes a username before comparison or storage.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// Validate checks an already normalized username and a plaintext password.
// The returned error wraps ErrInvalidInput and never contains the password.
func (p CredentialPolicy) Validate(username, password string) error {
	if username == "" {
		return fmt.Errorf("%w: username is required", ErrInvalidInput)
	}
	if password == "" {
		return fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	if err := checkLength("username", username, p.MinUsernameLength, p.MaxUsernameLength); err != nil {
		return err
	}
	return checkLength("password", password, p.MinPasswordLength, p.MaxPasswordLength)
}

// a zero bound disables that side of the check
func checkLength(field, value string, minLen, maxLen int) error {
	n := utf8.RuneCountInString(value)
	if minLen > 0 && n < minLen {
		return fmt.Errorf("%w: %s must be at least %d characters", ErrInvalidInput, field, minLen)
	}
	if maxLen > 0 && n > maxLen {
		return fmt.Errorf("%w: %s must be at most %d characters", ErrInvalidInput, field, maxLen)
	}
	return nil
}

// ExceedsMaxPassword reports whether password is longer than the configured
// maximum. Login uses it to refuse oversized input before hashing.
func (p CredentialPolicy) ExceedsMaxPassword(password string) bool {
	return p.MaxPasswordLength > 0 && utf8.RuneCountInString(password) > p.MaxPasswordLength
}
