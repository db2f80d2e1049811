// Package service implements the authentication use cases: local
// registration and login with lockout, refresh-token rotation, OAuth
// identity linking, and the scheduled expiry sweep. Every failure
// crossing the package boundary is one of the sentinel errors below so
// handlers can map it to a status code without leaking storage detail.
package service

import "errors"

var (
	// ErrInvalidCredentials covers unknown email and wrong password
	// alike; callers must not be able to tell the two apart.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrAccountLocked is returned while locked_until has not elapsed.
	ErrAccountLocked = errors.New("account is temporarily locked")

	// ErrTokenExpired is returned for structurally valid tokens whose
	// validity window has passed.
	ErrTokenExpired = errors.New("token expired")

	// ErrTokenInvalid covers forged, malformed, already-rotated and
	// ownership-mismatched tokens uniformly.
	ErrTokenInvalid = errors.New("invalid token")

	// ErrConflict signals a duplicate username or email.
	ErrConflict = errors.New("username or email already exists")

	// ErrNotFound signals an absent user or auth method in
	// administrative lookups.
	ErrNotFound = errors.New("not found")

	// ErrAuthenticationFailed is the catch-all for OAuth and internal
	// faults that must stay indistinguishable from forged assertions.
	ErrAuthenticationFailed = errors.New("authentication failed")
)
