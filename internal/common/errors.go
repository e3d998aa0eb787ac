// Package common defines shared constants and sentinel errors used across
// clipvault components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")
	ErrorValidation   = errors.New("validation error")

	// Token lifecycle errors. The parse layer distinguishes structural,
	// signature, and expiry failures; stores add revocation state on top.
	ErrMalformedToken   = errors.New("malformed token")
	ErrSignatureInvalid = errors.New("token signature invalid")
	ErrTokenExpired     = errors.New("token expired")
	ErrTokenRevoked     = errors.New("token revoked")
	ErrTokenBlacklisted = errors.New("token blacklisted")

	// ErrMissingCredential is returned when no token was presented at all
	// (absent or unparseable Authorization / Refresh-Token header).
	ErrMissingCredential = errors.New("missing credential")

	// ErrInvalidCredential is the single outcome the token coordinator
	// collapses every renewal failure into. External callers never learn
	// which check failed.
	ErrInvalidCredential = errors.New("invalid credential")
)
