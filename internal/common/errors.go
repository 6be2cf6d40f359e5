// Package common defines shared constants and sentinel errors used across
// client and server layers of the chat application. Callers should use
// errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal = errors.New("internal error")

	// Validation errors (missing or malformed input).
	ErrorValidation = errors.New("validation error")

	// Auth errors. ErrorInvalidCredentials is deliberately generic:
	// an unknown username and a wrong password produce the same error.
	ErrorInvalidCredentials = errors.New("invalid username or password")
	ErrorUnauthorized       = errors.New("unauthorized")

	// Token lifecycle errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")

	// Upstream errors (completion engine or object storage unreachable).
	ErrorUpstream = errors.New("upstream failure")
)
