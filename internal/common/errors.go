// Package common defines shared constants and sentinel errors used across
// client and server layers of AutoChecks. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorEmailTaken   = errors.New("email already registered")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors. The exact ErrTokenExpired text travels over the
	// wire as an error code so the client can refresh instead of signing out.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")

	// Payload errors.
	ErrMalformedPayload = errors.New("malformed payload")
)
