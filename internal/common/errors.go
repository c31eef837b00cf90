// Package common defines shared constants and sentinel errors used across
// the server, the client and the crypto layer. Callers should use errors.Is
// to match these values.
package common

import "errors"

var (
	// Store-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// Input validation: malformed fragment, expiry value or form field.
	ErrFormat = errors.New("invalid format")

	// Tag check failure. The message is deliberately generic so callers
	// cannot tell a wrong key from a wrong password.
	ErrAuthentication = errors.New("decryption failed")

	// Burn-after-read record already taken by another reader.
	ErrAlreadyConsumed = errors.New("already viewed or downloaded")

	// Attachment over the configured limit.
	ErrPayloadTooLarge = errors.New("payload too large")

	// Sweep token errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
