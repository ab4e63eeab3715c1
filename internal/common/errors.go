// Package common defines shared constants and sentinel errors used across
// passkeeper components. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Input errors: rejected requests, never retried automatically.
	ErrDuplicateUsername = errors.New("username already taken")
	ErrPasswordMismatch  = errors.New("passwords do not match")
	ErrWeakInput         = errors.New("invalid username or password format")

	// Authentication errors.
	ErrAuthenticationFailed = errors.New("authentication failed")
	// ErrLockedOut is fatal for the current process run: the login flow must
	// terminate and the persisted attempt counter stays until a successful login.
	ErrLockedOut      = errors.New("too many failed login attempts")
	ErrSessionExpired = errors.New("session expired")

	// Crypto errors. Wrong password and tampered ciphertext are
	// indistinguishable on purpose.
	ErrDecryptionFailed = errors.New("decryption failed")

	// Repository-level errors.
	ErrNotFound = errors.New("not found")

	// Remote store errors, after retry classification.
	ErrRemoteUnavailable        = errors.New("remote store unavailable")
	ErrRemoteCredentialRejected = errors.New("remote store rejected credentials")
	ErrRemoteWriteFailed        = errors.New("remote write failed")
)
