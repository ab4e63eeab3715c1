// Package models defines the data types shared by passkeeper components.
package models

// Account is a local user record persisted by the account store.
// Salt and Verifier are fixed at registration (a password change rewrites
// both); FailedAttempts is mutated by the session manager only.
type Account struct {
	// Username is unique and restricted to [A-Za-z0-9_-]+.
	Username string

	// Salt is the per-account random salt fed to the KDF.
	Salt []byte

	// Verifier is the salted password hash surrogate (hash of derived key).
	Verifier []byte

	// FailedAttempts counts consecutive failed logins. It persists across
	// process restarts and is reset only by a successful login.
	FailedAttempts int

	// EncCredential is the AEAD-sealed remote credential blob. It is only
	// ever decrypted with a key re-derived from the login password.
	EncCredential []byte
}
