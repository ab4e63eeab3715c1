package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/awnumar/memguard"
	"github.com/dmitrijs2005/passkeeper/internal/accounts"
	"github.com/dmitrijs2005/passkeeper/internal/common"
	"github.com/dmitrijs2005/passkeeper/internal/logging"
	"github.com/dmitrijs2005/passkeeper/internal/models"
	"github.com/google/uuid"
)

var usernameRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Manager drives registration, login, lockout and session expiry.
//
// Lockout is local-password-specific: once an account's persisted attempt
// counter reaches the configured maximum, Login returns common.ErrLockedOut
// even for the correct password, and the counter survives process restarts
// until a successful login resets it.
type Manager struct {
	store       *accounts.Store
	maxAttempts int
	idleTimeout time.Duration
	log         logging.Logger
	now         func() time.Time
}

// Option customizes a Manager.
type Option func(*Manager)

// WithClock overrides the time source (for tests).
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager constructs a Manager. maxAttempts and idleTimeout come from the
// configuration surface (defaults 3 and 30 minutes).
func NewManager(store *accounts.Store, maxAttempts int, idleTimeout time.Duration, log logging.Logger, opts ...Option) *Manager {
	m := &Manager{
		store:       store,
		maxAttempts: maxAttempts,
		idleTimeout: idleTimeout,
		log:         log,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Register creates a new local account holding the sealed remote credential.
// A credential without keys is rejected: the account would protect nothing
// and every later remote call would fail.
func (m *Manager) Register(ctx context.Context, username string, password, confirm []byte, cred models.RemoteCredential) (*models.Account, error) {
	if !usernameRe.MatchString(username) {
		return nil, common.ErrWeakInput
	}
	if len(password) == 0 {
		return nil, common.ErrWeakInput
	}
	if string(password) != string(confirm) {
		return nil, common.ErrPasswordMismatch
	}
	if cred.IsZero() {
		return nil, common.ErrWeakInput
	}

	account, err := m.store.Create(ctx, username, password, cred)
	if err != nil {
		return nil, err
	}
	m.log.Info(ctx, "account registered", "username", username)
	return account, nil
}

// Login authenticates the user and, on success, decrypts the stored remote
// credential into a new Active session. Failures increment the persisted
// attempt counter; reaching the maximum yields common.ErrLockedOut, which is
// fatal for the current run.
func (m *Manager) Login(ctx context.Context, username string, password []byte) (*Session, error) {
	account, err := m.store.Find(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return nil, common.ErrAuthenticationFailed
		}
		return nil, fmt.Errorf("loading account: %w", err)
	}

	// The lockout check comes before password verification: a locked
	// account rejects even the correct password.
	if account.FailedAttempts >= m.maxAttempts {
		m.log.Warn(ctx, "login rejected, account locked", "username", username)
		return nil, common.ErrLockedOut
	}

	if !m.store.VerifyPassword(account, password) {
		attempts, recErr := m.store.RecordFailedAttempt(ctx, account)
		if recErr != nil {
			return nil, fmt.Errorf("recording failed attempt: %w", recErr)
		}
		if attempts >= m.maxAttempts {
			m.log.Warn(ctx, "account locked out", "username", username, "attempts", attempts)
			return nil, common.ErrLockedOut
		}
		m.log.Warn(ctx, "login failed", "username", username, "attempts", attempts)
		return nil, common.ErrAuthenticationFailed
	}

	cred, err := m.store.DecryptCredential(account, password)
	if err != nil {
		// Password verified but the blob will not open: stored data is
		// corrupt or was tampered with. Never ignored.
		return nil, err
	}

	if err := m.store.ResetFailedAttempts(ctx, account); err != nil {
		return nil, fmt.Errorf("resetting attempts: %w", err)
	}

	enclave, err := sealCredential(cred)
	if err != nil {
		return nil, err
	}

	now := m.now()
	s := &Session{
		ID:             uuid.NewString(),
		Username:       username,
		CreatedAt:      now,
		LastActivityAt: now,
		state:          StateActive,
		enclave:        enclave,
		account:        account,
	}
	m.log.Info(ctx, "login successful", "username", username, "session_id", s.ID)
	return s, nil
}

// Touch refreshes the idle-timeout clock. Called on every user-initiated
// operation.
func (m *Manager) Touch(s *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateActive {
		s.LastActivityAt = m.now()
	}
}

// CheckExpiry reports whether the session has exceeded the idle timeout,
// transitioning it to Expired (and discarding the credential) on first
// detection. It is evaluated at the top of every session-using operation
// rather than by a background timer.
func (m *Manager) CheckExpiry(s *Session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == StateExpired {
		return true
	}
	if m.now().Sub(s.LastActivityAt) > m.idleTimeout {
		s.drop()
		return true
	}
	return false
}

// Credential returns a copy of the decrypted remote credential for a single
// remote dispatch. Expired sessions are rejected before any credential
// material is opened.
func (m *Manager) Credential(s *Session) (models.RemoteCredential, error) {
	if m.CheckExpiry(s) {
		return models.RemoteCredential{}, common.ErrSessionExpired
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.enclave == nil {
		return models.RemoteCredential{}, common.ErrSessionExpired
	}

	lb, err := s.enclave.Open()
	if err != nil {
		return models.RemoteCredential{}, fmt.Errorf("opening credential enclave: %w", err)
	}
	defer lb.Destroy()

	var cred models.RemoteCredential
	if err := json.Unmarshal(lb.Bytes(), &cred); err != nil {
		return models.RemoteCredential{}, fmt.Errorf("decoding credential: %w", err)
	}
	return cred, nil
}

// ChangePassword rewraps the account's stored credential under a key derived
// from newPassword. The wrong old password counts as an authentication
// failure but does not touch the lockout counter: the caller already holds an
// authenticated session.
func (m *Manager) ChangePassword(ctx context.Context, s *Session, oldPassword, newPassword []byte) error {
	if m.CheckExpiry(s) {
		return common.ErrSessionExpired
	}
	if len(newPassword) == 0 {
		return common.ErrWeakInput
	}

	account := s.Account()
	if !m.store.VerifyPassword(account, oldPassword) {
		return common.ErrAuthenticationFailed
	}

	if err := m.store.ChangePassword(ctx, account, oldPassword, newPassword); err != nil {
		return err
	}
	m.log.Info(ctx, "master password changed", "username", s.Username)
	return nil
}

// Logout discards the in-memory credential immediately and makes the session
// terminal. Re-authentication is required to obtain a new one.
func (m *Manager) Logout(ctx context.Context, s *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drop()
	m.log.Info(ctx, "logged out", "username", s.Username, "session_id", s.ID)
}

// sealCredential moves the plaintext credential into a memguard enclave,
// wiping the intermediate buffer. The enclave keeps it encrypted at rest in
// memory and out of swap.
func sealCredential(cred models.RemoteCredential) (*memguard.Enclave, error) {
	buf, err := json.Marshal(cred)
	if err != nil {
		return nil, fmt.Errorf("encoding credential: %w", err)
	}
	// NewEnclave wipes buf after sealing.
	return memguard.NewEnclave(buf), nil
}
