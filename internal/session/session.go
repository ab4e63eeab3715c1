// Package session owns the authentication state machine: registration,
// login with attempt limiting, idle-timeout expiry, and the lifetime of the
// decrypted remote credential.
package session

import (
	"sync"
	"time"

	"github.com/awnumar/memguard"
	"github.com/dmitrijs2005/passkeeper/internal/models"
)

// State describes the lifecycle of a session.
type State string

const (
	StateActive  State = "active"
	StateExpired State = "expired"
)

// Session is the in-memory record of an authenticated run. The decrypted
// remote credential lives only inside the memguard enclave and is dropped
// on logout or expiry; it is never written anywhere durable.
//
// Sessions are created by Manager.Login and must be passed explicitly to
// every core call. There is no process-wide current session.
type Session struct {
	ID       string
	Username string

	CreatedAt      time.Time
	LastActivityAt time.Time

	mu      sync.Mutex
	state   State
	enclave *memguard.Enclave

	account *models.Account
}

// State returns the current session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Account returns the account this session belongs to.
func (s *Session) Account() *models.Account {
	return s.account
}

// drop discards the sealed credential and moves the session to Expired.
// Idempotent. Callers must hold s.mu.
func (s *Session) drop() {
	s.enclave = nil
	s.state = StateExpired
}
