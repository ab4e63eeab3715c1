// Package accounts implements the local account store: user records with
// their salted password verifiers, failed-attempt counters and the encrypted
// remote-credential blob, persisted in SQLite.
package accounts

import (
	"context"
	"crypto/subtle"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/passkeeper/internal/common"
	"github.com/dmitrijs2005/passkeeper/internal/cryptox"
	"github.com/dmitrijs2005/passkeeper/internal/dbx"
	"github.com/dmitrijs2005/passkeeper/internal/models"
)

// Store provides account operations on top of the SQLite repository.
// The login password is the only key to the stored remote credential:
// it is never persisted, and decryption re-derives the key on every call.
type Store struct {
	db *sql.DB
}

// NewStore constructs a Store using the given database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Create registers a new account: fresh salt, derived key, verifier, and the
// remote credential sealed under the derived key, inserted in one transaction.
func (s *Store) Create(ctx context.Context, username string, password []byte, cred models.RemoteCredential) (*models.Account, error) {
	salt := cryptox.NewSalt()
	key := cryptox.DeriveKey(password, salt)
	defer common.WipeByteArray(key)

	blob, err := cryptox.SealJSON(cred, key)
	if err != nil {
		return nil, fmt.Errorf("sealing credential: %w", err)
	}

	account := &models.Account{
		Username:      username,
		Salt:          salt,
		Verifier:      cryptox.MakeVerifier(key),
		EncCredential: blob,
	}

	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return NewSQLiteRepository(tx).Create(ctx, account)
	}); err != nil {
		return nil, err
	}
	return account, nil
}

// Find returns the stored account or common.ErrNotFound.
func (s *Store) Find(ctx context.Context, username string) (*models.Account, error) {
	return NewSQLiteRepository(s.db).Find(ctx, username)
}

// VerifyPassword recomputes the verifier from the supplied password and the
// stored salt and compares in constant time.
func (s *Store) VerifyPassword(account *models.Account, password []byte) bool {
	key := cryptox.DeriveKey(password, account.Salt)
	defer common.WipeByteArray(key)
	candidate := cryptox.MakeVerifier(key)
	return subtle.ConstantTimeCompare(account.Verifier, candidate) == 1
}

// RecordFailedAttempt increments and persists the attempt counter, returning
// the new value.
func (s *Store) RecordFailedAttempt(ctx context.Context, account *models.Account) (int, error) {
	attempts := account.FailedAttempts + 1
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return NewSQLiteRepository(tx).UpdateFailedAttempts(ctx, account.Username, attempts)
	}); err != nil {
		return account.FailedAttempts, err
	}
	account.FailedAttempts = attempts
	return attempts, nil
}

// ResetFailedAttempts zeroes and persists the attempt counter.
func (s *Store) ResetFailedAttempts(ctx context.Context, account *models.Account) error {
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return NewSQLiteRepository(tx).UpdateFailedAttempts(ctx, account.Username, 0)
	}); err != nil {
		return err
	}
	account.FailedAttempts = 0
	return nil
}

// DecryptCredential recovers the remote credential by re-deriving the key
// from the supplied password. This is the only path to remote access, so a
// wrong password (or a tampered blob) yields common.ErrDecryptionFailed and
// nothing else.
func (s *Store) DecryptCredential(account *models.Account, password []byte) (models.RemoteCredential, error) {
	key := cryptox.DeriveKey(password, account.Salt)
	defer common.WipeByteArray(key)

	var cred models.RemoteCredential
	if err := cryptox.OpenJSON(account.EncCredential, key, &cred); err != nil {
		return models.RemoteCredential{}, err
	}
	return cred, nil
}

// ChangePassword re-encrypts the stored credential under a key derived from
// the new password and a fresh salt, updating salt, verifier and blob in one
// transaction. Fails with common.ErrDecryptionFailed if oldPassword is wrong.
func (s *Store) ChangePassword(ctx context.Context, account *models.Account, oldPassword, newPassword []byte) error {
	cred, err := s.DecryptCredential(account, oldPassword)
	if err != nil {
		return err
	}

	salt := cryptox.NewSalt()
	key := cryptox.DeriveKey(newPassword, salt)
	defer common.WipeByteArray(key)

	blob, err := cryptox.SealJSON(cred, key)
	if err != nil {
		return fmt.Errorf("sealing credential: %w", err)
	}

	updated := &models.Account{
		Username:      account.Username,
		Salt:          salt,
		Verifier:      cryptox.MakeVerifier(key),
		EncCredential: blob,
	}
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return NewSQLiteRepository(tx).UpdateSecrets(ctx, updated)
	}); err != nil {
		return err
	}

	account.Salt = updated.Salt
	account.Verifier = updated.Verifier
	account.EncCredential = updated.EncCredential
	return nil
}
