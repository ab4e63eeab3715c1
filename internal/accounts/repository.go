package accounts

import (
	"context"

	"github.com/dmitrijs2005/passkeeper/internal/models"
)

// Repository describes persistence operations for Account records.
// Implementations are backed by the local SQLite database.
type Repository interface {
	// Create inserts a new account row. A username collision surfaces as
	// common.ErrDuplicateUsername.
	Create(ctx context.Context, account *models.Account) error

	// Find returns the account for the given username, or
	// common.ErrNotFound when absent.
	Find(ctx context.Context, username string) (*models.Account, error)

	// UpdateFailedAttempts persists the attempt counter for the account.
	UpdateFailedAttempts(ctx context.Context, username string, attempts int) error

	// UpdateSecrets rewrites salt, verifier and the encrypted credential
	// blob together. Used by the password-change flow.
	UpdateSecrets(ctx context.Context, account *models.Account) error
}
