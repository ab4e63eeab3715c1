package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/passkeeper/internal/common"
	"github.com/dmitrijs2005/passkeeper/internal/dbx"
	"github.com/dmitrijs2005/passkeeper/internal/models"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or *sql.Tx).
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

func (r *SQLiteRepository) Create(ctx context.Context, a *models.Account) error {
	query := `INSERT INTO accounts (username, salt, verifier, failed_attempts, enc_credential)
			VALUES (?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query,
		a.Username, a.Salt, a.Verifier, a.FailedAttempts, a.EncCredential)
	if err != nil {
		if isUniqueViolation(err) {
			return common.ErrDuplicateUsername
		}
		return fmt.Errorf("failed to insert account: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) Find(ctx context.Context, username string) (*models.Account, error) {
	query := `SELECT username, salt, verifier, failed_attempts, enc_credential
			FROM accounts WHERE username = ?`
	row := r.db.QueryRowContext(ctx, query, username)

	a := &models.Account{}
	if err := row.Scan(&a.Username, &a.Salt, &a.Verifier, &a.FailedAttempts, &a.EncCredential); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("query row scan failed: %w", err)
	}
	return a, nil
}

func (r *SQLiteRepository) UpdateFailedAttempts(ctx context.Context, username string, attempts int) error {
	query := `UPDATE accounts SET failed_attempts = ? WHERE username = ?`
	res, err := r.db.ExecContext(ctx, query, attempts, username)
	if err != nil {
		return fmt.Errorf("failed to update attempts: %w", err)
	}
	return expectOneRow(res)
}

func (r *SQLiteRepository) UpdateSecrets(ctx context.Context, a *models.Account) error {
	query := `UPDATE accounts SET salt = ?, verifier = ?, enc_credential = ? WHERE username = ?`
	res, err := r.db.ExecContext(ctx, query, a.Salt, a.Verifier, a.EncCredential, a.Username)
	if err != nil {
		return fmt.Errorf("failed to update secrets: %w", err)
	}
	return expectOneRow(res)
}

func expectOneRow(res sql.Result) error {
	ra, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if ra == 0 {
		return common.ErrNotFound
	}
	if ra != 1 {
		return fmt.Errorf("wrong rows affected count: %d", ra)
	}
	return nil
}

// isUniqueViolation detects a primary-key collision on accounts.username.
// modernc.org/sqlite does not export a stable typed error for this, so the
// constraint name in the message is the contract.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
