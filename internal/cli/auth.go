package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dmitrijs2005/passkeeper/internal/common"
	"github.com/dmitrijs2005/passkeeper/internal/models"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for a username, a master password (entered twice) and the
// AWS credential to protect, then creates the local account. The credential
// is encrypted under a key derived from the master password before it touches
// the database.
func (a *App) Register(ctx context.Context) error {
	username, err := getSimpleText(a.reader, "Enter username", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout, "Enter master password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	confirm, err := getPassword(os.Stdout, "Confirm master password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(confirm)

	accessKey, err := getSimpleText(a.reader, "Enter AWS access key ID", os.Stdout)
	if err != nil {
		return err
	}
	secretKey, err := getPassword(os.Stdout, "Enter AWS secret access key")
	if err != nil {
		return err
	}
	region, err := getSimpleText(a.reader, "Enter AWS region (empty for "+a.config.Region+")", os.Stdout)
	if err != nil {
		return err
	}

	cred := models.RemoteCredential{
		AccessKeyID:     accessKey,
		SecretAccessKey: string(secretKey),
		Region:          region,
	}
	common.WipeByteArray(secretKey)

	if _, err := a.sessions.Register(ctx, username, password, confirm, cred); err != nil {
		switch {
		case errors.Is(err, common.ErrDuplicateUsername):
			printlnFn("An account with this username already exists.")
		case errors.Is(err, common.ErrPasswordMismatch):
			printlnFn("Passwords do not match.")
		case errors.Is(err, common.ErrWeakInput):
			printlnFn("Invalid username, empty password or missing AWS keys.")
		default:
			a.log.Error(ctx, "registration failed", "error", err)
		}
		return err
	}

	printlnFn("Account created. You can now log in.")
	return nil
}

// Login prompts for credentials and opens a session. A lockout error is
// returned to the REPL, which terminates the program: once the attempt
// counter reaches the maximum, the correct password no longer helps.
func (a *App) Login(ctx context.Context) error {
	username, err := getSimpleText(a.reader, "Enter username", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout, "Enter master password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	s, err := a.sessions.Login(ctx, username, password)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrLockedOut):
			printlnFn("Account is locked after too many failed attempts.")
		case errors.Is(err, common.ErrAuthenticationFailed):
			printlnFn("Invalid username or password.")
		default:
			a.log.Error(ctx, "login failed", "error", err)
		}
		return err
	}

	a.session = s
	printlnFn(fmt.Sprintf("Welcome, %s!", username))
	return nil
}

// ChangePassword re-encrypts the stored AWS credential under a key derived
// from a new master password. The session stays open.
func (a *App) ChangePassword(ctx context.Context) error {
	if !a.requireSession() {
		return errNotLoggedIn
	}

	oldPassword, err := getPassword(os.Stdout, "Enter current master password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(oldPassword)

	newPassword, err := getPassword(os.Stdout, "Enter new master password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(newPassword)

	confirm, err := getPassword(os.Stdout, "Confirm new master password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(confirm)

	if string(newPassword) != string(confirm) {
		printlnFn("Passwords do not match.")
		return common.ErrPasswordMismatch
	}

	if err := a.sessions.ChangePassword(ctx, a.session, oldPassword, newPassword); err != nil {
		switch {
		case errors.Is(err, common.ErrAuthenticationFailed):
			printlnFn("Current password is incorrect.")
		case errors.Is(err, common.ErrWeakInput):
			printlnFn("New password must not be empty.")
		default:
			a.reportEntryError(ctx, err)
		}
		return err
	}

	printlnFn("Master password changed.")
	return nil
}

// Logout discards the session, its in-memory credential and the remote
// client derived from it.
func (a *App) Logout(ctx context.Context) error {
	if a.session == nil {
		return nil
	}
	a.entries.Forget(a.session)
	a.sessions.Logout(ctx, a.session)
	a.session = nil
	printlnFn("Logged out.")
	return nil
}
