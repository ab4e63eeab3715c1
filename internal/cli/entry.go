package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dmitrijs2005/passkeeper/internal/common"
	"github.com/dmitrijs2005/passkeeper/internal/models"
)

var errNotLoggedIn = errors.New("not logged in")

// requireSession returns the current session or reports that the user has to
// authenticate first.
func (a *App) requireSession() (ok bool) {
	if !a.isLoggedIn() {
		printlnFn("Please log in first.")
		return false
	}
	return true
}

// reportEntryError translates cache/session errors into user messages and
// drops the session when it turned out to be expired.
func (a *App) reportEntryError(ctx context.Context, err error) {
	switch {
	case errors.Is(err, common.ErrSessionExpired):
		printlnFn("Session expired, please log in again.")
		a.session = nil
	case errors.Is(err, common.ErrNotFound):
		printlnFn("No such entry.")
	case errors.Is(err, common.ErrRemoteCredentialRejected):
		printlnFn("The stored AWS credential was rejected by the parameter store.")
	case errors.Is(err, common.ErrRemoteUnavailable):
		printlnFn("The parameter store is currently unreachable.")
	case errors.Is(err, common.ErrRemoteWriteFailed):
		printlnFn("The change could not be written to the parameter store.")
	default:
		a.log.Error(ctx, "command failed", "error", err)
	}
}

// List prints one line per stored entry. A result served from an outdated
// snapshot is labelled so the user knows a remote refresh failed.
func (a *App) List(ctx context.Context) error {
	if !a.requireSession() {
		return errNotLoggedIn
	}

	res, err := a.entries.List(ctx, a.session)
	if err != nil {
		a.reportEntryError(ctx, err)
		return err
	}

	if res.Stale {
		printlnFn("(offline: showing last known entries)")
	}
	if len(res.Entries) == 0 {
		printlnFn("No entries.")
		return nil
	}
	for _, e := range res.Entries {
		printlnFn(fmt.Sprintf("%s\t%s\t%s", e.AppName, e.Username, e.URL))
	}
	return nil
}

// Show prints all fields of a single entry, password included.
func (a *App) Show(ctx context.Context) error {
	if !a.requireSession() {
		return errNotLoggedIn
	}

	appName, err := getSimpleText(a.reader, "Enter application name", os.Stdout)
	if err != nil {
		return err
	}

	e, err := a.entries.Get(ctx, a.session, appName)
	if err != nil {
		a.reportEntryError(ctx, err)
		return err
	}

	printlnFn("App:      " + e.AppName)
	printlnFn("URL:      " + e.URL)
	printlnFn("Username: " + e.Username)
	printlnFn("Password: " + e.Password)
	if e.Memo != "" {
		printlnFn("Memo:     " + e.Memo)
	}
	return nil
}

// Add collects an entry interactively and writes it through to the parameter
// store. An existing entry with the same application name is overwritten.
func (a *App) Add(ctx context.Context) error {
	if !a.requireSession() {
		return errNotLoggedIn
	}

	appName, err := getSimpleText(a.reader, "Enter application name", os.Stdout)
	if err != nil {
		return err
	}
	url, err := getSimpleText(a.reader, "Enter URL", os.Stdout)
	if err != nil {
		return err
	}
	username, err := getSimpleText(a.reader, "Enter username", os.Stdout)
	if err != nil {
		return err
	}
	password, err := getPassword(os.Stdout, "Enter password")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)
	memo, err := GetMultiline(a.reader, "Enter memo (optional):", os.Stdout)
	if err != nil {
		return err
	}

	entry := models.PasswordEntry{
		AppName:  appName,
		URL:      url,
		Username: username,
		Password: string(password),
		Memo:     memo,
	}

	if err := a.entries.Put(ctx, a.session, entry); err != nil {
		if errors.Is(err, common.ErrWeakInput) {
			printlnFn("Application name is required.")
			return err
		}
		a.reportEntryError(ctx, err)
		return err
	}

	printlnFn("Entry saved.")
	return nil
}

// Delete removes an entry from the parameter store and the cache. A missing
// entry is reported but treated as a no-op.
func (a *App) Delete(ctx context.Context) error {
	if !a.requireSession() {
		return errNotLoggedIn
	}

	appName, err := getSimpleText(a.reader, "Enter application name to delete", os.Stdout)
	if err != nil {
		return err
	}

	if err := a.entries.Delete(ctx, a.session, appName); err != nil {
		if errors.Is(err, common.ErrNotFound) {
			printlnFn("No such entry, nothing deleted.")
			return nil
		}
		a.reportEntryError(ctx, err)
		return err
	}

	printlnFn("Entry deleted.")
	return nil
}

// Refresh invalidates the account's cached entries and pulls a fresh snapshot.
func (a *App) Refresh(ctx context.Context) error {
	if !a.requireSession() {
		return errNotLoggedIn
	}

	a.entries.InvalidateAll(a.session)
	res, err := a.entries.List(ctx, a.session)
	if err != nil {
		a.reportEntryError(ctx, err)
		return err
	}
	if res.Stale {
		printlnFn("Refresh failed, keeping last known entries.")
		return nil
	}
	printlnFn(fmt.Sprintf("Refreshed, %d entries.", len(res.Entries)))
	return nil
}
