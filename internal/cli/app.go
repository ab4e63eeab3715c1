// Package cli implements the interactive passkeeper console: a REPL over the
// session manager and the entry cache.
package cli

import (
	"bufio"
	"context"
	"os"

	"github.com/dmitrijs2005/passkeeper/internal/accounts"
	"github.com/dmitrijs2005/passkeeper/internal/cache"
	"github.com/dmitrijs2005/passkeeper/internal/config"
	"github.com/dmitrijs2005/passkeeper/internal/logging"
	"github.com/dmitrijs2005/passkeeper/internal/models"
	"github.com/dmitrijs2005/passkeeper/internal/remote"
	"github.com/dmitrijs2005/passkeeper/internal/session"

	_ "modernc.org/sqlite"
)

// App wires the configuration, the local account database, the session
// manager and the entry cache behind the interactive commands.
type App struct {
	config   *config.Config
	sessions *session.Manager
	entries  *cache.EntryCache
	log      logging.Logger
	reader   *bufio.Reader

	session *session.Session
}

// NewApp opens the local database, runs migrations and assembles the
// application. The parameter-store client is created lazily, per login, from
// the session's decrypted credential.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	log := logging.New(c.LogLevel)

	db, err := accounts.InitDatabase(ctx, c.DatabasePath)
	if err != nil {
		return nil, err
	}

	store := accounts.NewStore(db)
	sessions := session.NewManager(store, c.MaxLoginAttempts, c.SessionTimeout, log)

	factory := func(ctx context.Context, cred models.RemoteCredential) (remote.Client, error) {
		return remote.NewSSMClient(ctx, cred, c.Region, log)
	}
	entries := cache.New(sessions, factory, c.PasswordCacheDuration, log)

	return &App{
		config:   c,
		sessions: sessions,
		entries:  entries,
		log:      log,
		reader:   bufio.NewReader(os.Stdin),
	}, nil
}

// Run starts the REPL and blocks until the user exits, the input stream
// closes, or the account locks out.
func (a *App) Run(ctx context.Context) {
	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.status, scanner)
}

func (a *App) isLoggedIn() bool {
	if a.session == nil {
		return false
	}
	if a.sessions.CheckExpiry(a.session) {
		a.entries.Forget(a.session)
		a.session = nil
		return false
	}
	return true
}

// status is rendered into the prompt, e.g. "(alice)".
func (a *App) status() string {
	if a.isLoggedIn() {
		return "(" + a.session.Username + ")"
	}
	return ""
}
