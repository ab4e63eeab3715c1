package cli

import (
	"bufio"
	"context"
	"database/sql"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/passkeeper/internal/accounts"
	"github.com/dmitrijs2005/passkeeper/internal/cache"
	"github.com/dmitrijs2005/passkeeper/internal/common"
	"github.com/dmitrijs2005/passkeeper/internal/config"
	"github.com/dmitrijs2005/passkeeper/internal/logging"
	"github.com/dmitrijs2005/passkeeper/internal/models"
	"github.com/dmitrijs2005/passkeeper/internal/remote"
	"github.com/dmitrijs2005/passkeeper/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

// memoryRemote is an in-process stand-in for the parameter store.
type memoryRemote struct {
	mu     sync.Mutex
	params map[string]string
}

func (m *memoryRemote) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.params[key]
	if !ok {
		return "", remote.ErrNotFound
	}
	return v, nil
}

func (m *memoryRemote) Put(ctx context.Context, key, value string, overwrite bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.params[key] = value
	return nil
}

func (m *memoryRemote) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.params[key]; !ok {
		return remote.ErrNotFound
	}
	delete(m.params, key)
	return nil
}

func (m *memoryRemote) ListByPrefix(ctx context.Context, prefix string) ([]remote.KV, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var kvs []remote.KV
	for k, v := range m.params {
		if strings.HasPrefix(k, prefix) {
			kvs = append(kvs, remote.KV{Key: k, Value: v})
		}
	}
	return kvs, nil
}

// stubInputs replaces the interactive input seams with queued answers.
// Text prompts and password prompts are consumed independently, in order.
func stubInputs(t *testing.T, texts []string, passwords [][]byte) {
	t.Helper()
	origST, origGP := getSimpleText, getPassword
	t.Cleanup(func() {
		getSimpleText = origST
		getPassword = origGP
	})

	getSimpleText = func(_ *bufio.Reader, _ string, _ io.Writer) (string, error) {
		if len(texts) == 0 {
			t.Fatal("unexpected text prompt")
		}
		v := texts[0]
		texts = texts[1:]
		return v, nil
	}
	getPassword = func(_ io.Writer, _ string) ([]byte, error) {
		if len(passwords) == 0 {
			t.Fatal("unexpected password prompt")
		}
		v := passwords[0]
		passwords = passwords[1:]
		return append([]byte(nil), v...), nil
	}
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	silencePrintln(t)

	db, err := sql.Open("sqlite", "file:"+t.Name()+"?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, accounts.RunMigrations(context.Background(), db))

	cfg := &config.Config{}
	cfg.LoadDefaults()

	log := logging.NewNopLogger()
	sessions := session.NewManager(accounts.NewStore(db), cfg.MaxLoginAttempts, cfg.SessionTimeout, log)

	mr := &memoryRemote{params: make(map[string]string)}
	factory := func(ctx context.Context, cred models.RemoteCredential) (remote.Client, error) {
		return mr, nil
	}
	entries := cache.New(sessions, factory, cfg.PasswordCacheDuration, log,
		cache.WithBackoff(time.Millisecond, 1))

	return &App{
		config:   cfg,
		sessions: sessions,
		entries:  entries,
		log:      log,
		reader:   bufio.NewReader(strings.NewReader("")),
	}
}

func TestRegisterAndLogin(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()

	stubInputs(t,
		[]string{"alice", "AKIAEXAMPLE", ""},
		[][]byte{[]byte("Secr3t!"), []byte("Secr3t!"), []byte("aws-secret")})
	require.NoError(t, app.Register(ctx))
	assert.False(t, app.isLoggedIn())

	stubInputs(t, []string{"alice"}, [][]byte{[]byte("Secr3t!")})
	require.NoError(t, app.Login(ctx))
	assert.True(t, app.isLoggedIn())
	assert.Equal(t, "(alice)", app.status())
}

func TestLogin_WrongPasswordThenLockout(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()

	stubInputs(t,
		[]string{"alice", "AKIAEXAMPLE", ""},
		[][]byte{[]byte("Secr3t!"), []byte("Secr3t!"), []byte("aws-secret")})
	require.NoError(t, app.Register(ctx))

	for i := 0; i < 2; i++ {
		stubInputs(t, []string{"alice"}, [][]byte{[]byte("wrong")})
		require.ErrorIs(t, app.Login(ctx), common.ErrAuthenticationFailed)
	}
	stubInputs(t, []string{"alice"}, [][]byte{[]byte("wrong")})
	require.ErrorIs(t, app.Login(ctx), common.ErrLockedOut)

	// locked out regardless of the password being correct now
	stubInputs(t, []string{"alice"}, [][]byte{[]byte("Secr3t!")})
	require.ErrorIs(t, app.Login(ctx), common.ErrLockedOut)
	assert.False(t, app.isLoggedIn())
}

func TestRegister_PasswordMismatch(t *testing.T) {
	app := newTestApp(t)

	stubInputs(t,
		[]string{"alice", "AKIAEXAMPLE", ""},
		[][]byte{[]byte("one"), []byte("two"), []byte("aws-secret")})
	require.ErrorIs(t, app.Register(context.Background()), common.ErrPasswordMismatch)
}

func TestCommandsRequireLogin(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()

	require.ErrorIs(t, app.List(ctx), errNotLoggedIn)
	require.ErrorIs(t, app.Show(ctx), errNotLoggedIn)
	require.ErrorIs(t, app.Add(ctx), errNotLoggedIn)
	require.ErrorIs(t, app.Delete(ctx), errNotLoggedIn)
	require.ErrorIs(t, app.Refresh(ctx), errNotLoggedIn)
}

func TestAddShowDelete(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()

	stubInputs(t,
		[]string{"alice", "AKIAEXAMPLE", ""},
		[][]byte{[]byte("Secr3t!"), []byte("Secr3t!"), []byte("aws-secret")})
	require.NoError(t, app.Register(ctx))
	stubInputs(t, []string{"alice"}, [][]byte{[]byte("Secr3t!")})
	require.NoError(t, app.Login(ctx))

	// memo is read from the line reader, not through the seams
	app.reader = bufio.NewReader(strings.NewReader("shared account\n\n"))
	stubInputs(t,
		[]string{"github", "https://github.com", "alice"},
		[][]byte{[]byte("gh-pass")})
	require.NoError(t, app.Add(ctx))

	stubInputs(t, []string{"github"}, nil)
	require.NoError(t, app.Show(ctx))
	require.NoError(t, app.List(ctx))

	stubInputs(t, []string{"github"}, nil)
	require.NoError(t, app.Delete(ctx))

	stubInputs(t, []string{"github"}, nil)
	require.ErrorIs(t, app.Show(ctx), common.ErrNotFound)

	// deleting a missing entry is reported but not an error
	stubInputs(t, []string{"github"}, nil)
	require.NoError(t, app.Delete(ctx))
}

func TestChangePassword(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()

	stubInputs(t,
		[]string{"alice", "AKIAEXAMPLE", ""},
		[][]byte{[]byte("Secr3t!"), []byte("Secr3t!"), []byte("aws-secret")})
	require.NoError(t, app.Register(ctx))
	stubInputs(t, []string{"alice"}, [][]byte{[]byte("Secr3t!")})
	require.NoError(t, app.Login(ctx))

	// wrong current password is refused
	stubInputs(t, nil, [][]byte{[]byte("wrong"), []byte("NewPass1"), []byte("NewPass1")})
	require.ErrorIs(t, app.ChangePassword(ctx), common.ErrAuthenticationFailed)

	stubInputs(t, nil, [][]byte{[]byte("Secr3t!"), []byte("NewPass1"), []byte("NewPass1")})
	require.NoError(t, app.ChangePassword(ctx))

	// the old password no longer opens the account, the new one does
	require.NoError(t, app.Logout(ctx))
	stubInputs(t, []string{"alice"}, [][]byte{[]byte("Secr3t!")})
	require.ErrorIs(t, app.Login(ctx), common.ErrAuthenticationFailed)
	stubInputs(t, []string{"alice"}, [][]byte{[]byte("NewPass1")})
	require.NoError(t, app.Login(ctx))
}

func TestLogoutDropsSession(t *testing.T) {
	app := newTestApp(t)
	ctx := context.Background()

	stubInputs(t,
		[]string{"alice", "AKIAEXAMPLE", ""},
		[][]byte{[]byte("Secr3t!"), []byte("Secr3t!"), []byte("aws-secret")})
	require.NoError(t, app.Register(ctx))
	stubInputs(t, []string{"alice"}, [][]byte{[]byte("Secr3t!")})
	require.NoError(t, app.Login(ctx))

	require.NoError(t, app.Logout(ctx))
	assert.False(t, app.isLoggedIn())
	require.ErrorIs(t, app.List(ctx), errNotLoggedIn)
}
