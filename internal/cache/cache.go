// Package cache implements the read-through/write-through entry cache that
// mediates every remote parameter-store call. It owns the staleness window,
// retry/backoff on transient remote failures, and the mapping of remote
// error kinds onto the application error taxonomy.
package cache

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dmitrijs2005/passkeeper/internal/common"
	"github.com/dmitrijs2005/passkeeper/internal/logging"
	"github.com/dmitrijs2005/passkeeper/internal/models"
	"github.com/dmitrijs2005/passkeeper/internal/remote"
	"github.com/dmitrijs2005/passkeeper/internal/session"
	"github.com/sethvargo/go-retry"
)

// ClientFactory builds a remote client from the session's decrypted
// credential. The default factory creates an SSM client; tests substitute
// fakes.
type ClientFactory func(ctx context.Context, cred models.RemoteCredential) (remote.Client, error)

// cachedEntry is a transient copy of a remote entry.
type cachedEntry struct {
	entry     models.PasswordEntry
	fetchedAt time.Time
}

// namespace holds the cached entries of one account. Entries of different
// accounts never mix, even within one process lifetime.
type namespace struct {
	entries     map[string]cachedEntry
	snapshotAt  time.Time
	hasSnapshot bool
}

// ListResult is a list of entries plus a staleness indicator: Stale is true
// when the remote refresh failed and the result is the last known snapshot.
type ListResult struct {
	Entries []models.PasswordEntry
	Stale   bool
}

// EntryCache fronts the remote parameter store for all sessions of one
// process. Safe for concurrent use; remote calls run outside the lock and
// cache state only mutates on completed successful responses, so an
// abandoned call simply never applies its effect.
type EntryCache struct {
	sessions  *session.Manager
	newClient ClientFactory
	ttl       time.Duration
	log       logging.Logger
	now       func() time.Time

	baseDelay  time.Duration
	maxRetries uint64

	mu         sync.Mutex
	namespaces map[string]*namespace
	clients    map[string]remote.Client
}

// Option customizes an EntryCache.
type Option func(*EntryCache)

// WithClock overrides the time source (for tests).
func WithClock(now func() time.Time) Option {
	return func(c *EntryCache) { c.now = now }
}

// WithBackoff overrides the retry policy for transient remote errors.
func WithBackoff(baseDelay time.Duration, maxRetries uint64) Option {
	return func(c *EntryCache) {
		c.baseDelay = baseDelay
		c.maxRetries = maxRetries
	}
}

// New constructs an EntryCache. ttl is the staleness window
// (password_cache_duration, default 300s).
func New(sessions *session.Manager, factory ClientFactory, ttl time.Duration, log logging.Logger, opts ...Option) *EntryCache {
	c := &EntryCache{
		sessions:   sessions,
		newClient:  factory,
		ttl:        ttl,
		log:        log,
		now:        time.Now,
		baseDelay:  100 * time.Millisecond,
		maxRetries: 2,
		namespaces: make(map[string]*namespace),
		clients:    make(map[string]remote.Client),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// List returns all entries of the session's account, serving a fresh cached
// snapshot without a remote call. A stale snapshot triggers a refresh; if
// the refresh fails transiently the old snapshot is served with Stale=true,
// which is preferred over a hard error on the read path.
func (c *EntryCache) List(ctx context.Context, s *session.Session) (ListResult, error) {
	client, err := c.clientFor(ctx, s)
	if err != nil {
		return ListResult{}, err
	}

	c.mu.Lock()
	ns := c.namespace(s.Username)
	if ns.hasSnapshot && c.now().Sub(ns.snapshotAt) <= c.ttl {
		result := ListResult{Entries: ns.sorted()}
		c.mu.Unlock()
		return result, nil
	}
	c.mu.Unlock()

	prefix := models.ParameterPath(s.Username, "")
	var kvs []remote.KV
	err = c.withRetry(ctx, func(ctx context.Context) error {
		var rerr error
		kvs, rerr = client.ListByPrefix(ctx, prefix)
		return rerr
	})
	if err != nil {
		if errors.Is(err, common.ErrRemoteCredentialRejected) {
			return ListResult{}, err
		}
		c.mu.Lock()
		defer c.mu.Unlock()
		if ns.hasSnapshot {
			c.log.Warn(ctx, "remote refresh failed, serving stale snapshot",
				"account", s.Username, "error", err)
			return ListResult{Entries: ns.sorted(), Stale: true}, nil
		}
		return ListResult{}, err
	}

	now := c.now()
	fresh := make(map[string]cachedEntry, len(kvs))
	for _, kv := range kvs {
		entry, perr := models.EntryFromValue(kv.Key, kv.Value)
		if perr != nil {
			c.log.Warn(ctx, "skipping undecodable remote entry", "key", kv.Key, "error", perr)
			continue
		}
		fresh[entry.AppName] = cachedEntry{entry: entry, fetchedAt: now}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	ns.entries = fresh
	ns.snapshotAt = now
	ns.hasSnapshot = true
	c.log.Debug(ctx, "cache snapshot refreshed", "account", s.Username, "entries", len(fresh))
	return ListResult{Entries: ns.sorted()}, nil
}

// Get returns a single entry, serving the cached copy while it is within the
// staleness window and refetching otherwise. A missing remote entry yields
// common.ErrNotFound.
func (c *EntryCache) Get(ctx context.Context, s *session.Session, appName string) (models.PasswordEntry, error) {
	client, err := c.clientFor(ctx, s)
	if err != nil {
		return models.PasswordEntry{}, err
	}

	c.mu.Lock()
	ns := c.namespace(s.Username)
	if ce, ok := ns.entries[appName]; ok && c.now().Sub(ce.fetchedAt) <= c.ttl {
		c.mu.Unlock()
		return ce.entry, nil
	}
	c.mu.Unlock()

	key := models.ParameterPath(s.Username, appName)
	var value string
	err = c.withRetry(ctx, func(ctx context.Context) error {
		var rerr error
		value, rerr = client.Get(ctx, key)
		return rerr
	})
	if err != nil {
		if errors.Is(err, remote.ErrNotFound) {
			c.mu.Lock()
			delete(ns.entries, appName)
			c.mu.Unlock()
			return models.PasswordEntry{}, common.ErrNotFound
		}
		return models.PasswordEntry{}, err
	}

	entry, err := models.EntryFromValue(key, value)
	if err != nil {
		return models.PasswordEntry{}, fmt.Errorf("decoding remote entry %s: %w", appName, err)
	}

	c.mu.Lock()
	ns.entries[appName] = cachedEntry{entry: entry, fetchedAt: c.now()}
	c.mu.Unlock()
	return entry, nil
}

// Put writes the entry through to the remote store first; the cache is
// updated only after remote confirmation, so a failed write never leaves the
// cache claiming a state the remote does not have.
func (c *EntryCache) Put(ctx context.Context, s *session.Session, entry models.PasswordEntry) error {
	if entry.AppName == "" {
		return fmt.Errorf("%w: app name is required", common.ErrWeakInput)
	}

	client, err := c.clientFor(ctx, s)
	if err != nil {
		return err
	}

	value, err := entry.MarshalValue()
	if err != nil {
		return fmt.Errorf("encoding entry: %w", err)
	}

	key := models.ParameterPath(s.Username, entry.AppName)
	err = c.withRetry(ctx, func(ctx context.Context) error {
		return client.Put(ctx, key, value, true)
	})
	if err != nil {
		if errors.Is(err, common.ErrRemoteCredentialRejected) {
			return err
		}
		return fmt.Errorf("%w: %w", common.ErrRemoteWriteFailed, err)
	}

	c.mu.Lock()
	ns := c.namespace(s.Username)
	ns.entries[entry.AppName] = cachedEntry{entry: entry, fetchedAt: c.now()}
	c.mu.Unlock()
	c.log.Info(ctx, "entry stored", "account", s.Username, "app", entry.AppName)
	return nil
}

// Delete removes the entry remotely first and drops the cached copy only
// after confirmation. Deleting an entry the remote does not have yields
// common.ErrNotFound.
func (c *EntryCache) Delete(ctx context.Context, s *session.Session, appName string) error {
	client, err := c.clientFor(ctx, s)
	if err != nil {
		return err
	}

	key := models.ParameterPath(s.Username, appName)
	err = c.withRetry(ctx, func(ctx context.Context) error {
		return client.Delete(ctx, key)
	})
	if err != nil {
		switch {
		case errors.Is(err, remote.ErrNotFound):
			return common.ErrNotFound
		case errors.Is(err, common.ErrRemoteCredentialRejected):
			return err
		}
		return fmt.Errorf("%w: %w", common.ErrRemoteWriteFailed, err)
	}

	c.mu.Lock()
	ns := c.namespace(s.Username)
	delete(ns.entries, appName)
	c.mu.Unlock()
	c.log.Info(ctx, "entry deleted", "account", s.Username, "app", appName)
	return nil
}

// Invalidate forces the next read of one key to bypass freshness and
// refetch. The cached value is kept for stale fallback.
func (c *EntryCache) Invalidate(s *session.Session, appName string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ns := c.namespace(s.Username)
	if ce, ok := ns.entries[appName]; ok {
		ce.fetchedAt = time.Time{}
		ns.entries[appName] = ce
	}
}

// InvalidateAll forces the next list (and every per-key read) of the
// session's account to refetch. Used after a batch of edits or an explicit
// user-triggered refresh.
func (c *EntryCache) InvalidateAll(s *session.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ns := c.namespace(s.Username)
	ns.snapshotAt = time.Time{}
	for k, ce := range ns.entries {
		ce.fetchedAt = time.Time{}
		ns.entries[k] = ce
	}
}

// Forget discards the remote client built for the session. The client holds
// the plaintext credential (inside its static credentials provider), so it
// must not outlive the session it was derived from. Called on logout.
func (c *EntryCache) Forget(s *session.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.clients, s.ID)
}

// clientFor rejects expired sessions, refreshes the idle-timeout clock, and
// returns the remote client bound to the session's credential. Clients are
// reused per session ID and discarded as soon as the session is no longer
// usable.
func (c *EntryCache) clientFor(ctx context.Context, s *session.Session) (remote.Client, error) {
	cred, err := c.sessions.Credential(s)
	if err != nil {
		c.Forget(s)
		return nil, err
	}
	c.sessions.Touch(s)

	c.mu.Lock()
	client, ok := c.clients[s.ID]
	c.mu.Unlock()
	if ok {
		return client, nil
	}

	client, err = c.newClient(ctx, cred)
	if err != nil {
		return nil, fmt.Errorf("building remote client: %w", err)
	}
	c.mu.Lock()
	c.clients[s.ID] = client
	c.mu.Unlock()
	return client, nil
}

// namespace returns the per-account cache bucket. Callers must hold c.mu.
func (c *EntryCache) namespace(username string) *namespace {
	ns, ok := c.namespaces[username]
	if !ok {
		ns = &namespace{entries: make(map[string]cachedEntry)}
		c.namespaces[username] = ns
	}
	return ns
}

func (ns *namespace) sorted() []models.PasswordEntry {
	result := make([]models.PasswordEntry, 0, len(ns.entries))
	for _, ce := range ns.entries {
		result = append(result, ce.entry)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].AppName < result[j].AppName })
	return result
}

// withRetry runs op, retrying transient remote errors (throttling,
// unavailability) with capped exponential backoff. Authorization errors are
// surfaced immediately as common.ErrRemoteCredentialRejected: they require
// re-login and never touch the local lockout counter. Exhausted retries
// collapse to common.ErrRemoteUnavailable.
func (c *EntryCache) withRetry(ctx context.Context, op func(ctx context.Context) error) error {
	backoff := retry.WithMaxRetries(c.maxRetries, retry.NewExponential(c.baseDelay))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if rerr := op(ctx); rerr != nil {
			if remote.Transient(rerr) {
				return retry.RetryableError(rerr)
			}
			return rerr
		}
		return nil
	})
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, remote.ErrUnauthorized):
		return fmt.Errorf("%w: %w", common.ErrRemoteCredentialRejected, err)
	case remote.Transient(err):
		return fmt.Errorf("%w: %w", common.ErrRemoteUnavailable, err)
	}
	return err
}
