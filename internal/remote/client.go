// Package remote defines the parameter-store client capability consumed by
// the entry cache, and its AWS SSM implementation. Everything above this
// package talks in terms of the Client interface and the error kinds below,
// so the backend can be swapped or faked.
package remote

import (
	"context"
	"errors"
)

// Error kinds surfaced by Client implementations. The cache classifies them
// into retry/no-retry behavior; callers match with errors.Is.
var (
	ErrNotFound     = errors.New("parameter not found")
	ErrThrottled    = errors.New("request throttled")
	ErrUnauthorized = errors.New("request not authorized")
	ErrUnavailable  = errors.New("remote store unavailable")
)

// KV is one key/value pair returned by a prefix listing.
type KV struct {
	Key   string
	Value string
}

// Client is the remote parameter store capability.
//
// Contract:
//   - Get:          fails with ErrNotFound, ErrThrottled, ErrUnauthorized, ErrUnavailable.
//   - Put:          fails with ErrThrottled, ErrUnauthorized, ErrUnavailable.
//   - Delete:       fails with ErrNotFound, ErrUnauthorized, ErrUnavailable.
//   - ListByPrefix: fails with ErrThrottled, ErrUnauthorized, ErrUnavailable.
//
// All methods must honor context cancellation/timeouts.
type Client interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key, value string, overwrite bool) error
	Delete(ctx context.Context, key string) error
	ListByPrefix(ctx context.Context, prefix string) ([]KV, error)
}

// Transient reports whether err is worth retrying with backoff.
// Authorization failures are deliberately not transient: retrying them only
// burns attempts and delays the re-login prompt.
func Transient(err error) bool {
	return errors.Is(err, ErrThrottled) || errors.Is(err, ErrUnavailable)
}
