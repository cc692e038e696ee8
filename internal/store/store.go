// internal/store/store.go
//
// Key/value persistence for per-player state.
// Backends:
//   - memory: map guarded by an RWMutex (development, tests).
//   - sqlite: single `kv` table, migrations embedded in the binary.
//   - redis:  plain string keys with an optional TTL.
//
// Values are opaque strings; callers own the encoding.
package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned by Get when the key has no value.
var ErrNotFound = errors.New("not found")

// KV is the storage contract shared by every backend.
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	Close() error
}
