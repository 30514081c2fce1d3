// Package memo is the memoization layer of the pipeline: it associates a
// composite cache key and a source fingerprint with the result of any pure
// analysis or transformation step, and recomputes on fingerprint mismatch.
package memo

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"routechunks/internal/slogutil"
	"routechunks/internal/storage"
)

// keySep separates composite key parts. NUL cannot appear in operation names
// or export names, so composed keys never collide.
const keySep = "\x00"

// Key composes a caller-supplied cache key with an operation name and
// operation-specific parameters into a deterministic store key.
func Key(base, op string, params ...string) string {
	parts := append([]string{base, op}, params...)
	return strings.Join(parts, keySep)
}

// Cache wraps a backing store with the get-or-compute contract. Values
// round-trip through JSON, so a cached value can never alias a live one and
// mutations by callers never reach the store.
type Cache struct {
	store  storage.Store
	logger *slog.Logger
}

// New creates a cache over the given store. A nil store gets an in-memory
// one; a nil logger is discarded.
func New(store storage.Store, logger *slog.Logger) *Cache {
	if store == nil {
		store = storage.NewMemory()
	}
	if logger == nil {
		logger = slogutil.NewDiscardLogger()
	}
	return &Cache{store: store, logger: logger}
}

// GetOrSet returns the stored value under key if its fingerprint equals
// fingerprint; otherwise it computes, stores and returns a fresh value.
// Store failures degrade to recomputation and are logged, never surfaced:
// the pipeline is pure and a dead cache only costs time. Concurrent callers
// under the same key may race the store; either value wins and both calls
// return an equivalent result.
func GetOrSet[T any](c *Cache, key, fingerprint string, compute func() (T, error)) (T, error) {
	var zero T

	entry, ok, err := c.store.Get(key)
	if err != nil {
		c.logger.Warn("cache read failed", "key", key, "error", err)
	} else if ok && entry.Fingerprint == fingerprint {
		var value T
		if err := json.Unmarshal(entry.Value, &value); err == nil {
			return value, nil
		}
		c.logger.Warn("cache entry undecodable, recomputing", "key", key)
	}

	value, err := compute()
	if err != nil {
		return zero, err
	}

	data, err := json.Marshal(value)
	if err != nil {
		return zero, fmt.Errorf("encode cache value: %w", err)
	}
	if err := c.store.Set(key, storage.Entry{Fingerprint: fingerprint, Value: data}); err != nil {
		c.logger.Warn("cache write failed", "key", key, "error", err)
	}
	return value, nil
}
