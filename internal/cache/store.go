// Package cache implements the TTL cache used to hold enrichment payloads and
// the storage substrates it can sit on.
package cache

import (
	"context"

	"github.com/LavishGent/linernotes/internal/types"
)

// Store is a storage substrate for cache entries. Keys are the rendered form
// of types.CacheKey. Get returns types.ErrCacheMiss when the key is absent.
//
// A Store does no expiry or capacity bookkeeping of its own that the TTLCache
// relies on; the cache decides what is live.
type Store interface {
	Name() string
	Put(ctx context.Context, entry types.CacheEntry) error
	Get(ctx context.Context, key string) (types.CacheEntry, error)
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
	// Scan calls fn for every stored entry until fn returns false.
	Scan(ctx context.Context, fn func(types.CacheEntry) bool) error
	Close() error
}

// AvailabilityChecker is implemented by substrates that track their own
// connection state.
type AvailabilityChecker interface {
	IsAvailable() bool
}

// discarder is implemented by substrates that never retain entries.
type discarder interface {
	Discards() bool
}

func storeAvailable(s Store) bool {
	if ac, ok := s.(AvailabilityChecker); ok {
		return ac.IsAvailable()
	}
	return true
}
