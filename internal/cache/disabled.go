package cache

import (
	"context"

	"github.com/LavishGent/linernotes/internal/types"
)

// DisabledStore is a substrate that never retains anything.
type DisabledStore struct{}

// NewDisabledStore creates a new disabled store.
func NewDisabledStore() *DisabledStore {
	return &DisabledStore{}
}

// Name returns the substrate name.
func (s *DisabledStore) Name() string { return "disabled" }

// IsAvailable returns false as this store is disabled.
func (s *DisabledStore) IsAvailable() bool { return false }

// Discards reports that written entries are dropped.
func (s *DisabledStore) Discards() bool { return true }

// Put drops the entry.
func (s *DisabledStore) Put(ctx context.Context, entry types.CacheEntry) error { return nil }

// Get returns ErrCacheMiss as this store is disabled.
func (s *DisabledStore) Get(ctx context.Context, key string) (types.CacheEntry, error) {
	return types.CacheEntry{}, types.ErrCacheMiss
}

// Delete does nothing as this store is disabled.
func (s *DisabledStore) Delete(ctx context.Context, key string) error { return nil }

// Clear does nothing as this store is disabled.
func (s *DisabledStore) Clear(ctx context.Context) error { return nil }

// Scan visits nothing.
func (s *DisabledStore) Scan(ctx context.Context, fn func(types.CacheEntry) bool) error {
	return nil
}

// Close does nothing as this store is disabled.
func (s *DisabledStore) Close() error { return nil }
