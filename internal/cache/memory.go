package cache

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/allegro/bigcache/v3"

	"github.com/LavishGent/linernotes/internal/config"
	"github.com/LavishGent/linernotes/internal/types"
)

const (
	defaultLifeWindow   = 30 * 24 * time.Hour
	defaultShards       = 16
	defaultMaxEntrySize = 4 * 1024
)

// MemoryStore is an in-process substrate backed by BigCache.
//
// BigCache's own LifeWindow is kept far above any entry TTL; expiry is
// decided by the TTLCache so that eviction order stays insertion order.
type MemoryStore struct {
	cache  *bigcache.BigCache
	config config.MemoryConfig
	logger *slog.Logger

	evictions atomic.Int64
	closed    atomic.Bool
}

// NewMemoryStore creates a BigCache substrate sized for roughly maxEntries entries.
func NewMemoryStore(cfg config.MemoryConfig, maxEntries int, logger *slog.Logger) (*MemoryStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.LifeWindow <= 0 {
		cfg.LifeWindow = defaultLifeWindow
	}
	if cfg.Shards <= 0 {
		cfg.Shards = defaultShards
	}
	if cfg.MaxEntrySize <= 0 {
		cfg.MaxEntrySize = defaultMaxEntrySize
	}
	if maxEntries <= 0 {
		maxEntries = cfg.Shards
	}

	ms := &MemoryStore{
		config: cfg,
		logger: logger.With("component", "memory-store"),
	}

	bcConfig := bigcache.Config{
		Shards:             cfg.Shards,
		LifeWindow:         cfg.LifeWindow,
		CleanWindow:        0,
		MaxEntriesInWindow: maxEntries,
		MaxEntrySize:       cfg.MaxEntrySize,
		HardMaxCacheSize:   cfg.MaxSizeMB,
		Verbose:            false,
		Logger:             &bigcacheLogger{logger: ms.logger},
		OnRemoveWithReason: func(key string, entry []byte, reason bigcache.RemoveReason) {
			if reason == bigcache.NoSpace || reason == bigcache.Expired {
				ms.evictions.Add(1)
			}
		},
	}

	bc, err := bigcache.New(context.Background(), bcConfig)
	if err != nil {
		return nil, err
	}

	ms.cache = bc
	return ms, nil
}

// Name returns the substrate name.
func (s *MemoryStore) Name() string {
	return "memory"
}

// IsAvailable returns true if the store is not closed.
func (s *MemoryStore) IsAvailable() bool {
	return !s.closed.Load()
}

// Put writes an entry, replacing any previous value for its key.
func (s *MemoryStore) Put(ctx context.Context, entry types.CacheEntry) error {
	if s.closed.Load() {
		return types.ErrClosed
	}

	key := entry.Key.String()
	data, err := EncodeEntry(entry)
	if err != nil {
		return types.NewCacheError("Put", key, "memory", err)
	}
	if err := s.cache.Set(key, data); err != nil {
		return types.NewCacheError("Put", key, "memory", err)
	}
	return nil
}

// Get reads an entry.
func (s *MemoryStore) Get(ctx context.Context, key string) (types.CacheEntry, error) {
	if s.closed.Load() {
		return types.CacheEntry{}, types.ErrClosed
	}

	data, err := s.cache.Get(key)
	if err != nil {
		if errors.Is(err, bigcache.ErrEntryNotFound) {
			return types.CacheEntry{}, types.ErrCacheMiss
		}
		return types.CacheEntry{}, types.NewCacheError("Get", key, "memory", err)
	}

	entry, err := DecodeEntry(data)
	if err != nil {
		return types.CacheEntry{}, types.NewCacheError("Get", key, "memory", err)
	}
	return entry, nil
}

// Delete removes an entry. Deleting an absent key is not an error.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	if s.closed.Load() {
		return types.ErrClosed
	}

	if err := s.cache.Delete(key); err != nil && !errors.Is(err, bigcache.ErrEntryNotFound) {
		return types.NewCacheError("Delete", key, "memory", err)
	}
	return nil
}

// Clear removes every entry.
func (s *MemoryStore) Clear(ctx context.Context) error {
	if s.closed.Load() {
		return types.ErrClosed
	}
	return s.cache.Reset()
}

// Scan iterates over every decodable entry. Undecodable values are skipped.
func (s *MemoryStore) Scan(ctx context.Context, fn func(types.CacheEntry) bool) error {
	if s.closed.Load() {
		return types.ErrClosed
	}

	iter := s.cache.Iterator()
	for iter.SetNext() {
		if err := ctx.Err(); err != nil {
			return err
		}
		info, err := iter.Value()
		if err != nil {
			continue
		}
		entry, err := DecodeEntry(info.Value())
		if err != nil {
			s.logger.Debug("Skipping undecodable entry", "key", info.Key(), "error", err)
			continue
		}
		if !fn(entry) {
			return nil
		}
	}
	return nil
}

// Close releases the underlying BigCache.
func (s *MemoryStore) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	return s.cache.Close()
}

// Len returns the number of entries BigCache holds.
func (s *MemoryStore) Len() int {
	return s.cache.Len()
}

// Evictions returns how many entries BigCache dropped on its own.
func (s *MemoryStore) Evictions() int64 {
	return s.evictions.Load()
}

type bigcacheLogger struct {
	logger *slog.Logger
}

func (l *bigcacheLogger) Printf(format string, args ...any) {
	l.logger.Debug("bigcache: "+format, args...)
}
