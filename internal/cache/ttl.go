package cache

import (
	"container/list"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/LavishGent/linernotes/internal/config"
	"github.com/LavishGent/linernotes/internal/types"
)

// EvictionReason labels why entries left the cache.
const (
	EvictionCapacity = "capacity"
	EvictionExpired  = "expired"
)

type indexEntry struct {
	key      string
	storedAt time.Time
	ttl      time.Duration
}

func (e *indexEntry) expiredAt(now time.Time) bool {
	return now.Sub(e.storedAt) > e.ttl
}

// TTLCache is a bounded cache of slot payloads with per-entry expiry.
//
// Entries live in a Store; the cache keeps an ordered index of what it has
// written so that capacity eviction drops the oldest insertion first. A
// single mutex serializes every operation, including reads, because a read
// of an expired entry removes it.
type TTLCache struct {
	mu    sync.Mutex
	store Store
	order *list.List
	index map[string]*list.Element

	maxEntries   int
	defaultTTL   time.Duration
	writeTimeout time.Duration
	slotTTL      map[types.ContentType]time.Duration

	now       func() time.Time
	metrics   types.MetricsRecorder
	logger    *slog.Logger
	validator *types.KeyValidator

	hits        atomic.Int64
	misses      atomic.Int64
	evictions   atomic.Int64
	expirations atomic.Int64
	closed      atomic.Bool
}

// Option configures a TTLCache.
type Option func(*TTLCache)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *TTLCache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(m types.MetricsRecorder) Option {
	return func(c *TTLCache) { c.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *TTLCache) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithValidator replaces the default entity id validator.
func WithValidator(v *types.KeyValidator) Option {
	return func(c *TTLCache) {
		if v != nil {
			c.validator = v
		}
	}
}

// NewTTLCache creates a cache over store and rebuilds its index from the
// entries store already holds. If the store holds more than MaxEntries, the
// oldest are evicted.
func NewTTLCache(ctx context.Context, store Store, cfg config.CacheConfig, opts ...Option) (*TTLCache, error) {
	if store == nil {
		return nil, errors.New("cache: store is required")
	}
	if cfg.MaxEntries <= 0 {
		return nil, fmt.Errorf("cache: maxEntries must be positive, got %d", cfg.MaxEntries)
	}
	if cfg.DefaultTTL <= 0 {
		return nil, fmt.Errorf("cache: defaultTTL must be positive, got %v", cfg.DefaultTTL)
	}

	slotTTL, err := parseSlotTTL(cfg.SlotTTL)
	if err != nil {
		return nil, err
	}

	c := &TTLCache{
		store:        store,
		order:        list.New(),
		index:        make(map[string]*list.Element),
		maxEntries:   cfg.MaxEntries,
		defaultTTL:   cfg.DefaultTTL,
		writeTimeout: cfg.WriteTimeout,
		slotTTL:      slotTTL,
		now:          time.Now,
		logger:       slog.Default(),
		validator:    types.DefaultKeyValidator,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "ttl-cache", "substrate", store.Name())

	if err := c.rebuild(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

func parseSlotTTL(raw map[string]time.Duration) (map[types.ContentType]time.Duration, error) {
	out := make(map[types.ContentType]time.Duration, len(raw))
	for name, ttl := range raw {
		ct, err := types.ParseContentType(name)
		if err != nil {
			return nil, fmt.Errorf("cache: slotTTL: %w", err)
		}
		if ttl <= 0 {
			return nil, fmt.Errorf("cache: slotTTL[%s] must be positive, got %v", name, ttl)
		}
		out[ct] = ttl
	}
	return out, nil
}

func (c *TTLCache) rebuild(ctx context.Context) error {
	var entries []indexEntry
	err := c.store.Scan(ctx, func(e types.CacheEntry) bool {
		entries = append(entries, indexEntry{key: e.Key.String(), storedAt: e.StoredAt, ttl: e.TTL})
		return true
	})
	if err != nil {
		if errors.Is(err, types.ErrStoreUnavailable) {
			c.logger.Warn("Substrate unavailable, starting with empty index", "error", err)
			return nil
		}
		return fmt.Errorf("cache: rebuild index: %w", err)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].storedAt.Before(entries[j].storedAt)
	})

	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range entries {
		e := entries[i]
		c.index[e.key] = c.order.PushBack(&e)
	}
	evicted := c.evictOverflowLocked(ctx)
	if len(entries) > 0 {
		c.logger.Info("Rebuilt cache index", "entries", c.order.Len(), "evicted", evicted)
	}
	return nil
}

// TTLFor returns the TTL configured for slot, falling back to the default.
func (c *TTLCache) TTLFor(slot types.ContentType) time.Duration {
	if ttl, ok := c.slotTTL[slot]; ok {
		return ttl
	}
	return c.defaultTTL
}

// Store inserts or replaces the payload for key. A ttl of zero or less uses
// the default TTL. The substrate write is detached from ctx cancellation so
// that a store either completes or leaves no trace.
func (c *TTLCache) Store(ctx context.Context, key types.CacheKey, payload string, ttl time.Duration) error {
	if c.closed.Load() {
		return types.ErrClosed
	}
	if err := c.validator.ValidateKey(key); err != nil {
		return err
	}
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	start := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	entry := types.CacheEntry{Key: key, Payload: payload, StoredAt: c.now(), TTL: ttl}

	wctx, cancel := c.writeContext(ctx)
	defer cancel()

	if err := c.store.Put(wctx, entry); err != nil {
		return err
	}

	if _, ok := c.store.(discarder); ok {
		return nil
	}

	k := key.String()
	if el, ok := c.index[k]; ok {
		c.order.Remove(el)
	}
	c.index[k] = c.order.PushBack(&indexEntry{key: k, storedAt: entry.StoredAt, ttl: ttl})

	c.evictOverflowLocked(wctx)

	if c.metrics != nil {
		c.metrics.RecordCacheStore(key.Type.String(), len(payload), time.Since(start))
	}
	return nil
}

func (c *TTLCache) writeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	detached := context.WithoutCancel(ctx)
	if c.writeTimeout > 0 {
		return context.WithTimeout(detached, c.writeTimeout)
	}
	return context.WithCancel(detached)
}

func (c *TTLCache) evictOverflowLocked(ctx context.Context) int {
	evicted := 0
	for c.order.Len() > c.maxEntries {
		front := c.order.Front()
		ie := front.Value.(*indexEntry)
		if err := c.store.Delete(ctx, ie.key); err != nil {
			c.logger.Warn("Failed to delete evicted entry", "key", ie.key, "error", err)
		}
		c.order.Remove(front)
		delete(c.index, ie.key)
		evicted++
	}
	if evicted > 0 {
		c.evictions.Add(int64(evicted))
		if c.metrics != nil {
			c.metrics.RecordEviction(EvictionCapacity, evicted)
		}
	}
	return evicted
}

// Retrieve returns the live payload for key. An expired entry is removed
// and reported as absent.
func (c *TTLCache) Retrieve(ctx context.Context, key types.CacheKey) (string, bool) {
	if c.closed.Load() {
		return "", false
	}
	if err := c.validator.ValidateKey(key); err != nil {
		return "", false
	}

	start := time.Now()
	slot := key.Type.String()
	k := key.String()

	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.index[k]
	if !ok {
		c.recordMiss(slot, start)
		return "", false
	}

	ie := el.Value.(*indexEntry)
	if ie.expiredAt(c.now()) {
		c.removeLocked(ctx, el)
		c.expirations.Add(1)
		if c.metrics != nil {
			c.metrics.RecordEviction(EvictionExpired, 1)
		}
		c.recordMiss(slot, start)
		return "", false
	}

	entry, err := c.store.Get(ctx, k)
	if err != nil {
		if errors.Is(err, types.ErrCacheMiss) {
			c.order.Remove(el)
			delete(c.index, k)
		} else {
			c.logger.Debug("Substrate read failed", "key", k, "error", err)
		}
		c.recordMiss(slot, start)
		return "", false
	}

	c.hits.Add(1)
	if c.metrics != nil {
		c.metrics.RecordCacheHit(slot, time.Since(start))
	}
	return entry.Payload, true
}

func (c *TTLCache) recordMiss(slot string, start time.Time) {
	c.misses.Add(1)
	if c.metrics != nil {
		c.metrics.RecordCacheMiss(slot, time.Since(start))
	}
}

func (c *TTLCache) removeLocked(ctx context.Context, el *list.Element) {
	ie := el.Value.(*indexEntry)
	dctx, cancel := c.writeContext(ctx)
	defer cancel()
	if err := c.store.Delete(dctx, ie.key); err != nil {
		c.logger.Warn("Failed to delete entry", "key", ie.key, "error", err)
	}
	c.order.Remove(el)
	delete(c.index, ie.key)
}

// Remove deletes key if present.
func (c *TTLCache) Remove(ctx context.Context, key types.CacheKey) error {
	if c.closed.Load() {
		return types.ErrClosed
	}

	k := key.String()

	c.mu.Lock()
	defer c.mu.Unlock()

	dctx, cancel := c.writeContext(ctx)
	defer cancel()
	if err := c.store.Delete(dctx, k); err != nil {
		return err
	}
	if el, ok := c.index[k]; ok {
		c.order.Remove(el)
		delete(c.index, k)
	}
	return nil
}

// ClearAll removes every entry.
func (c *TTLCache) ClearAll(ctx context.Context) error {
	if c.closed.Load() {
		return types.ErrClosed
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	dctx, cancel := c.writeContext(ctx)
	defer cancel()
	if err := c.store.Clear(dctx); err != nil {
		return err
	}
	c.order.Init()
	c.index = make(map[string]*list.Element)
	return nil
}

// ClearExpired scans every entry and removes the expired ones, returning how
// many were removed.
func (c *TTLCache) ClearExpired(ctx context.Context) int {
	if c.closed.Load() {
		return 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for el := c.order.Front(); el != nil; {
		next := el.Next()
		if el.Value.(*indexEntry).expiredAt(now) {
			c.removeLocked(ctx, el)
			removed++
		}
		el = next
	}

	if removed > 0 {
		c.expirations.Add(int64(removed))
		if c.metrics != nil {
			c.metrics.RecordEviction(EvictionExpired, removed)
		}
	}
	return removed
}

// Stats returns entry counts from a full scan plus lifetime counters.
func (c *TTLCache) Stats() types.CacheStats {
	c.mu.Lock()
	now := c.now()
	total := c.order.Len()
	expired := 0
	for el := c.order.Front(); el != nil; el = el.Next() {
		if el.Value.(*indexEntry).expiredAt(now) {
			expired++
		}
	}
	c.mu.Unlock()

	return types.CacheStats{
		Substrate:      c.store.Name(),
		TotalEntries:   total,
		ExpiredEntries: expired,
		MaxEntries:     c.maxEntries,
		Hits:           c.hits.Load(),
		Misses:         c.misses.Load(),
		Evictions:      c.evictions.Load(),
		Expirations:    c.expirations.Load(),
	}
}

// Len returns the number of indexed entries, expired ones included.
func (c *TTLCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// IsAvailable reports whether the cache is open and its substrate reachable.
func (c *TTLCache) IsAvailable() bool {
	return !c.closed.Load() && storeAvailable(c.store)
}

// Substrate returns the name of the underlying store.
func (c *TTLCache) Substrate() string {
	return c.store.Name()
}

// Close closes the substrate. Later operations fail with ErrClosed.
func (c *TTLCache) Close() error {
	if c.closed.Swap(true) {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Close()
}
