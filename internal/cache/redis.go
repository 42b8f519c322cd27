package cache

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/LavishGent/linernotes/internal/config"
	"github.com/LavishGent/linernotes/internal/types"
)

const (
	disconnectErrorThreshold = 5
	redisScanBatch           = 100
)

// RedisStore is a shared substrate backed by Redis. Keys carry a native
// expiry equal to the entry TTL so abandoned entries do not accumulate.
type RedisStore struct {
	client *redis.Client
	config config.RedisConfig
	logger *slog.Logger

	mu            sync.RWMutex
	connected     atomic.Bool
	lastError     error
	lastErrorTime time.Time
	errorCount    atomic.Int64

	healthCheckStopCh chan struct{}
	healthCheckWg     sync.WaitGroup
	closeOnce         sync.Once
}

// NewRedisStore connects to Redis. A failed initial ping does not fail
// construction; the store reports unavailable until the health check
// restores the connection.
func NewRedisStore(cfg config.RedisConfig, logger *slog.Logger) (*RedisStore, error) {
	if logger == nil {
		logger = slog.Default()
	}

	opts := &redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password.Value(),
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolTimeout:  cfg.PoolTimeout,
	}

	if cfg.EnableTLS {
		opts.TLSConfig = &tls.Config{
			InsecureSkipVerify: cfg.TLSSkipVerify, //nolint:gosec // opt-in via config
		}
		if cfg.TLSSkipVerify {
			logger.Warn("TLS certificate verification is disabled - this is insecure for production use")
		}
	}

	return newRedisStore(redis.NewClient(opts), cfg, logger), nil
}

func newRedisStore(client *redis.Client, cfg config.RedisConfig, logger *slog.Logger) *RedisStore {
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 5 * time.Second
	}

	rs := &RedisStore{
		client:            client,
		config:            cfg,
		logger:            logger.With("component", "redis-store"),
		healthCheckStopCh: make(chan struct{}),
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.DialTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		rs.logger.Warn("Redis initial connection failed", "error", err)
		rs.setError(err)
	} else {
		rs.connected.Store(true)
		rs.logger.Info("Redis connected", "address", cfg.Address)
	}

	if cfg.HealthCheckInterval > 0 {
		rs.healthCheckWg.Add(1)
		go rs.healthCheckWorker()
	}

	return rs
}

// Name returns the substrate name.
func (s *RedisStore) Name() string {
	return "redis"
}

// IsAvailable reports whether Redis is currently reachable.
func (s *RedisStore) IsAvailable() bool {
	return s.connected.Load()
}

func (s *RedisStore) prefixKey(key string) string {
	return s.config.KeyPrefix + key
}

// Put writes an entry with a native expiry of entry.TTL.
func (s *RedisStore) Put(ctx context.Context, entry types.CacheEntry) error {
	if !s.connected.Load() {
		return types.ErrStoreUnavailable
	}

	key := entry.Key.String()
	data, err := EncodeEntry(entry)
	if err != nil {
		return types.NewCacheError("Put", key, "redis", err)
	}

	if err := s.client.Set(ctx, s.prefixKey(key), data, entry.TTL).Err(); err != nil {
		s.handleError(err)
		return types.NewCacheError("Put", key, "redis", err)
	}

	s.clearError()
	return nil
}

// Get reads an entry.
func (s *RedisStore) Get(ctx context.Context, key string) (types.CacheEntry, error) {
	if !s.connected.Load() {
		return types.CacheEntry{}, types.ErrStoreUnavailable
	}

	data, err := s.client.Get(ctx, s.prefixKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return types.CacheEntry{}, types.ErrCacheMiss
		}
		s.handleError(err)
		return types.CacheEntry{}, types.NewCacheError("Get", key, "redis", err)
	}

	s.clearError()
	entry, err := DecodeEntry(data)
	if err != nil {
		return types.CacheEntry{}, types.NewCacheError("Get", key, "redis", err)
	}
	return entry, nil
}

// Delete removes an entry.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if !s.connected.Load() {
		return types.ErrStoreUnavailable
	}

	if err := s.client.Del(ctx, s.prefixKey(key)).Err(); err != nil {
		s.handleError(err)
		return types.NewCacheError("Delete", key, "redis", err)
	}

	s.clearError()
	return nil
}

// Clear removes every key under the configured prefix.
func (s *RedisStore) Clear(ctx context.Context) error {
	if !s.connected.Load() {
		return types.ErrStoreUnavailable
	}

	var deleted int64
	err := s.scanKeys(ctx, func(keys []string) error {
		if err := s.client.Del(ctx, keys...).Err(); err != nil {
			return err
		}
		deleted += int64(len(keys))
		return nil
	})
	if err != nil {
		s.handleError(err)
		return types.NewCacheError("Clear", "", "redis", err)
	}

	s.logger.Debug("Cleared keys", "prefix", s.config.KeyPrefix, "deleted", deleted)
	s.clearError()
	return nil
}

// Scan visits every entry under the configured prefix.
func (s *RedisStore) Scan(ctx context.Context, fn func(types.CacheEntry) bool) error {
	if !s.connected.Load() {
		return types.ErrStoreUnavailable
	}

	errStop := errors.New("stop")
	err := s.scanKeys(ctx, func(keys []string) error {
		values, err := s.client.MGet(ctx, keys...).Result()
		if err != nil {
			return err
		}
		for i, v := range values {
			str, ok := v.(string)
			if !ok {
				continue
			}
			entry, err := DecodeEntry([]byte(str))
			if err != nil {
				s.logger.Debug("Skipping undecodable entry", "key", keys[i], "error", err)
				continue
			}
			if !fn(entry) {
				return errStop
			}
		}
		return nil
	})
	if errors.Is(err, errStop) {
		return nil
	}
	if err != nil {
		s.handleError(err)
		return types.NewCacheError("Scan", "", "redis", err)
	}

	s.clearError()
	return nil
}

func (s *RedisStore) scanKeys(ctx context.Context, fn func(keys []string) error) error {
	pattern := s.prefixKey("*")
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, pattern, redisScanBatch).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := fn(keys); err != nil {
				return err
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

func (s *RedisStore) healthCheckWorker() {
	defer s.healthCheckWg.Done()

	ticker := time.NewTicker(s.config.HealthCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.healthCheckStopCh:
			return
		case <-ticker.C:
			s.performHealthCheck()
		}
	}
}

func (s *RedisStore) performHealthCheck() {
	wasConnected := s.connected.Load()

	ctx, cancel := context.WithTimeout(context.Background(), s.config.DialTimeout)
	defer cancel()

	if err := s.client.Ping(ctx).Err(); err != nil {
		if wasConnected {
			s.logger.Warn("Redis health check failed", "error", err)
			s.setError(err)
		}
		return
	}

	if !wasConnected {
		s.connected.Store(true)
		s.errorCount.Store(0)
		s.logger.Info("Redis connection restored via health check")
	}
}

// Close stops the health check and closes the client.
func (s *RedisStore) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.connected.Store(false)
		close(s.healthCheckStopCh)
		s.healthCheckWg.Wait()
		err = s.client.Close()
	})
	return err
}

func (s *RedisStore) handleError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastError = err
	s.lastErrorTime = time.Now()
	count := s.errorCount.Add(1)

	if count >= disconnectErrorThreshold {
		if s.connected.CompareAndSwap(true, false) {
			s.logger.Warn("Redis marked as disconnected after errors",
				"error_count", count,
				"last_error", err,
			)
		}
	}
}

func (s *RedisStore) clearError() {
	s.errorCount.Store(0)
}

func (s *RedisStore) setError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastError = err
	s.lastErrorTime = time.Now()
	s.connected.Store(false)
}

// LastError returns the most recent Redis error and when it happened.
func (s *RedisStore) LastError() (error, time.Time) { //nolint:revive // mirrors (value, timestamp) ordering
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastError, s.lastErrorTime
}

// Ping checks the connection.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
