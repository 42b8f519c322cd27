package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Sweeper periodically removes expired entries from a TTLCache.
type Sweeper struct {
	cache    *TTLCache
	logger   *slog.Logger
	cancel   context.CancelFunc
	ctx      context.Context
	wg       sync.WaitGroup
	interval time.Duration
}

// NewSweeper creates a sweeper that runs every interval once started.
func NewSweeper(cache *TTLCache, interval time.Duration, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		cache:    cache,
		interval: interval,
		logger:   logger.With("component", "cache-sweeper"),
	}
}

// Start begins sweeping. A non-positive interval leaves the sweeper idle.
// The provided context controls the lifecycle of the background goroutine.
func (s *Sweeper) Start(ctx context.Context) {
	if s.interval <= 0 {
		s.logger.Debug("Sweeper disabled")
		return
	}
	s.ctx, s.cancel = context.WithCancel(ctx)
	s.wg.Add(1)
	go s.run()
	s.logger.Info("Cache sweeper started", "interval", s.interval)
}

// Stop cancels the sweep loop and waits for it to exit.
func (s *Sweeper) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	s.wg.Wait()
	s.logger.Info("Cache sweeper stopped")
}

func (s *Sweeper) run() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			s.SweepNow(s.ctx)
		}
	}
}

// SweepNow runs one sweep and returns the number of entries removed.
func (s *Sweeper) SweepNow(ctx context.Context) (removed int) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Recovered from panic in cache sweeper", "panic", r)
		}
	}()

	removed = s.cache.ClearExpired(ctx)
	if removed > 0 {
		s.logger.Info("Swept expired entries", "removed", removed)
	}
	return removed
}
