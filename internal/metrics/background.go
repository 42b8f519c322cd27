package metrics

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/LavishGent/linernotes/internal/types"
)

// BackgroundPublisher publishes health metrics at regular intervals
// with context-based cancellation support.
type BackgroundPublisher struct {
	publisher types.Publisher
	logger    *slog.Logger
	getHealth func() *types.PublisherHealthMetrics
	cancel    context.CancelFunc
	ctx       context.Context
	wg        sync.WaitGroup
	interval  time.Duration
}

// NewBackgroundPublisher creates a new background publisher.
// The healthFn is called on each interval to get the current health metrics.
func NewBackgroundPublisher(
	publisher types.Publisher,
	interval time.Duration,
	healthFn func() *types.PublisherHealthMetrics,
	logger *slog.Logger,
) *BackgroundPublisher {
	if logger == nil {
		logger = slog.Default()
	}

	return &BackgroundPublisher{
		publisher: publisher,
		interval:  interval,
		logger:    logger.With("component", "metrics-background"),
		getHealth: healthFn,
	}
}

// Start begins the background publishing loop. A non-positive interval
// leaves the publisher idle; PublishNow still works.
func (b *BackgroundPublisher) Start(ctx context.Context) {
	if b.interval <= 0 {
		return
	}
	b.ctx, b.cancel = context.WithCancel(ctx)
	b.wg.Add(1)
	go b.run()
	b.logger.Info("Background metrics publisher started", "interval", b.interval)
}

// Stop cancels the background context and waits for shutdown.
func (b *BackgroundPublisher) Stop() {
	if b.cancel == nil {
		return
	}
	b.cancel()
	b.wg.Wait()
	b.logger.Info("Background metrics publisher stopped")
}

func (b *BackgroundPublisher) run() {
	defer b.wg.Done()

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-b.ctx.Done():
			// Final publish before stopping
			b.publish()
			return
		case <-ticker.C:
			b.publish()
		}
	}
}

func (b *BackgroundPublisher) publish() {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Recovered from panic in metrics publisher", "panic", r)
		}
	}()

	if b.getHealth == nil {
		return
	}

	metrics := b.getHealth()
	if metrics != nil {
		b.publisher.PublishHealthMetrics(metrics)
	}
}

// PublishNow triggers an immediate metrics publish.
func (b *BackgroundPublisher) PublishNow() {
	b.publish()
}

// HealthFromStats builds the periodic health sample from cache stats and a
// tracker snapshot.
func HealthFromStats(stats types.CacheStats, snapshot types.MetricsSnapshot, circuitOpen, connected bool) *types.PublisherHealthMetrics {
	h := &types.PublisherHealthMetrics{
		CacheEntries:     int64(stats.TotalEntries),
		CacheMaxEntries:  int64(stats.MaxEntries),
		CacheExpired:     int64(stats.ExpiredEntries),
		HitRatio:         stats.HitRatio(),
		AverageLatencyMs: snapshot.AvgLatencyMs,
		CircuitOpen:      circuitOpen,
		IsConnected:      connected,
	}
	if stats.MaxEntries > 0 {
		h.CacheUsageRatio = float64(stats.TotalEntries) / float64(stats.MaxEntries)
	}
	return h
}
