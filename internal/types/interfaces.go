package types

import (
	"context"
	"time"
)

// EntityResolver maps a raw entity name to its canonical id.
type EntityResolver interface {
	Resolve(ctx context.Context, name string) (string, error)
}

// ContentFetcher loads the payload of one slot for a resolved entity.
type ContentFetcher interface {
	Fetch(ctx context.Context, entityID string, slot ContentType) (string, error)
}

// ConnectivityMonitor reports whether the network is currently reachable.
type ConnectivityMonitor interface {
	IsConnected() bool
}

// ResolverFunc adapts a function to EntityResolver.
type ResolverFunc func(ctx context.Context, name string) (string, error)

func (f ResolverFunc) Resolve(ctx context.Context, name string) (string, error) {
	return f(ctx, name)
}

// FetcherFunc adapts a function to ContentFetcher.
type FetcherFunc func(ctx context.Context, entityID string, slot ContentType) (string, error)

func (f FetcherFunc) Fetch(ctx context.Context, entityID string, slot ContentType) (string, error) {
	return f(ctx, entityID, slot)
}

type MetricsRecorder interface {
	RecordCacheHit(slot string, latency time.Duration)
	RecordCacheMiss(slot string, latency time.Duration)
	RecordCacheStore(slot string, size int, latency time.Duration)
	RecordEviction(reason string, count int)
	RecordFetch(slot string, outcome string, latency time.Duration)
	RecordRetry(operation string, kind string)
	RecordEnrich(failedSlots int, latency time.Duration)
	RecordError(component string, operation string, err error)
	RecordCircuitBreakerStateChange(from, to string)
}

// Publisher sends metrics to an external backend.
type Publisher interface {
	Gauge(name string, value float64, tags ...string)
	Incr(name string, tags ...string)
	Count(name string, value int64, tags ...string)
	Histogram(name string, value float64, tags ...string)
	Timing(name string, duration time.Duration, tags ...string)
	Event(title, text string, alertType string, tags ...string)
	PublishHealthMetrics(metrics *PublisherHealthMetrics)
	Close() error
}

// PublisherHealthMetrics is the periodic health sample sent to a Publisher.
type PublisherHealthMetrics struct {
	CacheEntries     int64
	CacheMaxEntries  int64
	CacheExpired     int64
	CacheUsageRatio  float64
	HitRatio         float64
	AverageLatencyMs float64
	CircuitOpen      bool
	IsConnected      bool
}

type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}
