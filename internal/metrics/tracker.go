// Package metrics provides enrichment metrics collection and publishing.
package metrics

import (
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/LavishGent/linernotes/internal/types"
)

const (
	defaultLatencyBufferSize = 10000
)

// Tracker keeps in-process counters and a ring of recent enrich latencies.
type Tracker struct {
	cacheHits   atomic.Int64
	cacheMisses atomic.Int64
	cacheStores atomic.Int64
	evictions   atomic.Int64

	fetchCount  atomic.Int64
	fetchFailed atomic.Int64
	retryCount  atomic.Int64

	enrichCount  atomic.Int64
	partialCount atomic.Int64

	errorCount atomic.Int64

	latencyMu     sync.RWMutex
	latencyBuffer []time.Duration
	latencyIndex  int
	latencyCount  int

	bytesStored atomic.Int64

	cbStateChanges atomic.Int64
}

func NewTracker() *Tracker {
	return &Tracker{
		latencyBuffer: make([]time.Duration, defaultLatencyBufferSize),
	}
}

func (t *Tracker) RecordCacheHit(slot string, latency time.Duration) {
	t.cacheHits.Add(1)
}

func (t *Tracker) RecordCacheMiss(slot string, latency time.Duration) {
	t.cacheMisses.Add(1)
}

func (t *Tracker) RecordCacheStore(slot string, size int, latency time.Duration) {
	t.cacheStores.Add(1)
	t.bytesStored.Add(int64(size))
}

func (t *Tracker) RecordEviction(reason string, count int) {
	t.evictions.Add(int64(count))
}

// RecordFetch counts an upstream fetch. Any outcome other than success is a failure.
func (t *Tracker) RecordFetch(slot string, outcome string, latency time.Duration) {
	t.fetchCount.Add(1)
	if outcome != "success" {
		t.fetchFailed.Add(1)
	}
}

func (t *Tracker) RecordRetry(operation string, kind string) {
	t.retryCount.Add(1)
}

// RecordEnrich records one finished enrich call and its end-to-end latency.
func (t *Tracker) RecordEnrich(failedSlots int, latency time.Duration) {
	t.enrichCount.Add(1)
	if failedSlots > 0 {
		t.partialCount.Add(1)
	}
	t.recordLatency(latency)
}

// RecordError records an error.
func (t *Tracker) RecordError(component string, operation string, err error) {
	t.errorCount.Add(1)
}

// RecordCircuitBreakerStateChange records circuit breaker state transitions.
func (t *Tracker) RecordCircuitBreakerStateChange(from, to string) {
	t.cbStateChanges.Add(1)
}

// recordLatency adds a latency measurement to the ring buffer.
func (t *Tracker) recordLatency(latency time.Duration) {
	t.latencyMu.Lock()
	t.latencyBuffer[t.latencyIndex] = latency
	t.latencyIndex = (t.latencyIndex + 1) % len(t.latencyBuffer)
	if t.latencyCount < len(t.latencyBuffer) {
		t.latencyCount++
	}
	t.latencyMu.Unlock()
}

// Snapshot returns current metrics snapshot.
func (t *Tracker) Snapshot() types.MetricsSnapshot {
	t.latencyMu.RLock()
	count := t.latencyCount
	latencies := make([]time.Duration, count)
	if count > 0 {
		if count < len(t.latencyBuffer) {
			copy(latencies, t.latencyBuffer[:count])
		} else {
			// Full ring: the oldest sample sits at latencyIndex.
			head := len(t.latencyBuffer) - t.latencyIndex
			copy(latencies[:head], t.latencyBuffer[t.latencyIndex:])
			copy(latencies[head:], t.latencyBuffer[:t.latencyIndex])
		}
	}
	t.latencyMu.RUnlock()

	snapshot := types.MetricsSnapshot{
		Timestamp:             time.Now(),
		CacheHits:             t.cacheHits.Load(),
		CacheMisses:           t.cacheMisses.Load(),
		CacheStores:           t.cacheStores.Load(),
		Evictions:             t.evictions.Load(),
		FetchCount:            t.fetchCount.Load(),
		FetchFailed:           t.fetchFailed.Load(),
		RetryCount:            t.retryCount.Load(),
		EnrichCount:           t.enrichCount.Load(),
		PartialCount:          t.partialCount.Load(),
		ErrorCount:            t.errorCount.Load(),
		CircuitBreakerChanges: t.cbStateChanges.Load(),
		BytesStored:           t.bytesStored.Load(),
	}

	if len(latencies) > 0 {
		slices.Sort(latencies)
		snapshot.AvgLatencyMs = durationMs(avgDuration(latencies))
		snapshot.P50LatencyMs = durationMs(percentile(latencies, 50))
		snapshot.P95LatencyMs = durationMs(percentile(latencies, 95))
		snapshot.P99LatencyMs = durationMs(percentile(latencies, 99))
	}

	return snapshot
}

// Reset clears all metrics.
func (t *Tracker) Reset() {
	t.cacheHits.Store(0)
	t.cacheMisses.Store(0)
	t.cacheStores.Store(0)
	t.evictions.Store(0)
	t.fetchCount.Store(0)
	t.fetchFailed.Store(0)
	t.retryCount.Store(0)
	t.enrichCount.Store(0)
	t.partialCount.Store(0)
	t.errorCount.Store(0)
	t.bytesStored.Store(0)
	t.cbStateChanges.Store(0)

	t.latencyMu.Lock()
	t.latencyIndex = 0
	t.latencyCount = 0
	t.latencyMu.Unlock()
}

func durationMs(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func avgDuration(durations []time.Duration) time.Duration {
	if len(durations) == 0 {
		return 0
	}
	var total time.Duration
	for _, d := range durations {
		total += d
	}
	return total / time.Duration(len(durations))
}

// percentile expects sorted input.
func percentile(sorted []time.Duration, p int) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := (len(sorted) - 1) * p / 100
	return sorted[idx]
}

var _ types.MetricsRecorder = (*Tracker)(nil)
