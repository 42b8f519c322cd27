package metrics

import (
	"time"

	"github.com/LavishGent/linernotes/internal/types"
)

// Metric names emitted by PublisherRecorder.
const (
	MetricCacheHit      = "cache.hit"
	MetricCacheMiss     = "cache.miss"
	MetricCacheStore    = "cache.store"
	MetricCacheBytes    = "cache.bytes"
	MetricEviction      = "cache.eviction"
	MetricFetch         = "fetch"
	MetricFetchLatency  = "fetch.latency"
	MetricRetry         = "retry"
	MetricEnrich        = "enrich"
	MetricEnrichLatency = "enrich.latency"
	MetricFailedSlots   = "enrich.failed_slots"
	MetricError         = "error"
	MetricCircuitChange = "circuit_breaker.state_change"
)

// PublisherRecorder turns recorder events into publisher metrics, so a
// StatsD or logging publisher sees every event as it happens.
type PublisherRecorder struct {
	publisher types.Publisher
}

func NewPublisherRecorder(publisher types.Publisher) *PublisherRecorder {
	return &PublisherRecorder{publisher: publisher}
}

func (r *PublisherRecorder) RecordCacheHit(slot string, latency time.Duration) {
	r.publisher.Incr(MetricCacheHit, SlotTag(slot))
}

func (r *PublisherRecorder) RecordCacheMiss(slot string, latency time.Duration) {
	r.publisher.Incr(MetricCacheMiss, SlotTag(slot))
}

func (r *PublisherRecorder) RecordCacheStore(slot string, size int, latency time.Duration) {
	r.publisher.Incr(MetricCacheStore, SlotTag(slot))
	r.publisher.Histogram(MetricCacheBytes, float64(size), SlotTag(slot))
}

func (r *PublisherRecorder) RecordEviction(reason string, count int) {
	r.publisher.Count(MetricEviction, int64(count), ReasonTag(reason))
}

func (r *PublisherRecorder) RecordFetch(slot, outcome string, latency time.Duration) {
	r.publisher.Incr(MetricFetch, SlotTag(slot), OutcomeTag(outcome))
	r.publisher.Timing(MetricFetchLatency, latency, SlotTag(slot))
}

func (r *PublisherRecorder) RecordRetry(operation, kind string) {
	r.publisher.Incr(MetricRetry, OperationTag(operation), KindTag(kind))
}

func (r *PublisherRecorder) RecordEnrich(failedSlots int, latency time.Duration) {
	r.publisher.Incr(MetricEnrich)
	r.publisher.Histogram(MetricFailedSlots, float64(failedSlots))
	r.publisher.Timing(MetricEnrichLatency, latency)
}

func (r *PublisherRecorder) RecordError(component, operation string, err error) {
	r.publisher.Incr(MetricError, ComponentTag(component), OperationTag(operation))
}

func (r *PublisherRecorder) RecordCircuitBreakerStateChange(from, to string) {
	r.publisher.Incr(MetricCircuitChange, Tag("from", from), CircuitStateTag(to))
	r.publisher.Event("Circuit breaker "+to, "catalog circuit breaker moved from "+from+" to "+to, alertTypeFor(to))
}

func alertTypeFor(state string) string {
	switch state {
	case "open":
		return "error"
	case "half-open":
		return "warning"
	default:
		return "success"
	}
}

// Fanout delivers every event to each of its recorders in order.
type Fanout []types.MetricsRecorder

// NewFanout drops nil recorders. It returns the single recorder unwrapped
// when only one remains, and nil when none do.
func NewFanout(recorders ...types.MetricsRecorder) types.MetricsRecorder {
	var f Fanout
	for _, r := range recorders {
		if r != nil {
			f = append(f, r)
		}
	}
	switch len(f) {
	case 0:
		return nil
	case 1:
		return f[0]
	}
	return f
}

func (f Fanout) RecordCacheHit(slot string, latency time.Duration) {
	for _, r := range f {
		r.RecordCacheHit(slot, latency)
	}
}

func (f Fanout) RecordCacheMiss(slot string, latency time.Duration) {
	for _, r := range f {
		r.RecordCacheMiss(slot, latency)
	}
}

func (f Fanout) RecordCacheStore(slot string, size int, latency time.Duration) {
	for _, r := range f {
		r.RecordCacheStore(slot, size, latency)
	}
}

func (f Fanout) RecordEviction(reason string, count int) {
	for _, r := range f {
		r.RecordEviction(reason, count)
	}
}

func (f Fanout) RecordFetch(slot, outcome string, latency time.Duration) {
	for _, r := range f {
		r.RecordFetch(slot, outcome, latency)
	}
}

func (f Fanout) RecordRetry(operation, kind string) {
	for _, r := range f {
		r.RecordRetry(operation, kind)
	}
}

func (f Fanout) RecordEnrich(failedSlots int, latency time.Duration) {
	for _, r := range f {
		r.RecordEnrich(failedSlots, latency)
	}
}

func (f Fanout) RecordError(component, operation string, err error) {
	for _, r := range f {
		r.RecordError(component, operation, err)
	}
}

func (f Fanout) RecordCircuitBreakerStateChange(from, to string) {
	for _, r := range f {
		r.RecordCircuitBreakerStateChange(from, to)
	}
}

var (
	_ types.MetricsRecorder = (*PublisherRecorder)(nil)
	_ types.MetricsRecorder = Fanout(nil)
)
