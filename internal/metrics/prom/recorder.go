// Package prom records enrichment metrics as Prometheus collectors.
package prom

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/LavishGent/linernotes/internal/types"
)

// Recorder implements types.MetricsRecorder on its own registry, so several
// clients in one process do not collide on the default registerer.
type Recorder struct {
	registry *prometheus.Registry

	cacheLookups  *prometheus.CounterVec
	cacheStores   *prometheus.CounterVec
	cacheBytes    prometheus.Counter
	evictions     *prometheus.CounterVec
	fetches       *prometheus.CounterVec
	fetchLatency  *prometheus.HistogramVec
	retries       *prometheus.CounterVec
	enrichLatency prometheus.Histogram
	failedSlots   prometheus.Histogram
	errors        *prometheus.CounterVec
	circuitState  *prometheus.CounterVec
}

// NewRecorder registers every collector under namespace.
func NewRecorder(namespace string) *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,

		// CacheLookups counts TTL cache lookups per slot and result
		cacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_lookups_total",
				Help:      "Total number of cache lookups",
			},
			[]string{"slot", "result"},
		),
		cacheStores: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_stores_total",
				Help:      "Total number of payloads written to the cache",
			},
			[]string{"slot"},
		),
		cacheBytes: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_stored_bytes_total",
				Help:      "Total payload bytes written to the cache",
			},
		),
		evictions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_evictions_total",
				Help:      "Total number of entries evicted from the cache",
			},
			[]string{"reason"},
		),
		// Fetches counts upstream slot fetches by outcome (success or error kind)
		fetches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "fetches_total",
				Help:      "Total number of upstream slot fetches",
			},
			[]string{"slot", "outcome"},
		),
		fetchLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "fetch_latency_seconds",
				Help:      "Upstream slot fetch latency in seconds, retries included",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"slot"},
		),
		retries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "retries_total",
				Help:      "Total number of retried upstream calls",
			},
			[]string{"operation", "kind"},
		),
		enrichLatency: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "enrich_latency_seconds",
				Help:      "End-to-end enrich latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),
		failedSlots: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "enrich_failed_slots",
				Help:      "Number of failed slots per enrich call",
				Buckets:   prometheus.LinearBuckets(0, 1, 6),
			},
		),
		errors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "errors_total",
				Help:      "Total number of internal errors",
			},
			[]string{"component", "operation"},
		),
		circuitState: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "circuit_breaker_transitions_total",
				Help:      "Total number of circuit breaker state transitions",
			},
			[]string{"from", "to"},
		),
	}
}

// Registry exposes the recorder's registry for extra collectors.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

func (r *Recorder) RecordCacheHit(slot string, latency time.Duration) {
	r.cacheLookups.WithLabelValues(slot, "hit").Inc()
}

func (r *Recorder) RecordCacheMiss(slot string, latency time.Duration) {
	r.cacheLookups.WithLabelValues(slot, "miss").Inc()
}

func (r *Recorder) RecordCacheStore(slot string, size int, latency time.Duration) {
	r.cacheStores.WithLabelValues(slot).Inc()
	r.cacheBytes.Add(float64(size))
}

func (r *Recorder) RecordEviction(reason string, count int) {
	r.evictions.WithLabelValues(reason).Add(float64(count))
}

func (r *Recorder) RecordFetch(slot, outcome string, latency time.Duration) {
	r.fetches.WithLabelValues(slot, outcome).Inc()
	r.fetchLatency.WithLabelValues(slot).Observe(latency.Seconds())
}

func (r *Recorder) RecordRetry(operation, kind string) {
	r.retries.WithLabelValues(operation, kind).Inc()
}

func (r *Recorder) RecordEnrich(failedSlots int, latency time.Duration) {
	r.enrichLatency.Observe(latency.Seconds())
	r.failedSlots.Observe(float64(failedSlots))
}

func (r *Recorder) RecordError(component, operation string, err error) {
	r.errors.WithLabelValues(component, operation).Inc()
}

func (r *Recorder) RecordCircuitBreakerStateChange(from, to string) {
	r.circuitState.WithLabelValues(from, to).Inc()
}

var _ types.MetricsRecorder = (*Recorder)(nil)
