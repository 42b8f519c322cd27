package metrics

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/LavishGent/linernotes/internal/types"
)

func TestNewTracker(t *testing.T) {
	tracker := NewTracker()

	if tracker == nil {
		t.Fatal("NewTracker() returned nil")
	}

	snapshot := tracker.Snapshot()
	if snapshot.EnrichCount != 0 {
		t.Errorf("initial EnrichCount = %d, want 0", snapshot.EnrichCount)
	}
}

func TestTrackerCacheEvents(t *testing.T) {
	tracker := NewTracker()

	tracker.RecordCacheHit("bio", time.Millisecond)
	tracker.RecordCacheHit("funfact:lore", time.Millisecond)
	tracker.RecordCacheMiss("bio", time.Millisecond)
	tracker.RecordCacheStore("bio", 256, time.Millisecond)
	tracker.RecordEviction("capacity", 3)
	tracker.RecordEviction("expired", 1)

	snapshot := tracker.Snapshot()
	if snapshot.CacheHits != 2 {
		t.Errorf("CacheHits = %d, want 2", snapshot.CacheHits)
	}
	if snapshot.CacheMisses != 1 {
		t.Errorf("CacheMisses = %d, want 1", snapshot.CacheMisses)
	}
	if snapshot.CacheStores != 1 {
		t.Errorf("CacheStores = %d, want 1", snapshot.CacheStores)
	}
	if snapshot.BytesStored != 256 {
		t.Errorf("BytesStored = %d, want 256", snapshot.BytesStored)
	}
	if snapshot.Evictions != 4 {
		t.Errorf("Evictions = %d, want 4", snapshot.Evictions)
	}
	if got := snapshot.CacheHitRatio(); got < 0.66 || got > 0.67 {
		t.Errorf("CacheHitRatio() = %f, want ~0.667", got)
	}
}

func TestTrackerFetchEvents(t *testing.T) {
	tracker := NewTracker()

	tracker.RecordFetch("bio", "success", 10*time.Millisecond)
	tracker.RecordFetch("funfact:lore", "rate_limited", 10*time.Millisecond)
	tracker.RecordRetry("fetch", "rate_limited")
	tracker.RecordRetry("fetch", "rate_limited")
	tracker.RecordEnrich(0, 20*time.Millisecond)
	tracker.RecordEnrich(1, 40*time.Millisecond)
	tracker.RecordError("enrich", "cache_store", errors.New("disk full"))
	tracker.RecordCircuitBreakerStateChange("closed", "open")

	snapshot := tracker.Snapshot()
	if snapshot.FetchCount != 2 {
		t.Errorf("FetchCount = %d, want 2", snapshot.FetchCount)
	}
	if snapshot.FetchFailed != 1 {
		t.Errorf("FetchFailed = %d, want 1", snapshot.FetchFailed)
	}
	if snapshot.FetchFailureRatio() != 0.5 {
		t.Errorf("FetchFailureRatio() = %f, want 0.5", snapshot.FetchFailureRatio())
	}
	if snapshot.RetryCount != 2 {
		t.Errorf("RetryCount = %d, want 2", snapshot.RetryCount)
	}
	if snapshot.EnrichCount != 2 {
		t.Errorf("EnrichCount = %d, want 2", snapshot.EnrichCount)
	}
	if snapshot.PartialCount != 1 {
		t.Errorf("PartialCount = %d, want 1", snapshot.PartialCount)
	}
	if snapshot.ErrorCount != 1 {
		t.Errorf("ErrorCount = %d, want 1", snapshot.ErrorCount)
	}
	if snapshot.CircuitBreakerChanges != 1 {
		t.Errorf("CircuitBreakerChanges = %d, want 1", snapshot.CircuitBreakerChanges)
	}
	if snapshot.AvgLatencyMs != 30 {
		t.Errorf("AvgLatencyMs = %f, want 30", snapshot.AvgLatencyMs)
	}
	if snapshot.Timestamp.IsZero() {
		t.Error("Timestamp should not be zero")
	}
}

func TestTrackerLatencyPercentiles(t *testing.T) {
	tracker := NewTracker()

	// Recorded out of order; percentiles sort.
	for _, ms := range []int{70, 10, 100, 40, 20, 90, 30, 60, 50, 80} {
		tracker.RecordEnrich(0, time.Duration(ms)*time.Millisecond)
	}

	snapshot := tracker.Snapshot()

	if snapshot.AvgLatencyMs != 55 {
		t.Errorf("AvgLatencyMs = %f, want 55", snapshot.AvgLatencyMs)
	}
	if snapshot.P50LatencyMs != 50 {
		t.Errorf("P50LatencyMs = %f, want 50", snapshot.P50LatencyMs)
	}
	if snapshot.P95LatencyMs != 90 {
		t.Errorf("P95LatencyMs = %f, want 90", snapshot.P95LatencyMs)
	}
	if snapshot.P99LatencyMs != 90 {
		t.Errorf("P99LatencyMs = %f, want 90", snapshot.P99LatencyMs)
	}
}

func TestTrackerReset(t *testing.T) {
	tracker := NewTracker()

	tracker.RecordCacheHit("bio", time.Millisecond)
	tracker.RecordFetch("bio", "timeout", time.Millisecond)
	tracker.RecordEnrich(1, 15*time.Millisecond)
	tracker.RecordError("catalog", "fetch", errors.New("error"))

	tracker.Reset()

	snapshot := tracker.Snapshot()
	if snapshot.CacheHits != 0 {
		t.Errorf("after reset CacheHits = %d, want 0", snapshot.CacheHits)
	}
	if snapshot.FetchFailed != 0 {
		t.Errorf("after reset FetchFailed = %d, want 0", snapshot.FetchFailed)
	}
	if snapshot.EnrichCount != 0 {
		t.Errorf("after reset EnrichCount = %d, want 0", snapshot.EnrichCount)
	}
	if snapshot.ErrorCount != 0 {
		t.Errorf("after reset ErrorCount = %d, want 0", snapshot.ErrorCount)
	}
	if snapshot.AvgLatencyMs != 0 {
		t.Errorf("after reset AvgLatencyMs = %f, want 0", snapshot.AvgLatencyMs)
	}
}

func TestTrackerLatencyRingWraps(t *testing.T) {
	tracker := NewTracker()

	for i := 0; i < defaultLatencyBufferSize; i++ {
		tracker.RecordEnrich(0, time.Millisecond)
	}
	for i := 0; i < 10; i++ {
		tracker.RecordEnrich(0, time.Second)
	}

	tracker.latencyMu.RLock()
	count, index := tracker.latencyCount, tracker.latencyIndex
	tracker.latencyMu.RUnlock()

	if count != defaultLatencyBufferSize {
		t.Errorf("latencyCount = %d, want %d", count, defaultLatencyBufferSize)
	}
	if index != 10 {
		t.Errorf("latencyIndex = %d, want 10", index)
	}

	snapshot := tracker.Snapshot()
	if snapshot.P99LatencyMs != 1 {
		t.Errorf("P99LatencyMs = %f, want 1", snapshot.P99LatencyMs)
	}
	if snapshot.AvgLatencyMs <= 1 {
		t.Errorf("AvgLatencyMs = %f, want > 1 after slow samples", snapshot.AvgLatencyMs)
	}
}

func TestTrackerConcurrency(t *testing.T) {
	tracker := NewTracker()
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(4)
		go func() {
			defer wg.Done()
			tracker.RecordCacheHit("bio", time.Millisecond)
		}()
		go func() {
			defer wg.Done()
			tracker.RecordFetch("bio", "success", 20*time.Millisecond)
		}()
		go func() {
			defer wg.Done()
			tracker.RecordEnrich(0, 15*time.Millisecond)
		}()
		go func() {
			defer wg.Done()
			tracker.Snapshot()
		}()
	}

	wg.Wait()

	snapshot := tracker.Snapshot()
	if snapshot.CacheHits != 100 {
		t.Errorf("CacheHits = %d, want 100", snapshot.CacheHits)
	}
	if snapshot.FetchCount != 100 {
		t.Errorf("FetchCount = %d, want 100", snapshot.FetchCount)
	}
	if snapshot.EnrichCount != 100 {
		t.Errorf("EnrichCount = %d, want 100", snapshot.EnrichCount)
	}
}

func TestLoggingPublisher(t *testing.T) {
	t.Run("creates with default logger", func(t *testing.T) {
		publisher := NewLoggingPublisher(nil)
		if publisher == nil {
			t.Fatal("NewLoggingPublisher(nil) returned nil")
		}
	})

	t.Run("publishes health sample", func(t *testing.T) {
		var buf bytes.Buffer
		publisher := NewLoggingPublisher(slog.New(slog.NewTextHandler(&buf, nil)))

		publisher.PublishHealthMetrics(&types.PublisherHealthMetrics{
			CacheEntries:     40,
			CacheMaxEntries:  500,
			CacheUsageRatio:  0.08,
			HitRatio:         0.85,
			AverageLatencyMs: 5.5,
			IsConnected:      true,
		})

		output := buf.String()
		for _, want := range []string{"level=INFO", "cache.entries=40", "cache.hit_ratio=0.85", "connected=true"} {
			if !strings.Contains(output, want) {
				t.Errorf("output missing %q: %s", want, output)
			}
		}
	})

	t.Run("degraded sample logs at warn", func(t *testing.T) {
		tests := []struct {
			name   string
			sample types.PublisherHealthMetrics
		}{
			{"circuit open", types.PublisherHealthMetrics{CircuitOpen: true, IsConnected: true}},
			{"offline", types.PublisherHealthMetrics{}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				var buf bytes.Buffer
				publisher := NewLoggingPublisher(slog.New(slog.NewTextHandler(&buf, nil)))
				publisher.PublishHealthMetrics(&tt.sample)
				if !strings.Contains(buf.String(), "level=WARN") {
					t.Errorf("output = %q, want warn level", buf.String())
				}
			})
		}
	})

	t.Run("nil health metrics", func(t *testing.T) {
		var buf bytes.Buffer
		publisher := NewLoggingPublisher(slog.New(slog.NewTextHandler(&buf, nil)))
		publisher.PublishHealthMetrics(nil)
		if buf.Len() != 0 {
			t.Errorf("expected no output, got %q", buf.String())
		}
	})

	t.Run("metric calls log at debug with tags", func(t *testing.T) {
		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
		publisher := NewLoggingPublisher(logger, "env:test")

		publisher.Gauge("cache.entries", 42.5, "substrate:memory")
		publisher.Incr("fetch", SlotTag("funfact:lore"))
		publisher.Count("cache.eviction", 3)
		publisher.Histogram("cache.bytes", 128)
		publisher.Timing("enrich.latency", 100*time.Millisecond)

		output := buf.String()
		for _, want := range []string{
			"msg=gauge", "msg=incr", "msg=count", "msg=histogram", "msg=timing",
			"tags.env=test", "tags.substrate=memory", "tags.slot=funfact:lore", "duration_ms=100",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("output missing %q", want)
			}
		}
	})

	t.Run("base tags are not shared between calls", func(t *testing.T) {
		var buf bytes.Buffer
		base := make([]string, 1, 4)
		base[0] = "env:test"
		logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
		publisher := NewLoggingPublisher(logger, base...)

		publisher.Incr("fetch", SlotTag("bio"))
		publisher.Incr("fetch", SlotTag("funfact:lore"))

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		if len(lines) != 2 {
			t.Fatalf("got %d lines, want 2", len(lines))
		}
		if !strings.Contains(lines[0], "tags.slot=bio") || strings.Contains(lines[0], "funfact") {
			t.Errorf("first line = %q", lines[0])
		}
	})

	t.Run("event level follows alert type", func(t *testing.T) {
		tests := []struct {
			alertType string
			want      string
		}{
			{"error", "level=ERROR"},
			{"warning", "level=WARN"},
			{"success", "level=INFO"},
		}
		for _, tt := range tests {
			t.Run(tt.alertType, func(t *testing.T) {
				var buf bytes.Buffer
				publisher := NewLoggingPublisher(slog.New(slog.NewTextHandler(&buf, nil)))
				publisher.Event("Circuit breaker open", "catalog is failing", tt.alertType)
				if !strings.Contains(buf.String(), tt.want) {
					t.Errorf("output = %q, want %s", buf.String(), tt.want)
				}
			})
		}
	})

	t.Run("close returns nil", func(t *testing.T) {
		publisher := NewLoggingPublisher(nil)
		if err := publisher.Close(); err != nil {
			t.Errorf("Close() error = %v, want nil", err)
		}
	})
}

func TestBackgroundPublisher(t *testing.T) {
	health := func() *types.PublisherHealthMetrics {
		return &types.PublisherHealthMetrics{CacheEntries: 10, IsConnected: true}
	}

	t.Run("start and stop", func(t *testing.T) {
		publisher := &trackingPublisher{}
		bg := NewBackgroundPublisher(publisher, 10*time.Millisecond, health, nil)

		bg.Start(context.Background())
		time.Sleep(50 * time.Millisecond)
		bg.Stop()

		if publisher.publishCount.Load() < 1 {
			t.Error("expected at least one publish before stop")
		}
	})

	t.Run("publishes on stop", func(t *testing.T) {
		publisher := &trackingPublisher{}
		bg := NewBackgroundPublisher(publisher, time.Hour, health, nil)

		bg.Start(context.Background())
		before := publisher.publishCount.Load()
		bg.Stop()

		if publisher.publishCount.Load() <= before {
			t.Error("expected publish on stop")
		}
	})

	t.Run("publish now", func(t *testing.T) {
		publisher := &trackingPublisher{}
		bg := NewBackgroundPublisher(publisher, time.Hour, health, nil)

		bg.Start(context.Background())
		bg.PublishNow()
		bg.Stop()

		if publisher.publishCount.Load() < 2 {
			t.Error("expected at least 2 publishes (PublishNow + Stop)")
		}
	})

	t.Run("zero interval stays idle", func(t *testing.T) {
		publisher := &trackingPublisher{}
		bg := NewBackgroundPublisher(publisher, 0, health, nil)

		bg.Start(context.Background())
		bg.Stop()

		if publisher.publishCount.Load() != 0 {
			t.Errorf("publishCount = %d, want 0", publisher.publishCount.Load())
		}
	})

	t.Run("recovers from panicking health func", func(t *testing.T) {
		publisher := &trackingPublisher{}
		bg := NewBackgroundPublisher(publisher, time.Hour, func() *types.PublisherHealthMetrics {
			panic("boom")
		}, nil)

		bg.PublishNow()

		if publisher.publishCount.Load() != 0 {
			t.Errorf("publishCount = %d, want 0", publisher.publishCount.Load())
		}
	})
}

func TestHealthFromStats(t *testing.T) {
	stats := types.CacheStats{TotalEntries: 50, ExpiredEntries: 5, MaxEntries: 200, Hits: 3, Misses: 1}
	snapshot := types.MetricsSnapshot{AvgLatencyMs: 12.5}

	h := HealthFromStats(stats, snapshot, true, false)

	if h.CacheEntries != 50 || h.CacheMaxEntries != 200 || h.CacheExpired != 5 {
		t.Errorf("HealthFromStats() entries = %d/%d/%d", h.CacheEntries, h.CacheMaxEntries, h.CacheExpired)
	}
	if h.CacheUsageRatio != 0.25 {
		t.Errorf("CacheUsageRatio = %f, want 0.25", h.CacheUsageRatio)
	}
	if h.HitRatio != 0.75 {
		t.Errorf("HitRatio = %f, want 0.75", h.HitRatio)
	}
	if h.AverageLatencyMs != 12.5 {
		t.Errorf("AverageLatencyMs = %f, want 12.5", h.AverageLatencyMs)
	}
	if !h.CircuitOpen || h.IsConnected {
		t.Errorf("CircuitOpen = %t, IsConnected = %t", h.CircuitOpen, h.IsConnected)
	}

	if zero := HealthFromStats(types.CacheStats{}, snapshot, false, true); zero.CacheUsageRatio != 0 {
		t.Errorf("CacheUsageRatio with no capacity = %f, want 0", zero.CacheUsageRatio)
	}
}

func TestPublisherRecorder(t *testing.T) {
	publisher := &trackingPublisher{}
	rec := NewPublisherRecorder(publisher)

	rec.RecordCacheHit("bio", time.Millisecond)
	rec.RecordFetch("funfact:lore", "rate_limited", 10*time.Millisecond)
	rec.RecordEnrich(1, 30*time.Millisecond)
	rec.RecordEviction("capacity", 2)
	rec.RecordCircuitBreakerStateChange("closed", "open")

	if got := publisher.incrs.Load(); got != 4 {
		t.Errorf("incr count = %d, want 4", got)
	}
	if got := publisher.timingCount.Load(); got != 2 {
		t.Errorf("timing count = %d, want 2", got)
	}
	if got := publisher.events.Load(); got != 1 {
		t.Errorf("event count = %d, want 1", got)
	}

	publisher.mu.Lock()
	defer publisher.mu.Unlock()
	if !publisher.sawTag("outcome:rate_limited") {
		t.Errorf("tags %v missing outcome:rate_limited", publisher.tags)
	}
	if !publisher.sawTag("reason:capacity") {
		t.Errorf("tags %v missing reason:capacity", publisher.tags)
	}
}

func TestAlertTypeFor(t *testing.T) {
	tests := map[string]string{
		"open":      "error",
		"half-open": "warning",
		"closed":    "success",
	}
	for state, want := range tests {
		if got := alertTypeFor(state); got != want {
			t.Errorf("alertTypeFor(%q) = %q, want %q", state, got, want)
		}
	}
}

func TestFanout(t *testing.T) {
	t.Run("drops nil recorders", func(t *testing.T) {
		if got := NewFanout(nil, nil); got != nil {
			t.Errorf("NewFanout(nil, nil) = %v, want nil", got)
		}
	})

	t.Run("single recorder is unwrapped", func(t *testing.T) {
		tracker := NewTracker()
		if got := NewFanout(nil, tracker); got != tracker {
			t.Errorf("NewFanout() = %T, want the tracker itself", got)
		}
	})

	t.Run("delivers to every recorder", func(t *testing.T) {
		a, b := NewTracker(), NewTracker()
		f := NewFanout(a, b)

		f.RecordCacheHit("bio", time.Millisecond)
		f.RecordCacheMiss("bio", time.Millisecond)
		f.RecordCacheStore("bio", 10, time.Millisecond)
		f.RecordEviction("expired", 1)
		f.RecordFetch("bio", "success", time.Millisecond)
		f.RecordRetry("fetch", "timeout")
		f.RecordEnrich(0, time.Millisecond)
		f.RecordError("enrich", "cache_store", errors.New("x"))
		f.RecordCircuitBreakerStateChange("closed", "open")

		for name, tr := range map[string]*Tracker{"a": a, "b": b} {
			s := tr.Snapshot()
			if s.CacheHits != 1 || s.CacheMisses != 1 || s.CacheStores != 1 || s.Evictions != 1 {
				t.Errorf("%s cache counters = %+v", name, s)
			}
			if s.FetchCount != 1 || s.RetryCount != 1 || s.EnrichCount != 1 {
				t.Errorf("%s upstream counters = %+v", name, s)
			}
			if s.ErrorCount != 1 || s.CircuitBreakerChanges != 1 {
				t.Errorf("%s error counters = %+v", name, s)
			}
		}
	})
}

func TestNoOpTracker(t *testing.T) {
	tracker := NewNoOpTracker()

	tracker.RecordCacheHit("bio", time.Millisecond)
	tracker.RecordCacheMiss("bio", time.Millisecond)
	tracker.RecordCacheStore("bio", 100, time.Millisecond)
	tracker.RecordEviction("capacity", 1)
	tracker.RecordFetch("bio", "success", time.Millisecond)
	tracker.RecordRetry("fetch", "timeout")
	tracker.RecordEnrich(0, time.Millisecond)
	tracker.RecordError("catalog", "fetch", errors.New("error"))
	tracker.RecordCircuitBreakerStateChange("closed", "open")
	tracker.Reset()

	snapshot := tracker.Snapshot()
	if snapshot.EnrichCount != 0 {
		t.Errorf("NoOp EnrichCount = %d, want 0", snapshot.EnrichCount)
	}
}

func TestNoOpPublisher(t *testing.T) {
	publisher := NewNoOpPublisher()

	publisher.Gauge("test", 1.0, "tag:value")
	publisher.Incr("test", "tag:value")
	publisher.Count("test", 10, "tag:value")
	publisher.Histogram("test", 1.5, "tag:value")
	publisher.Timing("test", time.Second, "tag:value")
	publisher.Event("title", "text", "info", "tag:value")
	publisher.PublishHealthMetrics(&types.PublisherHealthMetrics{})

	if err := publisher.Close(); err != nil {
		t.Errorf("Close() error = %v, want nil", err)
	}
}

func TestAvgDuration(t *testing.T) {
	tests := []struct {
		name      string
		durations []time.Duration
		expected  time.Duration
	}{
		{"empty", []time.Duration{}, 0},
		{"single", []time.Duration{10 * time.Millisecond}, 10 * time.Millisecond},
		{"multiple", []time.Duration{10 * time.Millisecond, 20 * time.Millisecond, 30 * time.Millisecond}, 20 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := avgDuration(tt.durations)
			if result != tt.expected {
				t.Errorf("avgDuration() = %v, want %v", result, tt.expected)
			}
		})
	}
}

func TestPercentile(t *testing.T) {
	ten := make([]time.Duration, 10)
	for i := range ten {
		ten[i] = time.Duration(i+1) * time.Millisecond
	}

	tests := []struct {
		name      string
		durations []time.Duration
		p         int
		expected  time.Duration
	}{
		{"empty", []time.Duration{}, 50, 0},
		{"single_p50", []time.Duration{10 * time.Millisecond}, 50, 10 * time.Millisecond},
		{"ten_values_p50", ten, 50, 5 * time.Millisecond},
		{"ten_values_p90", ten, 90, 9 * time.Millisecond},
		{"ten_values_p100", ten, 100, 10 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := percentile(tt.durations, tt.p)
			if result != tt.expected {
				t.Errorf("percentile(%d) = %v, want %v", tt.p, result, tt.expected)
			}
		})
	}
}

func TestTagHelpers(t *testing.T) {
	tests := []struct {
		name     string
		fn       func() string
		expected string
	}{
		{"Tag", func() string { return Tag("key", "value") }, "key:value"},
		{"SlotTag", func() string { return SlotTag("funfact:lore") }, "slot:funfact:lore"},
		{"OutcomeTag", func() string { return OutcomeTag("success") }, "outcome:success"},
		{"KindTag", func() string { return KindTag("timeout") }, "kind:timeout"},
		{"ReasonTag", func() string { return ReasonTag("expired") }, "reason:expired"},
		{"OperationTag", func() string { return OperationTag("fetch") }, "operation:fetch"},
		{"ComponentTag", func() string { return ComponentTag("enrich") }, "component:enrich"},
		{"CircuitStateTag", func() string { return CircuitStateTag("open") }, "circuit_state:open"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := tt.fn()
			if result != tt.expected {
				t.Errorf("%s() = %q, want %q", tt.name, result, tt.expected)
			}
		})
	}
}

// Helper for testing publishers
type trackingPublisher struct {
	publishCount atomic.Int64
	timingCount  atomic.Int64
	incrs        atomic.Int64
	events       atomic.Int64

	mu   sync.Mutex
	tags []string
}

func (p *trackingPublisher) record(tags []string) {
	p.mu.Lock()
	p.tags = append(p.tags, tags...)
	p.mu.Unlock()
}

// sawTag must be called with mu held.
func (p *trackingPublisher) sawTag(tag string) bool {
	for _, t := range p.tags {
		if t == tag {
			return true
		}
	}
	return false
}

func (p *trackingPublisher) Gauge(name string, value float64, tags ...string) { p.record(tags) }

func (p *trackingPublisher) Incr(name string, tags ...string) {
	p.incrs.Add(1)
	p.record(tags)
}

func (p *trackingPublisher) Count(name string, value int64, tags ...string)       { p.record(tags) }
func (p *trackingPublisher) Histogram(name string, value float64, tags ...string) { p.record(tags) }

func (p *trackingPublisher) Timing(name string, duration time.Duration, tags ...string) {
	p.timingCount.Add(1)
	p.record(tags)
}

func (p *trackingPublisher) Event(title, text, alertType string, tags ...string) {
	p.events.Add(1)
}

func (p *trackingPublisher) PublishHealthMetrics(metrics *types.PublisherHealthMetrics) {
	p.publishCount.Add(1)
}

func (p *trackingPublisher) Close() error { return nil }

var _ types.Publisher = (*trackingPublisher)(nil)
