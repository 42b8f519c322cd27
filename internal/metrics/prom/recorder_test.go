package prom

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorderCounters(t *testing.T) {
	r := NewRecorder("linernotes")

	r.RecordCacheHit("bio", time.Millisecond)
	r.RecordCacheHit("bio", time.Millisecond)
	r.RecordCacheMiss("funfact:lore", time.Millisecond)
	r.RecordCacheStore("bio", 128, time.Millisecond)
	r.RecordEviction("capacity", 3)
	r.RecordFetch("funfact:lore", "rate_limited", 200*time.Millisecond)
	r.RecordRetry("fetch", "rate_limited")
	r.RecordEnrich(1, 250*time.Millisecond)
	r.RecordError("enrich", "cache_store", errors.New("disk full"))
	r.RecordCircuitBreakerStateChange("closed", "open")

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"bio hits", testutil.ToFloat64(r.cacheLookups.WithLabelValues("bio", "hit")), 2},
		{"lore misses", testutil.ToFloat64(r.cacheLookups.WithLabelValues("funfact:lore", "miss")), 1},
		{"stores", testutil.ToFloat64(r.cacheStores.WithLabelValues("bio")), 1},
		{"bytes", testutil.ToFloat64(r.cacheBytes), 128},
		{"evictions", testutil.ToFloat64(r.evictions.WithLabelValues("capacity")), 3},
		{"fetches", testutil.ToFloat64(r.fetches.WithLabelValues("funfact:lore", "rate_limited")), 1},
		{"retries", testutil.ToFloat64(r.retries.WithLabelValues("fetch", "rate_limited")), 1},
		{"errors", testutil.ToFloat64(r.errors.WithLabelValues("enrich", "cache_store")), 1},
		{"circuit", testutil.ToFloat64(r.circuitState.WithLabelValues("closed", "open")), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
			}
		})
	}
}

func TestRecordersDoNotShareRegistry(t *testing.T) {
	a := NewRecorder("linernotes")
	b := NewRecorder("linernotes")

	a.RecordEviction("expired", 1)

	if got := testutil.ToFloat64(b.evictions.WithLabelValues("expired")); got != 0 {
		t.Errorf("second recorder evictions = %v, want 0", got)
	}
}

func TestRecorderHandler(t *testing.T) {
	r := NewRecorder("linernotes")
	r.RecordEnrich(0, 10*time.Millisecond)
	r.RecordFetch("bio", "success", 5*time.Millisecond)

	srv := httptest.NewServer(r.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatalf("GET /metrics error = %v", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}

	for _, want := range []string{
		"linernotes_enrich_latency_seconds_count 1",
		`linernotes_fetches_total{outcome="success",slot="bio"} 1`,
	} {
		if !strings.Contains(string(body), want) {
			t.Errorf("exposition missing %q", want)
		}
	}
}
