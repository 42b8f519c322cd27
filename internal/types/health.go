package types

import "time"

// HealthStatus represents the overall health state.
type HealthStatus int

const (
	// HealthStatusHealthy indicates all systems operating normally.
	HealthStatusHealthy HealthStatus = iota + 1
	// HealthStatusDegraded indicates partial functionality (e.g., circuit open or offline).
	HealthStatusDegraded
	// HealthStatusUnhealthy indicates critical failure.
	HealthStatusUnhealthy
)

// String returns the string representation of health status.
func (s HealthStatus) String() string {
	switch s {
	case HealthStatusHealthy:
		return "healthy"
	case HealthStatusDegraded:
		return "degraded"
	case HealthStatusUnhealthy:
		return "unhealthy"
	default:
		return "unknown"
	}
}

func (s HealthStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// CacheStats is a diagnostic view of the TTL cache. TotalEntries and
// ExpiredEntries come from a full scan of the index.
type CacheStats struct {
	Substrate      string `json:"substrate"`
	TotalEntries   int    `json:"totalEntries"`
	ExpiredEntries int    `json:"expiredEntries"`
	MaxEntries     int    `json:"maxEntries"`
	Hits           int64  `json:"hits"`
	Misses         int64  `json:"misses"`
	Evictions      int64  `json:"evictions"`
	Expirations    int64  `json:"expirations"`
}

// HitRatio returns hits over lookups, or zero before the first lookup.
func (s CacheStats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// HealthMetrics contains overall client health information.
type HealthMetrics struct {
	Timestamp    time.Time          `json:"timestamp"`
	Cache        CacheHealthMetrics `json:"cache"`
	Upstream     UpstreamHealth     `json:"upstream"`
	Retry        RetryStats         `json:"retry"`
	Connectivity bool               `json:"connectivity"`
	Status       HealthStatus       `json:"status"`
}

// CacheHealthMetrics contains cache health details.
type CacheHealthMetrics struct {
	CacheStats
	Status    HealthStatus `json:"status"`
	Available bool         `json:"available"`
}

// UpstreamHealth describes the guard around the catalog service.
type UpstreamHealth struct {
	CircuitBreakerState string       `json:"circuitBreakerState"`
	BulkheadActive      int          `json:"bulkheadActive"`
	BulkheadQueued      int          `json:"bulkheadQueued"`
	BulkheadRejected    int64        `json:"bulkheadRejected"`
	Status              HealthStatus `json:"status"`
}

// RetryStats counts retry executor outcomes.
type RetryStats struct {
	Retries   int64 `json:"retries"`
	Successes int64 `json:"successes"`
	Failures  int64 `json:"failures"`
}

// MetricsSnapshot contains a point-in-time view of enrichment metrics.
//
//nolint:govet // Metrics struct with many counters - grouping by category improves readability
type MetricsSnapshot struct {
	Timestamp time.Time
	// Cache counters
	CacheHits   int64
	CacheMisses int64
	CacheStores int64
	Evictions   int64
	// Upstream counters
	FetchCount   int64
	FetchFailed  int64
	RetryCount   int64
	EnrichCount  int64
	PartialCount int64
	ErrorCount   int64

	// Latency metrics (milliseconds)
	AvgLatencyMs float64
	P50LatencyMs float64
	P95LatencyMs float64
	P99LatencyMs float64

	CircuitBreakerChanges int64
	BytesStored           int64
}

// CacheHitRatio calculates the cache hit ratio.
func (s *MetricsSnapshot) CacheHitRatio() float64 {
	total := s.CacheHits + s.CacheMisses
	if total == 0 {
		return 0
	}
	return float64(s.CacheHits) / float64(total)
}

// FetchFailureRatio calculates the share of upstream fetches that failed.
func (s *MetricsSnapshot) FetchFailureRatio() float64 {
	if s.FetchCount == 0 {
		return 0
	}
	return float64(s.FetchFailed) / float64(s.FetchCount)
}
