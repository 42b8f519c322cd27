package linernotes

import (
	"github.com/LavishGent/linernotes/internal/types"
)

type (
	// HealthStatus represents the overall health state.
	HealthStatus = types.HealthStatus

	// HealthMetrics contains overall client health information.
	HealthMetrics = types.HealthMetrics

	// CacheHealthMetrics contains cache health details.
	CacheHealthMetrics = types.CacheHealthMetrics

	// UpstreamHealth describes the guard around the catalog.
	UpstreamHealth = types.UpstreamHealth

	// MetricsSnapshot contains a point-in-time view of client metrics.
	MetricsSnapshot = types.MetricsSnapshot
)

const (
	HealthStatusHealthy   = types.HealthStatusHealthy
	HealthStatusDegraded  = types.HealthStatusDegraded
	HealthStatusUnhealthy = types.HealthStatusUnhealthy
)
