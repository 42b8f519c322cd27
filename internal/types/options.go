package types

// ClientOptions holds the collaborators injected into a client at construction.
// Nil fields fall back to values derived from config.
type ClientOptions struct {
	// Logger is the structured logger to use.
	Logger Logger

	// Metrics receives per-operation events in addition to any configured backends.
	Metrics MetricsRecorder

	// Connectivity replaces the configured connectivity prober.
	Connectivity ConnectivityMonitor

	// CatalogAPIKey overrides the catalog API key from config.
	CatalogAPIKey SecretString

	// DisableResilience turns off the bulkhead and circuit breaker around the catalog.
	DisableResilience bool
}
