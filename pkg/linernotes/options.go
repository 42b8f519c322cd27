package linernotes

import (
	"time"

	"github.com/LavishGent/linernotes/internal/types"
)

// DefaultShutdownTimeout bounds how long Close waits for in-flight calls.
const DefaultShutdownTimeout = 30 * time.Second

type options struct {
	types.ClientOptions
	store           Store
	slots           []ContentType
	shutdownTimeout time.Duration
}

// Option configures a Client.
type Option func(*options)

func applyOptions(opts []Option) *options {
	o := &options{shutdownTimeout: DefaultShutdownTimeout}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func WithLogger(logger Logger) Option {
	return func(o *options) {
		o.Logger = logger
	}
}

// WithMetrics adds a recorder alongside the configured metrics backends.
func WithMetrics(metrics MetricsRecorder) Option {
	return func(o *options) {
		o.Metrics = metrics
	}
}

// WithConnectivity replaces the configured connectivity prober.
func WithConnectivity(monitor ConnectivityMonitor) Option {
	return func(o *options) {
		o.Connectivity = monitor
	}
}

// WithStore uses store as the cache substrate instead of opening the one
// named in config. The client closes it on Close.
func WithStore(store Store) Option {
	return func(o *options) {
		o.store = store
	}
}

// WithSlots restricts every Enrich call to the given slots.
func WithSlots(slots ...ContentType) Option {
	return func(o *options) {
		o.slots = slots
	}
}

func WithCatalogAPIKey(key string) Option {
	return func(o *options) {
		o.CatalogAPIKey = types.NewSecretString(key)
	}
}

// WithoutResilience calls the catalog without bulkhead or circuit breaker.
func WithoutResilience() Option {
	return func(o *options) {
		o.DisableResilience = true
	}
}

func WithShutdownTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.shutdownTimeout = timeout
	}
}
