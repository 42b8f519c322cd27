package linernotes

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/LavishGent/linernotes/internal/cache"
	"github.com/LavishGent/linernotes/internal/config"
	"github.com/LavishGent/linernotes/internal/connectivity"
	"github.com/LavishGent/linernotes/internal/enrich"
	"github.com/LavishGent/linernotes/internal/metrics"
	"github.com/LavishGent/linernotes/internal/metrics/datadog"
	"github.com/LavishGent/linernotes/internal/metrics/prom"
	"github.com/LavishGent/linernotes/internal/resilience"
	"github.com/LavishGent/linernotes/internal/types"
)

// Client enriches entities through a TTL cache, a retry executor and, for
// catalog-backed clients, a guarded HTTP catalog. It is safe for concurrent use.
type Client struct {
	cfg    *config.Config
	logger *slog.Logger

	cache   *cache.TTLCache
	orch    *enrich.Orchestrator
	retrier *resilience.Retrier
	guard   *resilience.Guard

	metrics    types.MetricsRecorder
	tracker    *metrics.Tracker
	prom       *prom.Recorder
	publisher  types.Publisher
	background *metrics.BackgroundPublisher
	sweeper    *cache.Sweeper

	connectivity types.ConnectivityMonitor
	prober       *connectivity.Prober

	ctx             context.Context
	cancel          context.CancelFunc
	shutdownTimeout time.Duration

	// callMu orders Add on calls against the Wait in Close.
	callMu sync.Mutex
	calls  sync.WaitGroup
	closed atomic.Bool
}

func newClient(cfg *config.Config, o *options) (*Client, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("linernotes: invalid config: %w", err)
	}

	logger := slog.Default()
	if o.Logger != nil {
		logger = newSlogLogger(o.Logger)
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		cfg:             cfg,
		logger:          logger.With("component", "linernotes"),
		tracker:         metrics.NewTracker(),
		publisher:       metrics.NewNoOpPublisher(),
		ctx:             ctx,
		cancel:          cancel,
		shutdownTimeout: o.shutdownTimeout,
	}

	recorders := []types.MetricsRecorder{c.tracker, o.Metrics}
	if cfg.Metrics.Enabled {
		if cfg.Metrics.DataDog.Enabled {
			pub, err := datadog.NewPublisher(&cfg.Metrics.DataDog, logger)
			if err != nil {
				cancel()
				return nil, fmt.Errorf("linernotes: datadog publisher: %w", err)
			}
			c.publisher = pub
			recorders = append(recorders, metrics.NewPublisherRecorder(pub))
		} else {
			c.publisher = metrics.NewLoggingPublisher(logger)
		}
		if cfg.Metrics.Prometheus.Enabled {
			c.prom = prom.NewRecorder(cfg.Metrics.Prometheus.Namespace)
			recorders = append(recorders, c.prom)
		}
	}
	c.metrics = metrics.NewFanout(recorders...)
	return c, nil
}

// init builds the cache, retrier and orchestrator and starts the background
// workers. probeAddr is dialed by the connectivity prober when enabled.
func (c *Client) init(resolver types.EntityResolver, fetcher types.ContentFetcher, probeAddr string, o *options) error {
	store := o.store
	if store == nil {
		var err error
		store, err = cache.OpenStore(c.ctx, c.cfg.Cache, c.logger)
		if err != nil {
			return fmt.Errorf("linernotes: open %s substrate: %w", c.cfg.Cache.Substrate, err)
		}
	}

	ttl, err := cache.NewTTLCache(c.ctx, store, c.cfg.Cache,
		cache.WithRecorder(c.metrics),
		cache.WithLogger(c.logger),
		cache.WithValidator(types.NewKeyValidator(c.cfg.KeyValidation.ToTypesConfig())),
	)
	if err != nil {
		_ = store.Close()
		return err
	}
	c.cache = ttl

	switch {
	case o.Connectivity != nil:
		c.connectivity = o.Connectivity
	case c.cfg.Connectivity.Enabled && probeAddr != "":
		c.prober = connectivity.NewProber(probeAddr, c.cfg.Connectivity, c.logger)
		c.prober.Start(c.ctx)
		c.connectivity = c.prober
	}

	retryOpts := []resilience.RetrierOption{
		resilience.WithRetryLogger(c.logger),
		resilience.WithRetryObserver(func(e resilience.RetryEvent) {
			c.metrics.RecordRetry("enrich", e.Kind.Kind.String())
		}),
	}
	if c.connectivity != nil {
		retryOpts = append(retryOpts, resilience.WithConnectivity(c.connectivity))
	}
	c.retrier, err = resilience.NewRetrier(resilience.PolicyFromConfig(c.cfg.Retry), retryOpts...)
	if err != nil {
		return err
	}

	c.orch, err = enrich.New(resolver, fetcher, c.cache, c.retrier,
		enrich.WithSlots(o.slots...),
		enrich.WithRecorder(c.metrics),
		enrich.WithLogger(c.logger),
		enrich.WithAttemptTimeout(c.cfg.Catalog.RequestTimeout),
	)
	if err != nil {
		return err
	}

	if c.cfg.Cache.SweepInterval > 0 {
		c.sweeper = cache.NewSweeper(c.cache, c.cfg.Cache.SweepInterval, c.logger)
		c.sweeper.Start(c.ctx)
	}
	if c.cfg.Metrics.Enabled {
		c.background = metrics.NewBackgroundPublisher(c.publisher, c.cfg.Metrics.PublishInterval, c.healthSample, c.logger)
		c.background.Start(c.ctx)
	}

	c.logger.Info("Client initialized",
		"substrate", c.cache.Substrate(),
		"slots", len(c.orch.Slots()),
		"guarded", c.guard != nil,
		"connectivity", c.connectivity != nil,
	)
	return nil
}

func (c *Client) beginCall() bool {
	c.callMu.Lock()
	defer c.callMu.Unlock()
	if c.closed.Load() {
		return false
	}
	c.calls.Add(1)
	return true
}

// Enrich resolves rawName and fills every slot. Slot failures are reported
// in the result, never as an error; the only error is ErrClosed.
func (c *Client) Enrich(ctx context.Context, rawName string) (*EnrichmentResult, error) {
	if !c.beginCall() {
		return nil, ErrClosed
	}
	defer c.calls.Done()
	return c.orch.Enrich(ctx, rawName), nil
}

// Slots returns the slots every Enrich call fills.
func (c *Client) Slots() []ContentType {
	return c.orch.Slots()
}

func (c *Client) CacheStats() CacheStats {
	return c.cache.Stats()
}

// ClearCache removes every cached payload.
func (c *Client) ClearCache(ctx context.Context) error {
	if !c.beginCall() {
		return ErrClosed
	}
	defer c.calls.Done()
	return c.cache.ClearAll(ctx)
}

// ClearExpired removes expired payloads and returns how many were removed.
func (c *Client) ClearExpired(ctx context.Context) (int, error) {
	if !c.beginCall() {
		return 0, ErrClosed
	}
	defer c.calls.Done()
	if c.sweeper != nil {
		return c.sweeper.SweepNow(ctx), nil
	}
	return c.cache.ClearExpired(ctx), nil
}

// MetricsSnapshot returns the in-process metrics collected so far.
func (c *Client) MetricsSnapshot() MetricsSnapshot {
	return c.tracker.Snapshot()
}

// MetricsHandler serves Prometheus metrics, or returns nil when the
// Prometheus recorder is disabled.
func (c *Client) MetricsHandler() http.Handler {
	if c.prom == nil {
		return nil
	}
	return c.prom.Handler()
}

// Health returns the state of the cache, the catalog guard and connectivity.
func (c *Client) Health(ctx context.Context) (*HealthMetrics, error) {
	if c.closed.Load() {
		return nil, ErrClosed
	}

	h := &types.HealthMetrics{
		Timestamp:    time.Now(),
		Upstream:     c.guard.Health(),
		Connectivity: c.isConnected(),
	}

	h.Cache = types.CacheHealthMetrics{
		CacheStats: c.cache.Stats(),
		Available:  c.cache.IsAvailable(),
		Status:     types.HealthStatusHealthy,
	}
	if !h.Cache.Available {
		h.Cache.Status = types.HealthStatusUnhealthy
	}

	retries, successes, failures := c.retrier.Stats()
	h.Retry = types.RetryStats{Retries: retries, Successes: successes, Failures: failures}

	switch {
	case h.Cache.Status == types.HealthStatusUnhealthy && h.Upstream.Status == types.HealthStatusUnhealthy:
		h.Status = types.HealthStatusUnhealthy
	case h.Cache.Status != types.HealthStatusHealthy,
		h.Upstream.Status != types.HealthStatusHealthy,
		!h.Connectivity:
		h.Status = types.HealthStatusDegraded
	default:
		h.Status = types.HealthStatusHealthy
	}
	return h, nil
}

// IsHealthy reports whether enrichment is running without degradation.
func (c *Client) IsHealthy(ctx context.Context) bool {
	h, err := c.Health(ctx)
	return err == nil && h.Status == types.HealthStatusHealthy
}

func (c *Client) isConnected() bool {
	if c.connectivity == nil {
		return true
	}
	return c.connectivity.IsConnected()
}

func (c *Client) healthSample() *types.PublisherHealthMetrics {
	return metrics.HealthFromStats(c.cache.Stats(), c.tracker.Snapshot(), c.guard.IsCircuitOpen(), c.isConnected())
}

// Close stops the background workers and releases the cache substrate and
// metrics publisher. It waits up to the shutdown timeout for in-flight calls;
// on timeout it returns ErrShutdownTimeout but still releases everything.
func (c *Client) Close() error {
	c.callMu.Lock()
	if c.closed.Swap(true) {
		c.callMu.Unlock()
		return nil
	}
	c.callMu.Unlock()

	var errs []error

	done := make(chan struct{})
	go func() {
		c.calls.Wait()
		close(done)
	}()
	timer := time.NewTimer(c.shutdownTimeout)
	select {
	case <-done:
	case <-timer.C:
		c.logger.Warn("Shutdown timeout waiting for in-flight calls", "timeout", c.shutdownTimeout)
		errs = append(errs, ErrShutdownTimeout)
	}
	timer.Stop()

	if c.background != nil {
		c.background.Stop()
	}
	if c.sweeper != nil {
		c.sweeper.Stop()
	}
	if c.prober != nil {
		c.prober.Stop()
	}
	c.cancel()

	if c.cache != nil {
		if err := c.cache.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close cache: %w", err))
		}
	}
	if err := c.publisher.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close publisher: %w", err))
	}

	c.logger.Info("Client closed")
	return errors.Join(errs...)
}
