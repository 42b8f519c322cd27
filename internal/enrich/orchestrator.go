// Package enrich resolves an entity and assembles its enrichment content,
// one concurrent fetch per slot, through the cache and the retry executor.
package enrich

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/LavishGent/linernotes/internal/cache"
	"github.com/LavishGent/linernotes/internal/resilience"
	"github.com/LavishGent/linernotes/internal/types"
)

// OutcomeSuccess labels a fetch that produced a payload.
const OutcomeSuccess = "success"

// DefaultAttemptTimeout bounds one fetch attempt when WithAttemptTimeout is
// not given.
const DefaultAttemptTimeout = 30 * time.Second

// Orchestrator runs enrichment calls. It is safe for concurrent use.
type Orchestrator struct {
	resolver types.EntityResolver
	fetcher  types.ContentFetcher
	cache    *cache.TTLCache
	retrier  *resilience.Retrier
	slots    []types.ContentType
	metrics  types.MetricsRecorder
	logger   *slog.Logger

	attemptTimeout time.Duration
	fetchTimeout   time.Duration

	inflight singleflight.Group
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithSlots restricts enrichment to the given slots. The default is every slot.
func WithSlots(slots ...types.ContentType) Option {
	return func(o *Orchestrator) {
		if len(slots) > 0 {
			o.slots = slots
		}
	}
}

func WithRecorder(m types.MetricsRecorder) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithAttemptTimeout sets the expected upper bound of a single fetch attempt.
// Together with the retry policy it bounds a shared fetch.
func WithAttemptTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.attemptTimeout = d
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// New creates an orchestrator. Every collaborator is required.
func New(resolver types.EntityResolver, fetcher types.ContentFetcher, c *cache.TTLCache, retrier *resilience.Retrier, opts ...Option) (*Orchestrator, error) {
	switch {
	case resolver == nil:
		return nil, errors.New("enrich: resolver is required")
	case fetcher == nil:
		return nil, errors.New("enrich: fetcher is required")
	case c == nil:
		return nil, errors.New("enrich: cache is required")
	case retrier == nil:
		return nil, errors.New("enrich: retrier is required")
	}

	o := &Orchestrator{
		resolver: resolver,
		fetcher:  fetcher,
		cache:    c,
		retrier:  retrier,
		slots:    types.AllSlots(),
		logger:   slog.Default(),

		attemptTimeout: DefaultAttemptTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}
	policy := retrier.Policy()
	o.fetchTimeout = time.Duration(policy.MaxAttempts) * (o.attemptTimeout + policy.MaxDelay)
	for _, slot := range o.slots {
		if !slot.Valid() {
			return nil, fmt.Errorf("%w: %s", types.ErrInvalidContentType, slot)
		}
	}
	o.logger = o.logger.With("component", "enrich")
	return o, nil
}

// Slots returns the slots every call fills.
func (o *Orchestrator) Slots() []types.ContentType {
	return append([]types.ContentType(nil), o.slots...)
}

type slotOutcome struct {
	payload string
	kind    types.ErrorKind
	failed  bool
}

// Enrich resolves rawName and fetches every slot. It never fails: each slot
// of the returned result holds either a payload or the classified reason it
// has none.
func (o *Orchestrator) Enrich(ctx context.Context, rawName string) *types.EnrichmentResult {
	start := time.Now()
	logger := o.logger.With("request_id", uuid.NewString())

	name := strings.TrimSpace(rawName)
	if name == "" {
		result := types.NewEnrichmentResult("")
		o.failAll(result, types.ErrorKind{Kind: types.KindEntityNotFound})
		o.finish(logger, result, start)
		return result
	}

	entityID, err := resilience.Execute(ctx, o.retrier, func(ctx context.Context) (string, error) {
		return o.resolver.Resolve(ctx, name)
	})
	if err != nil {
		kind := o.kindFor(ctx, err)
		logger.Info("Entity resolution failed", "name", name, "kind", kind.String(), "error", err)
		result := types.NewEnrichmentResult("")
		o.failAll(result, kind)
		o.finish(logger, result, start)
		return result
	}

	logger = logger.With("entity_id", entityID)
	outcomes := make([]slotOutcome, len(o.slots))

	var g errgroup.Group
	for i, slot := range o.slots {
		g.Go(func() error {
			outcomes[i] = o.enrichSlot(ctx, logger, entityID, slot)
			return nil
		})
	}
	_ = g.Wait()

	result := types.NewEnrichmentResult(entityID)
	for i, slot := range o.slots {
		if outcomes[i].failed {
			result.SetError(slot, outcomes[i].kind)
		} else {
			result.SetPayload(slot, outcomes[i].payload)
		}
	}

	o.finish(logger, result, start)
	return result
}

func (o *Orchestrator) enrichSlot(ctx context.Context, logger *slog.Logger, entityID string, slot types.ContentType) slotOutcome {
	key := types.CacheKey{EntityID: entityID, Type: slot}

	if payload, ok := o.cache.Retrieve(ctx, key); ok {
		return slotOutcome{payload: payload}
	}

	start := time.Now()
	ch := o.inflight.DoChan(key.String(), func() (any, error) {
		// The fetch is shared, so it must not end with the caller that started it.
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.fetchTimeout)
		defer cancel()
		return o.fetchAndStore(fctx, logger, key)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			kind := o.kindFor(ctx, res.Err)
			o.recordFetch(slot, kind.String(), start)
			logger.Debug("Slot fetch failed", "slot", slot.String(), "kind", kind.String(), "error", res.Err)
			return slotOutcome{kind: kind, failed: true}
		}
		if res.Shared {
			logger.Debug("Slot fetch shared with concurrent caller", "slot", slot.String())
		}
		o.recordFetch(slot, OutcomeSuccess, start)
		return slotOutcome{payload: res.Val.(string)}
	case <-ctx.Done():
		kind := cancelKind(ctx)
		o.recordFetch(slot, kind.String(), start)
		return slotOutcome{kind: kind, failed: true}
	}
}

// fetchAndStore runs once per key across concurrent callers, under a context
// detached from any one of them and bounded by fetchTimeout.
func (o *Orchestrator) fetchAndStore(ctx context.Context, logger *slog.Logger, key types.CacheKey) (string, error) {
	if payload, ok := o.cache.Retrieve(ctx, key); ok {
		return payload, nil
	}

	payload, err := resilience.Execute(ctx, o.retrier, func(ctx context.Context) (string, error) {
		payload, err := o.fetcher.Fetch(ctx, key.EntityID, key.Type)
		if err != nil {
			return "", err
		}
		if strings.TrimSpace(payload) == "" {
			return "", types.NewError(types.ErrorKind{Kind: types.KindNoContentAvailable}, "fetch", errors.New("empty payload"))
		}
		return payload, nil
	})
	if err != nil {
		return "", err
	}

	if err := o.cache.Store(ctx, key, payload, o.cache.TTLFor(key.Type)); err != nil {
		logger.Warn("Failed to cache slot payload", "key", key.String(), "error", err)
		if o.metrics != nil {
			o.metrics.RecordError("enrich", "cache_store", err)
		}
	}
	return payload, nil
}

func (o *Orchestrator) failAll(result *types.EnrichmentResult, kind types.ErrorKind) {
	for _, slot := range o.slots {
		result.SetError(slot, kind)
	}
}

// kindFor classifies err, preferring the caller's own cancellation when
// the context is done.
func (o *Orchestrator) kindFor(ctx context.Context, err error) types.ErrorKind {
	if ctx.Err() != nil {
		return cancelKind(ctx)
	}
	return resilience.Classify(err)
}

// cancelKind is Timeout when the deadline passed and Unknown on an explicit cancel.
func cancelKind(ctx context.Context) types.ErrorKind {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return types.ErrorKind{Kind: types.KindTimeout}
	}
	return types.ErrorKind{Kind: types.KindUnknown}
}

func (o *Orchestrator) recordFetch(slot types.ContentType, outcome string, start time.Time) {
	if o.metrics != nil {
		o.metrics.RecordFetch(slot.String(), outcome, time.Since(start))
	}
}

func (o *Orchestrator) finish(logger *slog.Logger, result *types.EnrichmentResult, start time.Time) {
	latency := time.Since(start)
	failed := result.FailedSlots()
	if o.metrics != nil {
		o.metrics.RecordEnrich(failed, latency)
	}
	logger.Debug("Enrichment complete",
		"failed_slots", failed,
		"complete", result.Complete(),
		"latency", latency,
	)
}
