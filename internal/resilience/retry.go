package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/LavishGent/linernotes/internal/config"
	"github.com/LavishGent/linernotes/internal/types"
)

// MinBackoff is the floor applied to every jittered delay.
const MinBackoff = 100 * time.Millisecond

// RetryPolicy is the immutable shape of a retry loop.
type RetryPolicy struct {
	MaxAttempts              int
	BaseDelay                time.Duration
	MaxDelay                 time.Duration
	JitterRatio              float64
	ConnectivityPollInterval time.Duration
}

// PolicyFromConfig builds a RetryPolicy, filling zero values with defaults.
// A disabled config yields a single attempt.
func PolicyFromConfig(cfg config.RetryConfig) RetryPolicy {
	p := RetryPolicy{
		MaxAttempts:              cfg.MaxAttempts,
		BaseDelay:                cfg.BaseDelay,
		MaxDelay:                 cfg.MaxDelay,
		JitterRatio:              cfg.JitterRatio,
		ConnectivityPollInterval: cfg.ConnectivityPollInterval,
	}

	if !cfg.Enabled {
		p.MaxAttempts = 1
	}
	if p.MaxAttempts <= 0 {
		p.MaxAttempts = 3
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = 500 * time.Millisecond
	}
	if p.MaxDelay < p.BaseDelay {
		p.MaxDelay = p.BaseDelay
	}
	if p.ConnectivityPollInterval <= 0 {
		p.ConnectivityPollInterval = 500 * time.Millisecond
	}

	return p
}

// Validate reports whether the policy can drive a retry loop.
func (p RetryPolicy) Validate() error {
	if p.MaxAttempts < 1 {
		return fmt.Errorf("retry policy: maxAttempts must be at least 1, got %d", p.MaxAttempts)
	}
	if p.BaseDelay < 0 || p.MaxDelay < p.BaseDelay {
		return fmt.Errorf("retry policy: need 0 <= baseDelay <= maxDelay, got %v and %v", p.BaseDelay, p.MaxDelay)
	}
	if p.JitterRatio < 0 || p.JitterRatio > 1 || math.IsNaN(p.JitterRatio) {
		return fmt.Errorf("retry policy: jitterRatio must be within [0, 1], got %v", p.JitterRatio)
	}
	if p.ConnectivityPollInterval <= 0 {
		return fmt.Errorf("retry policy: connectivityPollInterval must be positive")
	}
	return nil
}

// Backoff returns the delay after the given failed attempt (1-based). u is a
// uniform sample in [0, 1).
func (p RetryPolicy) Backoff(attempt int, u float64) time.Duration {
	delay := float64(p.BaseDelay) * math.Pow(2, float64(attempt-1))
	if delay > float64(p.MaxDelay) {
		delay = float64(p.MaxDelay)
	}

	delay += delay * p.JitterRatio * (u*2 - 1)

	if delay < float64(MinBackoff) {
		return MinBackoff
	}
	return time.Duration(delay)
}

// RetryEvent describes one scheduled retry.
type RetryEvent struct {
	Attempt int
	Kind    types.ErrorKind
	Delay   time.Duration
	Err     error
}

// Retrier runs operations under a RetryPolicy. It holds no per-call state;
// concurrent Execute calls are independent.
type Retrier struct {
	policy       RetryPolicy
	connectivity types.ConnectivityMonitor
	random       func() float64
	onRetry      func(RetryEvent)
	logger       *slog.Logger

	totalRetries atomic.Int64
	totalSuccess atomic.Int64
	totalFailure atomic.Int64
}

// RetrierOption configures a Retrier.
type RetrierOption func(*Retrier)

// WithConnectivity sets the monitor polled while waiting out a
// NetworkUnavailable failure.
func WithConnectivity(m types.ConnectivityMonitor) RetrierOption {
	return func(r *Retrier) { r.connectivity = m }
}

// WithRandom replaces the jitter source. fn must be safe for concurrent use.
func WithRandom(fn func() float64) RetrierOption {
	return func(r *Retrier) { r.random = fn }
}

// WithRetryObserver registers a callback invoked before each backoff wait.
func WithRetryObserver(fn func(RetryEvent)) RetrierOption {
	return func(r *Retrier) { r.onRetry = fn }
}

// WithRetryLogger sets the logger used for retry diagnostics.
func WithRetryLogger(logger *slog.Logger) RetrierOption {
	return func(r *Retrier) {
		if logger != nil {
			r.logger = logger.With("component", "retry")
		}
	}
}

// NewRetrier creates a Retrier after validating policy.
func NewRetrier(policy RetryPolicy, opts ...RetrierOption) (*Retrier, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	r := &Retrier{
		policy: policy,
		random: rand.Float64,
		logger: slog.Default().With("component", "retry"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Policy returns the policy the retrier was built with.
func (r *Retrier) Policy() RetryPolicy {
	return r.policy
}

// Execute runs op until it succeeds, fails with a non-retryable kind, or the
// policy's attempts are exhausted. The returned error is always a *types.Error.
func Execute[T any](ctx context.Context, r *Retrier, op func(context.Context) (T, error)) (T, error) {
	var zero T

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			r.totalFailure.Add(1)
			return zero, types.NewError(Classify(err), "retry", err)
		}

		result, err := invoke(ctx, op)
		if err == nil {
			r.totalSuccess.Add(1)
			return result, nil
		}

		kind := Classify(err)
		if !IsRetryable(kind) || attempt >= r.policy.MaxAttempts {
			r.totalFailure.Add(1)
			return zero, asKindError(kind, err)
		}

		delay := r.policy.Backoff(attempt, r.random())
		r.totalRetries.Add(1)
		if r.onRetry != nil {
			r.onRetry(RetryEvent{Attempt: attempt, Kind: kind, Delay: delay, Err: err})
		}
		r.logger.Debug("Retrying after failure",
			"attempt", attempt,
			"kind", kind.String(),
			"delay", delay,
			"error", err,
		)

		if waitErr := r.wait(ctx, kind, delay); waitErr != nil {
			r.totalFailure.Add(1)
			return zero, types.NewError(Classify(waitErr), "retry", errors.Join(waitErr, err))
		}
	}
}

// Do is Execute for operations without a result.
func (r *Retrier) Do(ctx context.Context, op func(context.Context) error) error {
	_, err := Execute(ctx, r, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, op(ctx)
	})
	return err
}

func invoke[T any](ctx context.Context, op func(context.Context) (T, error)) (result T, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = types.NewError(types.ErrorKind{Kind: types.KindUnknown}, "retry", fmt.Errorf("panic: %v", p))
		}
	}()
	return op(ctx)
}

func asKindError(kind types.ErrorKind, err error) error {
	var e *types.Error
	if errors.As(err, &e) {
		return err
	}
	return types.NewError(kind, "", err)
}

func (r *Retrier) wait(ctx context.Context, kind types.ErrorKind, delay time.Duration) error {
	if kind.Is(types.KindNetworkUnavailable) && r.connectivity != nil {
		return r.awaitConnectivity(ctx, delay)
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Prober is a ConnectivityMonitor that can check reachability on demand.
// The retrier probes it rather than trusting a possibly stale flag.
type Prober interface {
	types.ConnectivityMonitor
	Probe(ctx context.Context) bool
}

// awaitConnectivity returns as soon as the monitor reports connectivity, or
// once delay has elapsed.
func (r *Retrier) awaitConnectivity(ctx context.Context, delay time.Duration) error {
	wctx, cancel := context.WithTimeout(ctx, delay)
	defer cancel()
	ticker := time.NewTicker(r.policy.ConnectivityPollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-wctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if r.isConnected(wctx) {
				return nil
			}
		}
	}
}

// isConnected probes on demand when the monitor supports it. A probe never
// outlives the remaining backoff.
func (r *Retrier) isConnected(ctx context.Context) bool {
	if p, ok := r.connectivity.(Prober); ok {
		return p.Probe(ctx) && ctx.Err() == nil
	}
	return r.connectivity.IsConnected()
}

// Stats returns retry statistics.
func (r *Retrier) Stats() (retries, success, failure int64) {
	return r.totalRetries.Load(), r.totalSuccess.Load(), r.totalFailure.Load()
}

// Reset resets the statistics.
func (r *Retrier) Reset() {
	r.totalRetries.Store(0)
	r.totalSuccess.Store(0)
	r.totalFailure.Store(0)
}
