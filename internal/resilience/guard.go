package resilience

import (
	"context"
	"log/slog"

	"github.com/LavishGent/linernotes/internal/config"
	"github.com/LavishGent/linernotes/internal/types"
)

// Guard protects calls to one upstream service.
// Order: Bulkhead -> Circuit Breaker -> call.
//
// Retries live outside the guard, so every attempt is admitted by the
// bulkhead and counted by the circuit breaker on its own.
type Guard struct {
	bulkhead *Bulkhead
	circuit  *CircuitBreaker
	logger   *slog.Logger
}

// NewGuard builds a guard from config. Disabled patterns are left out.
func NewGuard(name string, cfg *config.Config, metrics types.MetricsRecorder, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	g := &Guard{logger: logger.With("component", "guard", "upstream", name)}

	if cfg.Bulkhead.Enabled {
		g.bulkhead = NewBulkhead(cfg.Bulkhead)
	}
	if cfg.CircuitBreaker.Enabled {
		g.circuit = NewCircuitBreaker(name, cfg.CircuitBreaker)
		g.circuit.SetOnStateChange(func(from, to State) {
			g.logger.Warn("Circuit breaker state changed", "from", from.String(), "to", to.String())
			if metrics != nil {
				metrics.RecordCircuitBreakerStateChange(from.String(), to.String())
			}
		})
	}
	return g
}

// Do runs fn under the guard. Only transient failures count against the
// circuit; a definitive answer such as "not found" shows the upstream is up.
func (g *Guard) Do(ctx context.Context, fn func(context.Context) error) error {
	if g == nil {
		return fn(ctx)
	}
	if g.bulkhead == nil {
		return g.callThroughCircuit(ctx, fn)
	}
	return g.bulkhead.Run(ctx, func(ctx context.Context) error {
		return g.callThroughCircuit(ctx, fn)
	})
}

func (g *Guard) callThroughCircuit(ctx context.Context, fn func(context.Context) error) error {
	if g.circuit == nil {
		return fn(ctx)
	}
	if !g.circuit.Allow() {
		return ErrCircuitOpen
	}

	err := fn(ctx)
	switch {
	case err == nil:
		g.circuit.RecordSuccess()
	case ctx.Err() != nil:
		// The caller gave up; that says nothing about the upstream.
	case IsRetryableError(err):
		g.circuit.RecordFailure()
	default:
		g.circuit.RecordSuccess()
	}
	return err
}

// CircuitState returns the breaker state, or closed when the breaker is disabled.
func (g *Guard) CircuitState() State {
	if g == nil || g.circuit == nil {
		return StateClosed
	}
	return g.circuit.State()
}

func (g *Guard) IsCircuitOpen() bool {
	return g.CircuitState() == StateOpen
}

// BulkheadStats returns bulkhead statistics, or zeros when the bulkhead is disabled.
func (g *Guard) BulkheadStats() BulkheadStats {
	if g == nil || g.bulkhead == nil {
		return BulkheadStats{}
	}
	return g.bulkhead.Stats()
}

// Health summarizes the guard for health reports.
func (g *Guard) Health() types.UpstreamHealth {
	stats := g.BulkheadStats()
	h := types.UpstreamHealth{
		CircuitBreakerState: g.CircuitState().String(),
		BulkheadActive:      stats.Active,
		BulkheadQueued:      stats.Queued,
		BulkheadRejected:    stats.TotalRejected,
		Status:              types.HealthStatusHealthy,
	}
	switch g.CircuitState() {
	case StateOpen:
		h.Status = types.HealthStatusUnhealthy
	case StateHalfOpen:
		h.Status = types.HealthStatusDegraded
	}
	return h
}
