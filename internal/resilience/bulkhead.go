package resilience

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/LavishGent/linernotes/internal/config"
)

// Bulkhead caps concurrent upstream calls. Callers beyond MaxConcurrent wait
// in a bounded queue for at most AcquireTimeout.
type Bulkhead struct {
	maxConcurrent  int
	maxQueue       int
	acquireTimeout time.Duration
	semaphore      chan struct{}

	activeCount   atomic.Int32
	queuedCount   atomic.Int32
	rejectedCount atomic.Int64
	totalExecuted atomic.Int64
}

func NewBulkhead(cfg config.BulkheadConfig) *Bulkhead {
	b := &Bulkhead{
		maxConcurrent:  cfg.MaxConcurrent,
		maxQueue:       cfg.MaxQueue,
		acquireTimeout: cfg.AcquireTimeout,
	}

	if b.maxConcurrent <= 0 {
		b.maxConcurrent = 8
	}
	if b.maxQueue < 0 {
		b.maxQueue = 0
	}
	if b.acquireTimeout <= 0 {
		b.acquireTimeout = time.Second
	}

	b.semaphore = make(chan struct{}, b.maxConcurrent)
	return b
}

// Run executes fn once a slot is available.
func (b *Bulkhead) Run(ctx context.Context, fn func(context.Context) error) error {
	if err := b.acquire(ctx); err != nil {
		return err
	}
	defer b.release()

	b.activeCount.Add(1)
	defer b.activeCount.Add(-1)

	err := fn(ctx)
	b.totalExecuted.Add(1)
	return err
}

func (b *Bulkhead) acquire(ctx context.Context) error {
	select {
	case b.semaphore <- struct{}{}:
		return nil
	default:
	}

	if int(b.queuedCount.Add(1)) > b.maxQueue {
		b.queuedCount.Add(-1)
		b.rejectedCount.Add(1)
		return ErrBulkheadFull
	}
	defer b.queuedCount.Add(-1)

	timer := time.NewTimer(b.acquireTimeout)
	defer timer.Stop()

	select {
	case b.semaphore <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		b.rejectedCount.Add(1)
		return ErrBulkheadTimeout
	}
}

func (b *Bulkhead) release() {
	<-b.semaphore
}

func (b *Bulkhead) Stats() BulkheadStats {
	return BulkheadStats{
		MaxConcurrent: b.maxConcurrent,
		MaxQueue:      b.maxQueue,
		Active:        int(b.activeCount.Load()),
		Queued:        int(b.queuedCount.Load()),
		TotalExecuted: b.totalExecuted.Load(),
		TotalRejected: b.rejectedCount.Load(),
	}
}

type BulkheadStats struct {
	MaxConcurrent int
	MaxQueue      int
	Active        int
	Queued        int
	TotalExecuted int64
	TotalRejected int64
}
