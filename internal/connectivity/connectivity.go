// Package connectivity reports whether the upstream network is reachable.
package connectivity

import (
	"context"
	"log/slog"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/LavishGent/linernotes/internal/config"
	"github.com/LavishGent/linernotes/internal/types"
)

// Dialer opens a connection. *net.Dialer satisfies it.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Prober dials a TCP address on an interval and records whether it
// succeeded. IsConnected reads the latest result without blocking.
type Prober struct {
	address     string
	interval    time.Duration
	dialTimeout time.Duration
	dialer      Dialer
	logger      *slog.Logger

	connected atomic.Bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// NewProber creates a prober for address. The prober assumes it is connected
// until the first probe says otherwise.
func NewProber(address string, cfg config.ConnectivityConfig, logger *slog.Logger) *Prober {
	if logger == nil {
		logger = slog.Default()
	}
	dialTimeout := cfg.DialTimeout
	if dialTimeout <= 0 {
		dialTimeout = 2 * time.Second
	}

	p := &Prober{
		address:     address,
		interval:    cfg.Interval,
		dialTimeout: dialTimeout,
		dialer:      &net.Dialer{},
		logger:      logger.With("component", "connectivity", "address", address),
	}
	p.connected.Store(true)
	return p
}

// SetDialer replaces the dialer. Call before Start.
func (p *Prober) SetDialer(d Dialer) {
	p.dialer = d
}

// IsConnected reports the result of the most recent probe.
func (p *Prober) IsConnected() bool {
	return p.connected.Load()
}

// Start probes once synchronously and then on every interval until Stop.
func (p *Prober) Start(ctx context.Context) {
	p.Probe(ctx)
	if p.interval <= 0 {
		return
	}

	ctx, p.cancel = context.WithCancel(ctx)
	p.wg.Add(1)
	go p.run(ctx)
	p.logger.Info("Connectivity prober started", "interval", p.interval)
}

// Stop halts background probing and waits for the loop to exit.
func (p *Prober) Stop() {
	if p.cancel == nil {
		return
	}
	p.cancel()
	p.wg.Wait()
	p.logger.Info("Connectivity prober stopped")
}

func (p *Prober) run(ctx context.Context) {
	defer p.wg.Done()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.Probe(ctx)
		}
	}
}

// Probe dials once and updates the connected flag.
func (p *Prober) Probe(ctx context.Context) bool {
	dctx, cancel := context.WithTimeout(ctx, p.dialTimeout)
	defer cancel()

	conn, err := p.dialer.DialContext(dctx, "tcp", p.address)
	if err != nil {
		if p.connected.CompareAndSwap(true, false) {
			p.logger.Warn("Network unreachable", "error", err)
		}
		return false
	}
	_ = conn.Close()

	if p.connected.CompareAndSwap(false, true) {
		p.logger.Info("Network reachable again")
	}
	return true
}

// Static is a ConnectivityMonitor with a fixed, settable answer.
type Static struct {
	connected atomic.Bool
}

// NewStatic returns a monitor that reports connected.
func NewStatic(connected bool) *Static {
	s := &Static{}
	s.connected.Store(connected)
	return s
}

// IsConnected returns the configured answer.
func (s *Static) IsConnected() bool {
	return s.connected.Load()
}

// Set changes the answer.
func (s *Static) Set(connected bool) {
	s.connected.Store(connected)
}

var (
	_ types.ConnectivityMonitor = (*Prober)(nil)
	_ types.ConnectivityMonitor = (*Static)(nil)
)
