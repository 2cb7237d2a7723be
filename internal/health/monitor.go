// Package health periodically probes the liveness of the three backing
// stores. Probe results are observability only: they never gate propagation
// or queries.
package health

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"salesync/internal/config"
)

// Prober is a store's liveness check.
type Prober interface {
	Name() string
	Probe(ctx context.Context) error
}

// NamedProber adapts a probe function to the Prober interface.
type NamedProber struct {
	StoreName string
	ProbeFunc func(ctx context.Context) error
}

func (p NamedProber) Name() string { return p.StoreName }

func (p NamedProber) Probe(ctx context.Context) error { return p.ProbeFunc(ctx) }

// Status is one store's probe outcome.
type Status struct {
	Healthy   bool      `json:"healthy"`
	LatencyMS int64     `json:"latencyMs"`
	Error     string    `json:"error,omitempty"`
	CheckedAt time.Time `json:"checkedAt"`
}

// Monitor runs the probes on a fixed interval and keeps the latest snapshot.
type Monitor struct {
	probers []Prober
	cfg     config.HealthConfig
	logger  *slog.Logger

	mu      sync.RWMutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	latest  map[string]Status
}

// NewMonitor wires the monitor over the given store probes.
func NewMonitor(cfg config.HealthConfig, logger *slog.Logger, probers ...Prober) *Monitor {
	return &Monitor{
		probers: probers,
		cfg:     cfg,
		logger:  logger.With("component", "health-monitor"),
		latest:  make(map[string]Status),
	}
}

// ProbeAll checks every store once, each bounded by the probe timeout.
// Failures are logged, recorded in the snapshot and never returned.
func (m *Monitor) ProbeAll(ctx context.Context) map[string]Status {
	statuses := make(map[string]Status, len(m.probers))
	for _, p := range m.probers {
		statuses[p.Name()] = m.probe(ctx, p)
	}

	m.mu.Lock()
	m.latest = statuses
	m.mu.Unlock()
	return statuses
}

func (m *Monitor) probe(ctx context.Context, p Prober) Status {
	ctx, cancel := context.WithTimeout(ctx, m.cfg.ProbeTimeout)
	defer cancel()

	start := time.Now()
	err := p.Probe(ctx)
	status := Status{
		Healthy:   err == nil,
		LatencyMS: time.Since(start).Milliseconds(),
		CheckedAt: start,
	}
	if err != nil {
		status.Error = err.Error()
		m.logger.Error("store probe failed", "store", p.Name(), "error", err)
	} else {
		m.logger.Debug("store probe ok", "store", p.Name(), "latencyMs", status.LatencyMS)
	}
	return status
}

// Latest returns the most recent snapshot, keyed by store name.
func (m *Monitor) Latest() map[string]Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]Status, len(m.latest))
	for name, st := range m.latest {
		out[name] = st
	}
	return out
}

// Start launches the probe loop. The first round runs immediately.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return nil
	}

	loopCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.mu.Unlock()

	m.wg.Add(1)
	go m.runLoop(loopCtx)

	m.logger.Info("health monitor started", "interval", m.cfg.Interval)
	return nil
}

// Stop cancels the loop and waits for it to drain.
func (m *Monitor) Stop(ctx context.Context) error {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return nil
	}

	if m.cancel != nil {
		m.cancel()
	}
	m.running = false
	m.mu.Unlock()

	done := make(chan struct{})
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		m.logger.Info("health monitor stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (m *Monitor) runLoop(ctx context.Context) {
	defer m.wg.Done()

	m.ProbeAll(ctx)

	ticker := time.NewTicker(m.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.ProbeAll(ctx)
		}
	}
}
