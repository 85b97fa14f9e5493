// Package lifecycle supervises the background loops of the cross-region
// core: the health monitor and the replication processor. It provides an
// explicit start/stop lifecycle with cooperative cancellation and a bounded
// grace period on shutdown.
package lifecycle

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/meshgrid/crossregion/monitor"
	"github.com/meshgrid/crossregion/replication"
)

// Config holds configuration for the lifecycle Manager.
type Config struct {
	// Monitor is the health monitor loop to supervise (required).
	Monitor *monitor.Monitor

	// Processor is the replication loop to supervise (required).
	Processor *replication.Processor

	// ShutdownGrace bounds how long Stop waits for in-flight work before
	// abandoning it (default: 10s).
	ShutdownGrace time.Duration

	// Logger is for observability (optional).
	Logger zerolog.Logger
}

// Manager owns the background loops.
type Manager struct {
	config Config

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	started bool
}

// New creates a new lifecycle Manager with the given configuration.
// Applies the default shutdown grace if zero.
func New(cfg Config) *Manager {
	if cfg.ShutdownGrace == 0 {
		cfg.ShutdownGrace = 10 * time.Second
	}
	cfg.Logger = cfg.Logger.With().Str("component", "lifecycle").Logger()

	return &Manager{config: cfg}
}

// Start launches the monitor and processor loops. Calling Start twice
// without an intervening Stop is an error.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.started {
		return fmt.Errorf("lifecycle manager already started")
	}

	loopCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})
	m.started = true

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		m.config.Monitor.Run(loopCtx)
	}()
	go func() {
		defer wg.Done()
		m.config.Processor.Run(loopCtx)
	}()

	done := m.done
	go func() {
		wg.Wait()
		close(done)
	}()

	m.config.Logger.Info().Msg("background loops started")
	return nil
}

// Stop cancels the loops and waits for them to finish, bounded by the
// shutdown grace period and the caller's context. In-flight replication
// deliveries past the grace period are abandoned, best-effort.
func (m *Manager) Stop(ctx context.Context) error {
	m.mu.Lock()
	if !m.started {
		m.mu.Unlock()
		return nil
	}
	cancel, done := m.cancel, m.done
	m.started = false
	m.mu.Unlock()

	cancel()

	grace := time.NewTimer(m.config.ShutdownGrace)
	defer grace.Stop()

	select {
	case <-done:
		m.config.Logger.Info().Msg("background loops stopped")
		return nil
	case <-grace.C:
		m.config.Logger.Warn().
			Dur("grace", m.config.ShutdownGrace).
			Msg("shutdown grace exceeded, abandoning in-flight work")
		return fmt.Errorf("shutdown grace period of %v exceeded", m.config.ShutdownGrace)
	case <-ctx.Done():
		return ctx.Err()
	}
}
