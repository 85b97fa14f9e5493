// Package monitor implements periodic health probing of every registered
// region and drives the status state machine from probe results.
package monitor

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/meshgrid/crossregion"
	"github.com/meshgrid/crossregion/metrics"
	"github.com/meshgrid/crossregion/registry"
)

// FailureHandler reacts to a region crossing into failed status. The
// failover coordinator implements this to elect a replacement primary.
type FailureHandler interface {
	HandleRegionFailure(ctx context.Context, regionID string) (bool, error)
}

// Config holds configuration for the Monitor.
type Config struct {
	// Registry is the region registry to monitor (required).
	Registry *registry.Registry

	// Probe performs the per-region health check (required).
	Probe Probe

	// Failover is invoked when the primary crosses into failed (optional).
	Failover FailureHandler

	// Interval is how often all regions are probed (default: 5s).
	Interval time.Duration

	// DegradedThreshold is the heartbeat age past which a healthy region
	// becomes degraded (default: 10s).
	DegradedThreshold time.Duration

	// FailureThreshold is the heartbeat age past which a region becomes
	// failed (default: 30s).
	FailureThreshold time.Duration

	// Logger is for observability (optional).
	Logger zerolog.Logger

	// Metrics is for observability (optional).
	Metrics *metrics.Collector
}

// Monitor runs the fixed-interval probe loop.
type Monitor struct {
	config Config
}

// New creates a new Monitor with the given configuration.
// Applies default values for interval and thresholds if zero.
func New(cfg Config) *Monitor {
	if cfg.Interval == 0 {
		cfg.Interval = 5 * time.Second
	}
	if cfg.DegradedThreshold == 0 {
		cfg.DegradedThreshold = 10 * time.Second
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 30 * time.Second
	}
	cfg.Logger = cfg.Logger.With().Str("component", "monitor").Logger()

	return &Monitor{config: cfg}
}

// Run probes all regions every interval until the context is cancelled.
// An initial sweep runs immediately. A failing probe or state update for
// one region never stops monitoring of the others.
func (m *Monitor) Run(ctx context.Context) {
	ticker := time.NewTicker(m.config.Interval)
	defer ticker.Stop()

	m.config.Logger.Info().Dur("interval", m.config.Interval).Msg("health monitor started")

	m.CheckAll(ctx)
	for {
		select {
		case <-ctx.Done():
			m.config.Logger.Info().Msg("health monitor stopping")
			return
		case <-ticker.C:
			m.CheckAll(ctx)
		}
	}
}

// CheckAll performs one probe sweep over every registered region.
func (m *Monitor) CheckAll(ctx context.Context) {
	for _, region := range m.config.Registry.All() {
		if ctx.Err() != nil {
			return
		}
		if err := m.checkRegion(ctx, region); err != nil {
			m.config.Logger.Error().
				Err(err).
				Str("region", region.ID).
				Msg("health check update failed")
		}
	}
}

func (m *Monitor) checkRegion(ctx context.Context, region crossregion.Region) error {
	latency, probeErr := m.config.Probe.Probe(ctx, region)
	m.config.Metrics.IncProbe(region.ID, probeErr == nil)

	if probeErr == nil {
		m.config.Metrics.ObserveProbeLatency(region.ID, latency.Seconds())
		return m.handleSuccess(region, latency)
	}
	return m.handleFailure(ctx, region, probeErr)
}

// handleSuccess records the heartbeat and walks the recovery path:
// failed regions become recovering, and degraded or recovering regions
// become healthy on the next successful probe.
func (m *Monitor) handleSuccess(region crossregion.Region, latency time.Duration) error {
	if err := m.config.Registry.RecordHeartbeat(region.ID, latency); err != nil {
		return err
	}

	var next crossregion.RegionStatus
	switch region.Status {
	case crossregion.StatusFailed:
		next = crossregion.StatusRecovering
	case crossregion.StatusRecovering, crossregion.StatusDegraded:
		next = crossregion.StatusHealthy
	default:
		return nil
	}

	if err := m.config.Registry.SetStatus(region.ID, next); err != nil {
		return err
	}
	m.config.Metrics.IncStatusTransition(region.ID, string(next))
	return nil
}

// handleFailure applies the threshold transitions based on heartbeat age
// and escalates to the failover coordinator when the primary fails.
func (m *Monitor) handleFailure(ctx context.Context, region crossregion.Region, probeErr error) error {
	age := time.Since(region.LastHeartbeat)
	m.config.Logger.Warn().
		Err(probeErr).
		Str("region", region.ID).
		Dur("heartbeat_age", age).
		Msg("health probe failed")

	switch {
	case age > m.config.FailureThreshold && region.Status != crossregion.StatusFailed:
		if err := m.config.Registry.SetStatus(region.ID, crossregion.StatusFailed); err != nil {
			return err
		}
		m.config.Metrics.IncStatusTransition(region.ID, string(crossregion.StatusFailed))

		if region.Role == crossregion.RolePrimary && m.config.Failover != nil {
			m.config.Logger.Error().Str("region", region.ID).Msg("primary region failed, triggering failover")
			if _, err := m.config.Failover.HandleRegionFailure(ctx, region.ID); err != nil {
				if errors.Is(err, crossregion.ErrElectionImpossible) {
					m.config.Logger.Error().Str("region", region.ID).Msg("no candidate for promotion, primary unset")
					return nil
				}
				return err
			}
		}
	case age > m.config.DegradedThreshold && region.Status == crossregion.StatusHealthy:
		if err := m.config.Registry.SetStatus(region.ID, crossregion.StatusDegraded); err != nil {
			return err
		}
		m.config.Metrics.IncStatusTransition(region.ID, string(crossregion.StatusDegraded))
	}
	return nil
}
