// Package failover detects primary loss and promotes a replacement through
// a deterministic election over the remaining regions.
package failover

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/rs/zerolog"

	"github.com/meshgrid/crossregion"
	"github.com/meshgrid/crossregion/metrics"
	"github.com/meshgrid/crossregion/registry"
)

// Config holds configuration for the Coordinator.
type Config struct {
	// Registry is the region registry (required).
	Registry *registry.Registry

	// HistorySize bounds the failover event buffer (default: 100).
	HistorySize int

	// Logger is for observability (optional).
	Logger zerolog.Logger

	// Metrics is for observability (optional).
	Metrics *metrics.Collector
}

// Coordinator elects and promotes a new primary when the current primary
// fails. Promotions are serialized: at most one is in flight at a time.
type Coordinator struct {
	config Config

	mu     chan struct{} // promotion lock
	events *eventRing
}

// New creates a new Coordinator with the given configuration.
// Applies the default history size if zero.
func New(cfg Config) *Coordinator {
	if cfg.HistorySize == 0 {
		cfg.HistorySize = 100
	}
	cfg.Logger = cfg.Logger.With().Str("component", "failover").Logger()

	c := &Coordinator{
		config: cfg,
		mu:     make(chan struct{}, 1),
		events: newEventRing(cfg.HistorySize),
	}
	c.mu <- struct{}{}
	return c
}

// HandleRegionFailure marks the region failed and, if it held the primary
// role, elects and promotes a replacement. Returns true when the cluster
// still has a primary afterwards. Returns crossregion.ErrElectionImpossible
// when no candidate exists; the primary is then left unset.
func (c *Coordinator) HandleRegionFailure(ctx context.Context, regionID string) (bool, error) {
	select {
	case <-c.mu:
		defer func() { c.mu <- struct{}{} }()
	case <-ctx.Done():
		return false, ctx.Err()
	}

	region, err := c.config.Registry.Get(regionID)
	if err != nil {
		return false, err
	}

	if region.Status != crossregion.StatusFailed {
		if err := c.config.Registry.SetStatus(regionID, crossregion.StatusFailed); err != nil {
			return false, fmt.Errorf("mark region failed: %w", err)
		}
	}

	if region.Role != crossregion.RolePrimary {
		c.config.Logger.Info().Str("region", regionID).Msg("non-primary region failed, no election needed")
		return true, nil
	}

	return c.promote(regionID)
}

// TriggerFailover is the manual entry point with identical semantics to
// HandleRegionFailure.
func (c *Coordinator) TriggerFailover(ctx context.Context, regionID string) (bool, error) {
	c.config.Logger.Info().Str("region", regionID).Msg("manual failover triggered")
	return c.HandleRegionFailure(ctx, regionID)
}

// History returns the recorded failover events, oldest first.
func (c *Coordinator) History() []crossregion.FailoverEvent {
	return c.events.snapshot()
}

func (c *Coordinator) promote(failedID string) (bool, error) {
	winner, err := c.elect(failedID)
	if err != nil {
		// Demote the failed region so the registry stops reporting it as
		// primary. The cluster runs without a primary until a region
		// recovers and a later election succeeds.
		if derr := c.config.Registry.SetRole(failedID, crossregion.RoleSecondary); derr != nil {
			c.config.Logger.Error().Err(derr).Str("region", failedID).Msg("failed to demote failed primary")
		}
		c.record(crossregion.FailoverEvent{
			Timestamp:  time.Now(),
			FromRegion: failedID,
			Success:    false,
		})
		c.config.Metrics.IncFailover(false)
		c.config.Logger.Error().Str("from", failedID).Msg("election impossible, primary unset")
		return false, err
	}

	if err := c.config.Registry.SetRole(winner.ID, crossregion.RolePrimary); err != nil {
		return false, fmt.Errorf("promote %s: %w", winner.ID, err)
	}

	// Demote the old primary and keep it eligible for future elections:
	// a failed ex-primary is optimistically lifted back to healthy, and it
	// must never be left offline.
	if err := c.config.Registry.SetRole(failedID, crossregion.RoleSecondary); err != nil {
		c.config.Logger.Error().Err(err).Str("region", failedID).Msg("failed to demote old primary")
	}
	if old, err := c.config.Registry.Get(failedID); err == nil && old.Status == crossregion.StatusFailed {
		if err := c.config.Registry.SetStatus(failedID, crossregion.StatusHealthy); err != nil {
			c.config.Logger.Error().Err(err).Str("region", failedID).Msg("failed to reset old primary status")
		}
	}

	c.record(crossregion.FailoverEvent{
		Timestamp:  time.Now(),
		FromRegion: failedID,
		ToRegion:   winner.ID,
		Success:    true,
	})
	c.config.Metrics.IncFailover(true)
	c.config.Logger.Info().
		Str("from", failedID).
		Str("to", winner.ID).
		Dur("latency", winner.ConnectionLatency).
		Msg("promoted new primary")
	return true, nil
}

// elect picks the promotion winner deterministically: healthy secondaries
// first, then any non-failed secondary, then the first offline region
// restored as a last resort. Ties on latency break by region ID ascending.
func (c *Coordinator) elect(failedID string) (crossregion.Region, error) {
	all := c.config.Registry.All()

	candidates := filter(all, func(r crossregion.Region) bool {
		return r.ID != failedID &&
			r.Role == crossregion.RoleSecondary &&
			r.Status == crossregion.StatusHealthy
	})
	if len(candidates) == 0 {
		candidates = filter(all, func(r crossregion.Region) bool {
			return r.ID != failedID &&
				r.Role == crossregion.RoleSecondary &&
				r.Status != crossregion.StatusFailed
		})
	}
	if len(candidates) == 0 {
		offline := filter(all, func(r crossregion.Region) bool {
			return r.Role == crossregion.RoleOffline
		})
		if len(offline) > 0 {
			// All() orders by ID, so offline[0] is deterministic.
			id := offline[0].ID
			if err := c.config.Registry.Restore(id); err != nil {
				return crossregion.Region{}, fmt.Errorf("restore offline region %s: %w", id, err)
			}
			restored, err := c.config.Registry.Get(id)
			if err != nil {
				return crossregion.Region{}, err
			}
			candidates = []crossregion.Region{restored}
		}
	}
	if len(candidates) == 0 {
		return crossregion.Region{}, crossregion.ErrElectionImpossible
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].ConnectionLatency != candidates[j].ConnectionLatency {
			return candidates[i].ConnectionLatency < candidates[j].ConnectionLatency
		}
		return candidates[i].ID < candidates[j].ID
	})
	return candidates[0], nil
}

func (c *Coordinator) record(event crossregion.FailoverEvent) {
	c.events.append(event)
}

func filter(regions []crossregion.Region, keep func(crossregion.Region) bool) []crossregion.Region {
	out := make([]crossregion.Region, 0, len(regions))
	for _, r := range regions {
		if keep(r) {
			out = append(out, r)
		}
	}
	return out
}
