// Package registry owns the canonical set of regions and enforces the
// status and role state machines. All mutations are serialized through the
// registry; readers receive value copies and never observe a partially
// updated region.
package registry

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/meshgrid/crossregion"
)

// Registry is the typed arena holding every region, keyed by region ID.
// The primary relationship is an index into the arena, never a second copy.
type Registry struct {
	mu        sync.RWMutex
	regions   map[string]*crossregion.Region
	primaryID string
	logger    zerolog.Logger
}

// New bootstraps a registry from static configuration. Regions default to
// the secondary role and healthy status; exactly one region must be
// configured as primary. Offline regions are registered with failed status
// so they never count as healthy before being restored.
func New(configs []crossregion.RegionConfig, logger zerolog.Logger) (*Registry, error) {
	r := &Registry{
		regions: make(map[string]*crossregion.Region, len(configs)),
		logger:  logger.With().Str("component", "registry").Logger(),
	}

	now := time.Now()
	for _, cfg := range configs {
		if cfg.ID == "" {
			return nil, fmt.Errorf("region config missing ID")
		}
		if _, exists := r.regions[cfg.ID]; exists {
			return nil, fmt.Errorf("duplicate region ID %q", cfg.ID)
		}

		role := cfg.Role
		if role == "" {
			role = crossregion.RoleSecondary
		}
		status := crossregion.StatusHealthy
		if role == crossregion.RoleOffline {
			status = crossregion.StatusFailed
		}

		r.regions[cfg.ID] = &crossregion.Region{
			ID:                cfg.ID,
			Name:              cfg.Name,
			Location:          cfg.Location,
			Endpoint:          cfg.Endpoint,
			Status:            status,
			Role:              role,
			LastHeartbeat:     now,
			ConnectionLatency: cfg.BaselineLatency,
		}

		if role == crossregion.RolePrimary {
			if r.primaryID != "" {
				return nil, fmt.Errorf("multiple primary regions configured: %q and %q", r.primaryID, cfg.ID)
			}
			r.primaryID = cfg.ID
		}
	}

	if len(r.regions) == 0 {
		return nil, fmt.Errorf("no regions configured")
	}
	if r.primaryID == "" {
		return nil, fmt.Errorf("no primary region configured")
	}

	return r, nil
}

// Get returns a copy of the region with the given ID.
// Returns crossregion.ErrRegionNotFound if the region is not registered.
func (r *Registry) Get(id string) (crossregion.Region, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	region, ok := r.regions[id]
	if !ok {
		return crossregion.Region{}, crossregion.ErrRegionNotFound
	}
	return *region, nil
}

// All returns copies of every region, ordered by ID for determinism.
func (r *Registry) All() []crossregion.Region {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]crossregion.Region, 0, len(r.regions))
	for _, region := range r.regions {
		all = append(all, *region)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all
}

// Healthy returns copies of every region with healthy status, ordered by ID.
func (r *Registry) Healthy() []crossregion.Region {
	r.mu.RLock()
	defer r.mu.RUnlock()

	healthy := make([]crossregion.Region, 0, len(r.regions))
	for _, region := range r.regions {
		if region.Status == crossregion.StatusHealthy {
			healthy = append(healthy, *region)
		}
	}
	sort.Slice(healthy, func(i, j int) bool { return healthy[i].ID < healthy[j].ID })
	return healthy
}

// Primary returns a copy of the current primary region.
// Returns crossregion.ErrNoPrimary if no region holds the primary role.
func (r *Registry) Primary() (crossregion.Region, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.primaryID == "" {
		return crossregion.Region{}, crossregion.ErrNoPrimary
	}
	region, ok := r.regions[r.primaryID]
	if !ok {
		return crossregion.Region{}, crossregion.ErrNoPrimary
	}
	return *region, nil
}

// SetStatus applies a status transition. Transitions outside the allowed
// graph return crossregion.ErrInvalidTransition and leave state unchanged.
func (r *Registry) SetStatus(id string, status crossregion.RegionStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	region, ok := r.regions[id]
	if !ok {
		return crossregion.ErrRegionNotFound
	}
	if !crossregion.ValidStatusTransition(region.Status, status) {
		r.logger.Warn().
			Str("region", id).
			Str("from", string(region.Status)).
			Str("to", string(status)).
			Msg("rejected status transition")
		return fmt.Errorf("status %s -> %s for region %s: %w",
			region.Status, status, id, crossregion.ErrInvalidTransition)
	}
	if region.Status == status {
		return nil
	}

	r.logger.Info().
		Str("region", id).
		Str("from", string(region.Status)).
		Str("to", string(status)).
		Msg("status transition")
	region.Status = status
	return nil
}

// SetRole applies a role transition. Promotion and demotion move regions
// between secondary and primary; use Restore to bring an offline region
// back. The primary index follows the last region promoted.
func (r *Registry) SetRole(id string, role crossregion.RegionRole) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.setRoleLocked(id, role)
}

func (r *Registry) setRoleLocked(id string, role crossregion.RegionRole) error {
	region, ok := r.regions[id]
	if !ok {
		return crossregion.ErrRegionNotFound
	}
	if !crossregion.ValidRoleTransition(region.Role, role) {
		r.logger.Warn().
			Str("region", id).
			Str("from", string(region.Role)).
			Str("to", string(role)).
			Msg("rejected role transition")
		return fmt.Errorf("role %s -> %s for region %s: %w",
			region.Role, role, id, crossregion.ErrInvalidTransition)
	}
	if region.Role == role {
		return nil
	}

	r.logger.Info().
		Str("region", id).
		Str("from", string(region.Role)).
		Str("to", string(role)).
		Msg("role transition")
	region.Role = role

	switch {
	case role == crossregion.RolePrimary:
		r.primaryID = id
	case r.primaryID == id:
		r.primaryID = ""
	}
	return nil
}

// Restore brings an offline region back as a healthy secondary. This is the
// only path out of the offline role.
func (r *Registry) Restore(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	region, ok := r.regions[id]
	if !ok {
		return crossregion.ErrRegionNotFound
	}
	if region.Role != crossregion.RoleOffline {
		return fmt.Errorf("restore of %s region %s: %w",
			region.Role, id, crossregion.ErrInvalidTransition)
	}

	if err := r.setRoleLocked(id, crossregion.RoleSecondary); err != nil {
		return err
	}
	region.Status = crossregion.StatusHealthy
	region.LastHeartbeat = time.Now()
	r.logger.Info().Str("region", id).Msg("restored offline region")
	return nil
}

// RecordHeartbeat marks a successful probe, updating the heartbeat
// timestamp and measured latency.
func (r *Registry) RecordHeartbeat(id string, latency time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	region, ok := r.regions[id]
	if !ok {
		return crossregion.ErrRegionNotFound
	}
	region.LastHeartbeat = time.Now()
	if latency > 0 {
		region.ConnectionLatency = latency
	}
	return nil
}

// Summary returns a consistent snapshot of the registry for operators.
func (r *Registry) Summary() crossregion.Summary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	now := time.Now()
	summary := crossregion.Summary{
		TotalRegions:  len(r.regions),
		PrimaryRegion: r.primaryID,
		Regions:       make(map[string]crossregion.RegionSummary, len(r.regions)),
	}
	for id, region := range r.regions {
		if region.Status == crossregion.StatusHealthy {
			summary.HealthyRegions++
		}
		summary.Regions[id] = crossregion.RegionSummary{
			Status:       region.Status,
			Role:         region.Role,
			LatencyMs:    region.ConnectionLatency.Milliseconds(),
			HeartbeatAge: now.Sub(region.LastHeartbeat),
		}
	}
	return summary
}
