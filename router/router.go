// Package router maps inbound client requests to a target region using
// routing rules, the current primary, and live health, with a min-latency
// fallback and one bounded auto-recovery attempt.
package router

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/meshgrid/crossregion"
	"github.com/meshgrid/crossregion/metrics"
	"github.com/meshgrid/crossregion/registry"
)

// Config holds configuration for the Router.
type Config struct {
	// Registry is the region registry (required).
	Registry *registry.Registry

	// Endpoint executes routed requests (required).
	Endpoint Endpoint

	// Rules are evaluated in priority order; lower priority first. The
	// slice is copied and sorted at construction and read-only afterwards.
	Rules []crossregion.RoutingRule

	// Logger is for observability (optional).
	Logger zerolog.Logger

	// Metrics is for observability (optional).
	Metrics *metrics.Collector
}

// Router routes client requests to regions.
type Router struct {
	config Config
	rules  []crossregion.RoutingRule

	mu     sync.Mutex
	counts map[string]int64
}

// New creates a new Router with the given configuration.
func New(cfg Config) *Router {
	cfg.Logger = cfg.Logger.With().Str("component", "router").Logger()

	rules := make([]crossregion.RoutingRule, len(cfg.Rules))
	copy(rules, cfg.Rules)
	sort.SliceStable(rules, func(i, j int) bool {
		return rules[i].Priority < rules[j].Priority
	})

	return &Router{
		config: cfg,
		rules:  rules,
		counts: make(map[string]int64),
	}
}

// Route selects a target region for the client and executes the payload
// against it. Selection order: first matching active rule, then the
// current primary, then the healthy region with minimum latency. When no
// healthy region exists, one auto-recovery pass runs before the call fails
// with crossregion.ErrNoHealthyRegion.
func (r *Router) Route(ctx context.Context, client crossregion.ClientInfo, payload []byte) (crossregion.RouteResult, error) {
	region, err := r.selectRegion(client)
	if err != nil {
		return crossregion.RouteResult{}, err
	}

	r.mu.Lock()
	r.counts[region.ID]++
	r.mu.Unlock()
	r.config.Metrics.IncRoutedRequest(region.ID)

	result := crossregion.RouteResult{
		TargetRegion: region.ID,
		RequestID:    uuid.New().String(),
		Timestamp:    time.Now(),
	}

	out, err := r.config.Endpoint.Execute(ctx, region, payload)
	if err != nil {
		return result, fmt.Errorf("execute routed request %s: %w", result.RequestID, err)
	}
	result.Result = out

	r.config.Logger.Debug().
		Str("request", result.RequestID).
		Str("client", client.ID).
		Str("region", region.ID).
		Msg("request routed")
	return result, nil
}

// Counts returns a copy of the per-region routed request counters.
func (r *Router) Counts() map[string]int64 {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]int64, len(r.counts))
	for id, n := range r.counts {
		out[id] = n
	}
	return out
}

func (r *Router) selectRegion(client crossregion.ClientInfo) (crossregion.Region, error) {
	preferred, ok := r.matchRule(client)
	if !ok {
		primary, err := r.config.Registry.Primary()
		if err == nil {
			preferred = primary
			ok = true
		}
	}

	if ok && preferred.Status == crossregion.StatusHealthy {
		return preferred, nil
	}

	if fallback, err := r.lowestLatencyHealthy(); err == nil {
		if ok {
			r.config.Logger.Warn().
				Str("preferred", preferred.ID).
				Str("fallback", fallback.ID).
				Msg("preferred region unhealthy, falling back")
		}
		return fallback, nil
	}

	// Last resort: heal every failed region once and retry. This is
	// distinct from the monitor's gradual recovery path and runs at most
	// once per call.
	r.autoRecover()
	if fallback, err := r.lowestLatencyHealthy(); err == nil {
		return fallback, nil
	}
	return crossregion.Region{}, crossregion.ErrNoHealthyRegion
}

// matchRule returns the target region of the first matching active rule.
func (r *Router) matchRule(client crossregion.ClientInfo) (crossregion.Region, bool) {
	for _, rule := range r.rules {
		if !rule.Active || rule.Condition == nil || !rule.Condition(client) {
			continue
		}
		region, err := r.config.Registry.Get(rule.TargetRegion)
		if err != nil {
			r.config.Logger.Warn().
				Str("rule", rule.Name).
				Str("target", rule.TargetRegion).
				Msg("rule targets unknown region, skipping")
			continue
		}
		return region, true
	}
	return crossregion.Region{}, false
}

func (r *Router) lowestLatencyHealthy() (crossregion.Region, error) {
	healthy := r.config.Registry.Healthy()
	if len(healthy) == 0 {
		return crossregion.Region{}, crossregion.ErrNoHealthyRegion
	}
	best := healthy[0]
	for _, region := range healthy[1:] {
		if region.ConnectionLatency < best.ConnectionLatency {
			best = region
		}
	}
	return best, nil
}

// autoRecover walks every failed region through recovering to healthy.
// Offline and merely degraded regions are left alone.
func (r *Router) autoRecover() {
	r.config.Logger.Warn().Msg("no healthy regions, attempting auto-recovery")
	r.config.Metrics.IncRouteRecovery()

	for _, region := range r.config.Registry.All() {
		if region.Status != crossregion.StatusFailed || region.Role == crossregion.RoleOffline {
			continue
		}
		if err := r.config.Registry.SetStatus(region.ID, crossregion.StatusRecovering); err != nil {
			if !errors.Is(err, crossregion.ErrInvalidTransition) {
				r.config.Logger.Error().Err(err).Str("region", region.ID).Msg("auto-recovery failed")
			}
			continue
		}
		if err := r.config.Registry.SetStatus(region.ID, crossregion.StatusHealthy); err != nil {
			r.config.Logger.Error().Err(err).Str("region", region.ID).Msg("auto-recovery failed")
		}
	}
}
