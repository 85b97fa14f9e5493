// Package replication fans writes out from a source region to every
// healthy peer, resolving conflicts with last-write-wins and tracking
// per-region lag metrics.
package replication

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/meshgrid/crossregion"
	"github.com/meshgrid/crossregion/metrics"
	"github.com/meshgrid/crossregion/registry"
	"github.com/meshgrid/crossregion/store"
)

// Config holds configuration for the Processor.
type Config struct {
	// Registry is the region registry used to pick fan-out targets (required).
	Registry *registry.Registry

	// Store is the record storage capability written through (required).
	Store store.RecordStore

	// QueueSize bounds the job queue (default: 1024).
	QueueSize int

	// MaxConcurrentDeliveries bounds parallel per-target deliveries within
	// one job (default: 10).
	MaxConcurrentDeliveries int

	// DeliveryTimeout bounds a single per-target delivery (default: 5s).
	DeliveryTimeout time.Duration

	// RecomputeInterval is how often lag is recomputed (default: 5s).
	RecomputeInterval time.Duration

	// SyncingThreshold is the lag past which a region is syncing (default: 10s).
	SyncingThreshold time.Duration

	// LaggingThreshold is the lag past which a region is lagging (default: 30s).
	LaggingThreshold time.Duration

	// RateLimit is the maximum jobs accepted per second, 0 for the default
	// of 1000. RateBurst is the burst size (default: 100).
	RateLimit int
	RateBurst int

	// Logger is for observability (optional).
	Logger zerolog.Logger

	// Metrics is for observability (optional).
	Metrics *metrics.Collector
}

// regionMetric pairs the exported metric with when tracking began, so lag
// is meaningful before the first successful delivery.
type regionMetric struct {
	crossregion.ReplicationMetric
	trackedAt time.Time
}

// Processor consumes the replication queue and delivers each job to all
// healthy non-source regions concurrently and independently.
type Processor struct {
	config  Config
	queue   chan crossregion.ReplicationJob
	limiter *rate.Limiter

	mu      sync.RWMutex
	metrics map[string]*regionMetric
}

// New creates a new Processor with the given configuration.
// Applies default values for queue, concurrency, and threshold settings.
func New(cfg Config) *Processor {
	if cfg.QueueSize == 0 {
		cfg.QueueSize = 1024
	}
	if cfg.MaxConcurrentDeliveries == 0 {
		cfg.MaxConcurrentDeliveries = 10
	}
	if cfg.DeliveryTimeout == 0 {
		cfg.DeliveryTimeout = 5 * time.Second
	}
	if cfg.RecomputeInterval == 0 {
		cfg.RecomputeInterval = 5 * time.Second
	}
	if cfg.SyncingThreshold == 0 {
		cfg.SyncingThreshold = 10 * time.Second
	}
	if cfg.LaggingThreshold == 0 {
		cfg.LaggingThreshold = 30 * time.Second
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = 1000
	}
	if cfg.RateBurst == 0 {
		cfg.RateBurst = 100
	}
	cfg.Logger = cfg.Logger.With().Str("component", "replication").Logger()

	return &Processor{
		config:  cfg,
		queue:   make(chan crossregion.ReplicationJob, cfg.QueueSize),
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.RateBurst),
		metrics: make(map[string]*regionMetric),
	}
}

// Replicate enqueues a replication job and returns its ID immediately.
// Returns crossregion.ErrRateLimited when intake exceeds the configured
// rate and crossregion.ErrQueueFull when the queue is at capacity.
func (p *Processor) Replicate(payload crossregion.Record, sourceRegion string) (string, error) {
	if !p.limiter.Allow() {
		p.config.Logger.Warn().Str("source", sourceRegion).Msg("replication job dropped by rate limiter")
		return "", crossregion.ErrRateLimited
	}

	job := crossregion.ReplicationJob{
		ID:           uuid.New().String(),
		SourceRegion: sourceRegion,
		Payload:      payload,
		CreatedAt:    time.Now(),
	}

	select {
	case p.queue <- job:
		p.config.Metrics.IncReplicationJob(sourceRegion)
		p.config.Logger.Debug().
			Str("job", job.ID).
			Str("source", sourceRegion).
			Str("record", payload.ID).
			Msg("replication job enqueued")
		return job.ID, nil
	default:
		return "", crossregion.ErrQueueFull
	}
}

// Run consumes the queue until the context is cancelled, servicing the
// periodic lag recomputation between jobs. A failed delivery never stops
// the loop.
func (p *Processor) Run(ctx context.Context) {
	ticker := time.NewTicker(p.config.RecomputeInterval)
	defer ticker.Stop()

	p.config.Logger.Info().Msg("replication processor started")
	for {
		select {
		case <-ctx.Done():
			p.config.Logger.Info().Msg("replication processor stopping")
			return
		case job := <-p.queue:
			p.process(ctx, job)
		case <-ticker.C:
			p.recompute()
		}
	}
}

// QueueDepth returns the number of jobs waiting in the queue.
func (p *Processor) QueueDepth() int {
	return len(p.queue)
}

// Metrics returns a snapshot of the per-region replication metrics.
func (p *Processor) Metrics() map[string]crossregion.ReplicationMetric {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make(map[string]crossregion.ReplicationMetric, len(p.metrics))
	for id, m := range p.metrics {
		out[id] = m.ReplicationMetric
	}
	return out
}

// process fans one job out to every healthy region except the source.
// Deliveries run concurrently and independently: all results are collected,
// and one target's failure neither aborts nor delays the others.
func (p *Processor) process(ctx context.Context, job crossregion.ReplicationJob) {
	targets := make([]crossregion.Region, 0)
	for _, region := range p.config.Registry.Healthy() {
		if region.ID != job.SourceRegion {
			targets = append(targets, region)
		}
	}
	if len(targets) == 0 {
		p.config.Logger.Debug().Str("job", job.ID).Msg("no targets to replicate to")
		return
	}

	sem := make(chan struct{}, p.config.MaxConcurrentDeliveries)
	var wg sync.WaitGroup
	for _, target := range targets {
		wg.Add(1)
		go func(target crossregion.Region) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			if err := p.deliver(ctx, job, target.ID); err != nil {
				p.config.Logger.Error().
					Err(err).
					Str("job", job.ID).
					Str("target", target.ID).
					Msg("delivery failed")
				p.recordFailure(target.ID)
			} else {
				p.recordSuccess(target.ID, len(job.Payload.Body))
			}
		}(target)
	}
	wg.Wait()
}

// deliver writes the job's payload to one target, resolving against any
// record already stored under the same logical ID. The delivery is detached
// from the loop context so shutdown does not abort a write already in
// flight; the delivery timeout alone bounds it.
func (p *Processor) deliver(ctx context.Context, job crossregion.ReplicationJob, targetID string) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.config.DeliveryTimeout)
	defer cancel()

	resolved := job.Payload
	existing, err := p.config.Store.Read(ctx, targetID, job.Payload.ID)
	switch {
	case err == nil:
		resolved = Resolve(existing, job.Payload)
	case errors.Is(err, store.ErrRecordNotFound):
		// First write of this record at the target.
	default:
		return err
	}

	return p.config.Store.Store(ctx, targetID, resolved)
}

func (p *Processor) recordSuccess(regionID string, bytes int) {
	p.mu.Lock()
	m := p.metric(regionID)
	m.LastSyncTime = time.Now()
	m.BytesReplicated += int64(bytes)
	m.Status = crossregion.ReplicationSynced
	m.LagSeconds = 0
	p.mu.Unlock()

	p.config.Metrics.IncDelivery(regionID, true)
	p.config.Metrics.AddReplicatedBytes(regionID, bytes)
}

func (p *Processor) recordFailure(regionID string) {
	p.mu.Lock()
	m := p.metric(regionID)
	m.ErrorCount++
	m.Status = crossregion.ReplicationFailed
	p.mu.Unlock()

	p.config.Metrics.IncDelivery(regionID, false)
}

// metric returns the tracked metric for a region, creating it lazily on
// the first delivery attempt. Caller must hold p.mu.
func (p *Processor) metric(regionID string) *regionMetric {
	m, ok := p.metrics[regionID]
	if !ok {
		m = &regionMetric{
			ReplicationMetric: crossregion.ReplicationMetric{Status: crossregion.ReplicationSynced},
			trackedAt:         time.Now(),
		}
		p.metrics[regionID] = m
	}
	return m
}

// recompute derives lag for every tracked region and escalates staleness
// to syncing or lagging. A failed status is never overridden by staleness;
// it clears only when a delivery succeeds again.
func (p *Processor) recompute() {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := time.Now()
	for regionID, m := range p.metrics {
		base := m.LastSyncTime
		if base.IsZero() {
			base = m.trackedAt
		}
		lag := now.Sub(base)
		m.LagSeconds = lag.Seconds()
		p.config.Metrics.SetReplicationLag(regionID, m.LagSeconds)

		if m.Status == crossregion.ReplicationFailed {
			continue
		}
		switch {
		case lag > p.config.LaggingThreshold:
			m.Status = crossregion.ReplicationLagging
		case lag > p.config.SyncingThreshold:
			m.Status = crossregion.ReplicationSyncing
		}
	}
}
