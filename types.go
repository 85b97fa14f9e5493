package crossregion

import "time"

// RegionStatus represents the health state of a region.
type RegionStatus string

const (
	// StatusHealthy indicates the region is responding to probes normally.
	StatusHealthy RegionStatus = "healthy"

	// StatusDegraded indicates the region has missed heartbeats beyond the
	// degraded threshold but is not yet considered failed.
	StatusDegraded RegionStatus = "degraded"

	// StatusFailed indicates the region has missed heartbeats beyond the
	// failure threshold and is excluded from routing and replication.
	StatusFailed RegionStatus = "failed"

	// StatusRecovering indicates a failed region has answered a probe and is
	// one successful probe away from becoming healthy again.
	StatusRecovering RegionStatus = "recovering"
)

// ValidStatusTransition reports whether a status change is allowed by the
// health state machine. Same-status changes are permitted as no-ops.
// A region may move directly from healthy to failed when both thresholds are
// exceeded between two monitor ticks, and a demoted primary may be lifted
// from failed straight to healthy during promotion.
func ValidStatusTransition(from, to RegionStatus) bool {
	if from == to {
		return true
	}
	switch from {
	case StatusHealthy:
		return to == StatusDegraded || to == StatusFailed
	case StatusDegraded:
		return to == StatusHealthy || to == StatusFailed
	case StatusFailed:
		return to == StatusRecovering || to == StatusHealthy
	case StatusRecovering:
		return to == StatusHealthy || to == StatusFailed
	}
	return false
}

// RegionRole represents a region's role in the replication topology.
type RegionRole string

const (
	// RolePrimary designates the region as the current source of truth.
	// Exactly one region holds this role outside an in-progress promotion.
	RolePrimary RegionRole = "primary"

	// RoleSecondary designates a standby region eligible for promotion.
	RoleSecondary RegionRole = "secondary"

	// RoleOffline designates a region excluded from elections until it is
	// explicitly restored.
	RoleOffline RegionRole = "offline"
)

// ValidRoleTransition reports whether a role change is allowed.
// Promotion and demotion move regions between secondary and primary; an
// offline region re-enters the topology only through an explicit restore,
// and no operation takes a region offline at runtime.
func ValidRoleTransition(from, to RegionRole) bool {
	if from == to {
		return true
	}
	switch {
	case from == RoleSecondary && to == RolePrimary:
		return true
	case from == RolePrimary && to == RoleSecondary:
		return true
	case from == RoleOffline && to == RoleSecondary:
		return true
	}
	return false
}

// Region is an independently addressable replica site. The registry owns the
// canonical copy; callers always receive value copies.
type Region struct {
	// ID is the unique identifier for this region (e.g. "us-east-1").
	ID string

	// Name is a human-readable label.
	Name string

	// Location describes where the region is deployed.
	Location string

	// Endpoint is the address used by probes and routed requests.
	Endpoint string

	// Status is the current health state.
	Status RegionStatus

	// Role is the current replication role.
	Role RegionRole

	// LastHeartbeat is the time of the last successful probe.
	LastHeartbeat time.Time

	// ConnectionLatency is the most recently measured probe round trip.
	ConnectionLatency time.Duration
}

// RegionConfig is the static bootstrap configuration for a single region.
// The registry is populated from these at startup; they are never mutated
// at runtime.
type RegionConfig struct {
	ID       string
	Name     string
	Location string
	Endpoint string

	// BaselineLatency seeds ConnectionLatency before the first probe.
	BaselineLatency time.Duration

	// Role is the initial role. Defaults to secondary; exactly one region
	// must be configured as primary.
	Role RegionRole
}

// Record is a replicated payload. Timestamp orders concurrent writes to the
// same logical ID during conflict resolution.
type Record struct {
	ID        string
	Timestamp int64
	Body      []byte
}

// ReplicationJob is a queued unit of replication work. Jobs are consumed
// exactly once and are not persisted beyond processing.
type ReplicationJob struct {
	// ID is the unique identifier for this job (UUID).
	ID string

	// SourceRegion is the region the write originated from; it is excluded
	// from fan-out targets.
	SourceRegion string

	// Payload is the record to replicate.
	Payload Record

	// CreatedAt is when the job was enqueued.
	CreatedAt time.Time
}

// ReplicationStatus summarizes a target region's replication freshness.
type ReplicationStatus string

const (
	// ReplicationSynced indicates the last delivery succeeded recently.
	ReplicationSynced ReplicationStatus = "synced"

	// ReplicationSyncing indicates moderate staleness without new activity.
	ReplicationSyncing ReplicationStatus = "syncing"

	// ReplicationLagging indicates staleness beyond the lagging threshold.
	ReplicationLagging ReplicationStatus = "lagging"

	// ReplicationFailed indicates the last delivery to the region failed.
	ReplicationFailed ReplicationStatus = "failed"
)

// ReplicationMetric tracks per-region replication lag and delivery outcomes.
type ReplicationMetric struct {
	// LagSeconds is the elapsed time since the last successful delivery,
	// recomputed periodically.
	LagSeconds float64

	// LastSyncTime is when the region last received a successful delivery.
	// Zero until the first success.
	LastSyncTime time.Time

	// BytesReplicated is a monotonically increasing count of delivered
	// payload bytes.
	BytesReplicated int64

	// Status is the current replication freshness classification.
	Status ReplicationStatus

	// ErrorCount is the number of failed delivery attempts.
	ErrorCount int
}

// ClientInfo carries the request metadata routing rules match against.
type ClientInfo struct {
	ID       string
	Location string
	Metadata map[string]string
}

// RoutingRule maps matching clients to a target region. Rules are static
// configuration, read-only at request time.
type RoutingRule struct {
	// Name identifies the rule in logs.
	Name string

	// Condition is the predicate evaluated against client metadata.
	Condition func(ClientInfo) bool

	// TargetRegion is the region ID selected when the condition matches.
	TargetRegion string

	// Priority orders evaluation; lower values are evaluated first.
	Priority int

	// Active rules participate in matching; inactive rules are skipped.
	Active bool
}

// RouteResult is returned to the caller of a routed request.
type RouteResult struct {
	// TargetRegion is the region the request executed against.
	TargetRegion string

	// Result is the endpoint's response payload.
	Result []byte

	// RequestID is the unique identifier assigned to this request (UUID).
	RequestID string

	// Timestamp is when the request was routed.
	Timestamp time.Time
}

// FailoverEvent records one promotion attempt for audit purposes.
type FailoverEvent struct {
	Timestamp  time.Time
	FromRegion string
	ToRegion   string
	Success    bool
}

// Summary is a point-in-time snapshot of the registry for operators.
type Summary struct {
	TotalRegions   int
	HealthyRegions int

	// PrimaryRegion is the current primary's ID, empty when unset.
	PrimaryRegion string

	Regions map[string]RegionSummary
}

// RegionSummary is the per-region slice of a Summary.
type RegionSummary struct {
	Status       RegionStatus
	Role         RegionRole
	LatencyMs    int64
	HeartbeatAge time.Duration
}
