package crossregion

import "errors"

var (
	// ErrRegionNotFound indicates the specified region is not registered.
	ErrRegionNotFound = errors.New("region not found")

	// ErrNoPrimary indicates no region currently holds the primary role.
	// This occurs only after an election found no candidate.
	ErrNoPrimary = errors.New("no primary region")

	// ErrNoHealthyRegion indicates routing found no healthy region even
	// after the bounded auto-recovery pass. Fatal for that call only.
	ErrNoHealthyRegion = errors.New("no healthy region available")

	// ErrElectionImpossible indicates a failover found no candidate for
	// promotion. The primary is left unset; operator intervention implied.
	ErrElectionImpossible = errors.New("no candidate available for promotion")

	// ErrInvalidTransition indicates an attempted status or role change
	// outside the allowed state machine. State is left unchanged.
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrQueueFull indicates the replication queue is at capacity and the
	// job was not enqueued.
	ErrQueueFull = errors.New("replication queue full")

	// ErrRateLimited indicates replication intake exceeded the configured
	// rate and the job was dropped.
	ErrRateLimited = errors.New("replication rate limit exceeded")
)
