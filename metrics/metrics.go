package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ProbesTotal tracks health probe attempts by outcome.
var ProbesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "crossregion_probes_total",
		Help: "Total health probes performed",
	},
	[]string{"cluster", "region", "outcome"},
)

// StatusTransitionsTotal tracks region status transitions.
var StatusTransitionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "crossregion_status_transitions_total",
		Help: "Total region status transitions",
	},
	[]string{"cluster", "region", "to"},
)

// FailoversTotal tracks failover attempts by outcome.
var FailoversTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "crossregion_failovers_total",
		Help: "Total failover attempts",
	},
	[]string{"cluster", "outcome"},
)

// ReplicationJobsTotal tracks replication jobs enqueued.
var ReplicationJobsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "crossregion_replication_jobs_total",
		Help: "Total replication jobs enqueued",
	},
	[]string{"cluster", "source"},
)

// DeliveriesTotal tracks per-target replication deliveries by outcome.
var DeliveriesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "crossregion_deliveries_total",
		Help: "Total replication deliveries attempted",
	},
	[]string{"cluster", "region", "outcome"},
)

// ReplicatedBytesTotal tracks payload bytes delivered per region.
var ReplicatedBytesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "crossregion_replicated_bytes_total",
		Help: "Total payload bytes replicated",
	},
	[]string{"cluster", "region"},
)

// ReplicationLagSeconds tracks current replication lag per region.
var ReplicationLagSeconds = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "crossregion_replication_lag_seconds",
		Help: "Seconds since the region last received a successful delivery",
	},
	[]string{"cluster", "region"},
)

// RoutedRequestsTotal tracks requests routed per region.
var RoutedRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "crossregion_routed_requests_total",
		Help: "Total requests routed",
	},
	[]string{"cluster", "region"},
)

// RouteRecoveriesTotal tracks last-resort auto-recovery passes.
var RouteRecoveriesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "crossregion_route_recoveries_total",
		Help: "Total auto-recovery passes triggered by routing",
	},
	[]string{"cluster"},
)

// ProbeLatency tracks probe round-trip latency.
var ProbeLatency = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "crossregion_probe_latency_seconds",
		Help:    "Health probe round-trip latency",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"cluster", "region"},
)
