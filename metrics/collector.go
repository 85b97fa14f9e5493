package metrics

// Collector wraps metrics and provides helper methods with the cluster
// label pre-filled. A nil Collector is valid and records nothing, so
// components can treat metrics as optional.
type Collector struct {
	cluster string
}

// NewCollector creates a new Collector for the given cluster name.
func NewCollector(cluster string) *Collector {
	return &Collector{cluster: cluster}
}

// IncProbe increments the probe counter for a region and outcome.
func (c *Collector) IncProbe(region string, ok bool) {
	if c == nil {
		return
	}
	ProbesTotal.WithLabelValues(c.cluster, region, outcome(ok)).Inc()
}

// ObserveProbeLatency records a probe round-trip observation.
func (c *Collector) ObserveProbeLatency(region string, seconds float64) {
	if c == nil {
		return
	}
	ProbeLatency.WithLabelValues(c.cluster, region).Observe(seconds)
}

// IncStatusTransition increments the transition counter for a region.
func (c *Collector) IncStatusTransition(region, to string) {
	if c == nil {
		return
	}
	StatusTransitionsTotal.WithLabelValues(c.cluster, region, to).Inc()
}

// IncFailover increments the failover counter by outcome.
func (c *Collector) IncFailover(success bool) {
	if c == nil {
		return
	}
	FailoversTotal.WithLabelValues(c.cluster, outcome(success)).Inc()
}

// IncReplicationJob increments the enqueued jobs counter.
func (c *Collector) IncReplicationJob(source string) {
	if c == nil {
		return
	}
	ReplicationJobsTotal.WithLabelValues(c.cluster, source).Inc()
}

// IncDelivery increments the delivery counter for a target region.
func (c *Collector) IncDelivery(region string, ok bool) {
	if c == nil {
		return
	}
	DeliveriesTotal.WithLabelValues(c.cluster, region, outcome(ok)).Inc()
}

// AddReplicatedBytes adds delivered payload bytes for a target region.
func (c *Collector) AddReplicatedBytes(region string, n int) {
	if c == nil {
		return
	}
	ReplicatedBytesTotal.WithLabelValues(c.cluster, region).Add(float64(n))
}

// SetReplicationLag sets the lag gauge for a region.
func (c *Collector) SetReplicationLag(region string, seconds float64) {
	if c == nil {
		return
	}
	ReplicationLagSeconds.WithLabelValues(c.cluster, region).Set(seconds)
}

// IncRoutedRequest increments the routed requests counter for a region.
func (c *Collector) IncRoutedRequest(region string) {
	if c == nil {
		return
	}
	RoutedRequestsTotal.WithLabelValues(c.cluster, region).Inc()
}

// IncRouteRecovery increments the auto-recovery pass counter.
func (c *Collector) IncRouteRecovery() {
	if c == nil {
		return
	}
	RouteRecoveriesTotal.WithLabelValues(c.cluster).Inc()
}

func outcome(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}
