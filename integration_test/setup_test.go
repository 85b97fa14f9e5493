package integration_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/meshgrid/crossregion"
	"github.com/meshgrid/crossregion/failover"
	"github.com/meshgrid/crossregion/lifecycle"
	"github.com/meshgrid/crossregion/monitor"
	"github.com/meshgrid/crossregion/registry"
	"github.com/meshgrid/crossregion/replication"
	"github.com/meshgrid/crossregion/router"
	memorystore "github.com/meshgrid/crossregion/store/memory"
)

// cluster wires the full stack against in-memory infrastructure: a mock
// probe drives health detection and a memory store receives replication.
type cluster struct {
	registry    *registry.Registry
	probe       *monitor.MockProbe
	coordinator *failover.Coordinator
	processor   *replication.Processor
	store       *memorystore.Store
	router      *router.Router
	endpoint    *router.MockEndpoint
	manager     *lifecycle.Manager
}

// newCluster builds and starts a four-region cluster with fast intervals.
// The cluster is stopped automatically when the test finishes.
func newCluster(t *testing.T, rules ...crossregion.RoutingRule) *cluster {
	t.Helper()

	logger := zerolog.Nop()
	reg, err := registry.New([]crossregion.RegionConfig{
		{ID: "us-east-1", Name: "US East", BaselineLatency: 20 * time.Millisecond, Role: crossregion.RolePrimary},
		{ID: "us-west-2", Name: "US West", BaselineLatency: 65 * time.Millisecond},
		{ID: "eu-west-1", Name: "EU West", BaselineLatency: 120 * time.Millisecond},
		{ID: "ap-south-1", Name: "AP South", BaselineLatency: 180 * time.Millisecond},
	}, logger)
	require.NoError(t, err)

	probe := monitor.NewMockProbe()
	coordinator := failover.New(failover.Config{Registry: reg, Logger: logger})

	mon := monitor.New(monitor.Config{
		Registry:          reg,
		Probe:             probe,
		Failover:          coordinator,
		Interval:          10 * time.Millisecond,
		DegradedThreshold: 30 * time.Millisecond,
		FailureThreshold:  80 * time.Millisecond,
		Logger:            logger,
	})

	recordStore := memorystore.New()
	processor := replication.New(replication.Config{
		Registry: reg,
		Store:    recordStore,
		Logger:   logger,
	})

	endpoint := router.NewMockEndpoint()
	rtr := router.New(router.Config{
		Registry: reg,
		Endpoint: endpoint,
		Rules:    rules,
		Logger:   logger,
	})

	manager := lifecycle.New(lifecycle.Config{
		Monitor:   mon,
		Processor: processor,
		Logger:    logger,
	})
	require.NoError(t, manager.Start(context.Background()))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = manager.Stop(ctx)
	})

	return &cluster{
		registry:    reg,
		probe:       probe,
		coordinator: coordinator,
		processor:   processor,
		store:       recordStore,
		router:      rtr,
		endpoint:    endpoint,
		manager:     manager,
	}
}

// waitForPrimary blocks until the cluster's primary is the expected region.
func (c *cluster) waitForPrimary(t *testing.T, regionID string) {
	t.Helper()
	require.Eventually(t, func() bool {
		primary, err := c.registry.Primary()
		return err == nil && primary.ID == regionID
	}, 3*time.Second, 10*time.Millisecond, "expected %s to become primary", regionID)
}

// waitForStatus blocks until the region reaches the expected status.
func (c *cluster) waitForStatus(t *testing.T, regionID string, status crossregion.RegionStatus) {
	t.Helper()
	require.Eventually(t, func() bool {
		region, err := c.registry.Get(regionID)
		return err == nil && region.Status == status
	}, 3*time.Second, 10*time.Millisecond, "expected %s to reach status %s", regionID, status)
}

// waitForRecord blocks until the record is readable at the region.
func (c *cluster) waitForRecord(t *testing.T, regionID, recordID string) crossregion.Record {
	t.Helper()
	var rec crossregion.Record
	require.Eventually(t, func() bool {
		got, err := c.store.Read(context.Background(), regionID, recordID)
		if err != nil {
			return false
		}
		rec = got
		return true
	}, 3*time.Second, 10*time.Millisecond, "expected record %s at region %s", recordID, regionID)
	return rec
}
