package integration_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshgrid/crossregion"
)

func TestCluster_PrimaryFailover(t *testing.T) {
	c := newCluster(t)

	// The primary stops answering probes. The monitor walks it through
	// failed and the coordinator promotes the lowest-latency secondary.
	c.probe.SetDown("us-east-1")

	c.waitForPrimary(t, "us-west-2")

	old, err := c.registry.Get("us-east-1")
	require.NoError(t, err)
	assert.Equal(t, crossregion.RoleSecondary, old.Role)

	history := c.coordinator.History()
	require.NotEmpty(t, history)
	last := history[len(history)-1]
	assert.True(t, last.Success)
	assert.Equal(t, "us-east-1", last.FromRegion)
	assert.Equal(t, "us-west-2", last.ToRegion)
}

func TestCluster_FailedRegionRecovers(t *testing.T) {
	c := newCluster(t)

	c.probe.SetDown("eu-west-1")
	c.waitForStatus(t, "eu-west-1", crossregion.StatusFailed)

	// Once probes succeed again the region walks back to healthy.
	c.probe.SetUp("eu-west-1")
	c.waitForStatus(t, "eu-west-1", crossregion.StatusHealthy)
}

func TestCluster_ReplicationFanOut(t *testing.T) {
	c := newCluster(t)

	_, err := c.processor.Replicate(crossregion.Record{
		ID:        "user-1",
		Timestamp: 100,
		Body:      []byte(`{"name":"Ada"}`),
	}, "us-east-1")
	require.NoError(t, err)

	// Every region except the source receives the record.
	for _, target := range []string{"us-west-2", "eu-west-1", "ap-south-1"} {
		rec := c.waitForRecord(t, target, "user-1")
		assert.Equal(t, []byte(`{"name":"Ada"}`), rec.Body)
	}
	assert.Equal(t, 0, c.store.Len("us-east-1"))
}

func TestCluster_ConflictingWritesConverge(t *testing.T) {
	c := newCluster(t)

	// Two concurrent writes to the same logical record from different
	// regions. The higher timestamp must win everywhere it lands.
	_, err := c.processor.Replicate(crossregion.Record{
		ID: "user-1", Timestamp: 90, Body: []byte("older"),
	}, "us-east-1")
	require.NoError(t, err)

	_, err = c.processor.Replicate(crossregion.Record{
		ID: "user-1", Timestamp: 100, Body: []byte("newer"),
	}, "us-west-2")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		rec, err := c.store.Read(context.Background(), "eu-west-1", "user-1")
		return err == nil && rec.Timestamp == 100
	}, 3*time.Second, 10*time.Millisecond)

	rec, err := c.store.Read(context.Background(), "eu-west-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, []byte("newer"), rec.Body)
}

func TestCluster_ReplicationMetrics(t *testing.T) {
	c := newCluster(t)

	_, err := c.processor.Replicate(crossregion.Record{
		ID: "user-1", Timestamp: 100, Body: []byte("data"),
	}, "us-east-1")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		m := c.processor.Metrics()
		return m["us-west-2"].Status == crossregion.ReplicationSynced
	}, 3*time.Second, 10*time.Millisecond)

	m := c.processor.Metrics()
	assert.Equal(t, int64(4), m["us-west-2"].BytesReplicated)
	assert.False(t, m["us-west-2"].LastSyncTime.IsZero())
}

func TestCluster_RoutingFollowsFailover(t *testing.T) {
	c := newCluster(t)

	// Requests go to the primary while it is healthy.
	result, err := c.router.Route(context.Background(), crossregion.ClientInfo{ID: "c1"}, []byte("req"))
	require.NoError(t, err)
	assert.Equal(t, "us-east-1", result.TargetRegion)

	// After a failover, new requests follow the new primary.
	c.probe.SetDown("us-east-1")
	c.waitForPrimary(t, "us-west-2")

	result, err = c.router.Route(context.Background(), crossregion.ClientInfo{ID: "c1"}, []byte("req"))
	require.NoError(t, err)
	assert.Equal(t, "us-west-2", result.TargetRegion)
}

func TestCluster_RoutingRules(t *testing.T) {
	c := newCluster(t, crossregion.RoutingRule{
		Name:         "eu-affinity",
		Condition:    func(ci crossregion.ClientInfo) bool { return ci.Location == "EU" },
		TargetRegion: "eu-west-1",
		Priority:     1,
		Active:       true,
	})

	result, err := c.router.Route(context.Background(), crossregion.ClientInfo{ID: "c1", Location: "EU"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "eu-west-1", result.TargetRegion)

	result, err = c.router.Route(context.Background(), crossregion.ClientInfo{ID: "c2", Location: "US"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "us-east-1", result.TargetRegion)

	counts := c.router.Counts()
	assert.Equal(t, int64(1), counts["eu-west-1"])
	assert.Equal(t, int64(1), counts["us-east-1"])
}

func TestCluster_ManualFailoverRoundTrip(t *testing.T) {
	c := newCluster(t)

	ok, err := c.coordinator.TriggerFailover(context.Background(), "us-east-1")
	require.NoError(t, err)
	require.True(t, ok)
	c.waitForPrimary(t, "us-west-2")

	// The demoted region recovers through probes and can win the primary
	// role back on the next failover.
	c.waitForStatus(t, "us-east-1", crossregion.StatusHealthy)

	ok, err = c.coordinator.TriggerFailover(context.Background(), "us-west-2")
	require.NoError(t, err)
	require.True(t, ok)
	c.waitForPrimary(t, "us-east-1")
}
