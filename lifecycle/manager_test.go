package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meshgrid/crossregion"
	"github.com/meshgrid/crossregion/monitor"
	"github.com/meshgrid/crossregion/registry"
	"github.com/meshgrid/crossregion/replication"
	memorystore "github.com/meshgrid/crossregion/store/memory"
)

func newTestManager(t *testing.T) (*Manager, *monitor.MockProbe, *replication.Processor) {
	t.Helper()

	reg, err := registry.New([]crossregion.RegionConfig{
		{ID: "region-a", Role: crossregion.RolePrimary},
		{ID: "region-b"},
	}, zerolog.Nop())
	require.NoError(t, err)

	probe := monitor.NewMockProbe()
	mon := monitor.New(monitor.Config{
		Registry: reg,
		Probe:    probe,
		Interval: 10 * time.Millisecond,
		Logger:   zerolog.Nop(),
	})

	proc := replication.New(replication.Config{
		Registry: reg,
		Store:    memorystore.New(),
		Logger:   zerolog.Nop(),
	})

	return New(Config{Monitor: mon, Processor: proc, Logger: zerolog.Nop()}), probe, proc
}

func TestManager_StartStop(t *testing.T) {
	manager, probe, proc := newTestManager(t)

	require.NoError(t, manager.Start(context.Background()))

	// Both loops are live: the monitor probes and the processor consumes.
	_, err := proc.Replicate(crossregion.Record{ID: "user-1", Timestamp: 100}, "region-a")
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(probe.Calls()) >= 2 && proc.QueueDepth() == 0
	}, time.Second, 5*time.Millisecond)

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, manager.Stop(stopCtx))
}

func TestManager_DoubleStartFails(t *testing.T) {
	manager, _, _ := newTestManager(t)

	require.NoError(t, manager.Start(context.Background()))
	assert.Error(t, manager.Start(context.Background()))

	stopCtx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, manager.Stop(stopCtx))
}

func TestManager_StopWithoutStart(t *testing.T) {
	manager, _, _ := newTestManager(t)

	assert.NoError(t, manager.Stop(context.Background()))
}

func TestManager_RestartAfterStop(t *testing.T) {
	manager, _, _ := newTestManager(t)

	require.NoError(t, manager.Start(context.Background()))
	require.NoError(t, manager.Stop(context.Background()))

	// A stopped manager can be started again.
	require.NoError(t, manager.Start(context.Background()))
	assert.NoError(t, manager.Stop(context.Background()))
}
