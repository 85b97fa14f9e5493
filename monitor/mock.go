package monitor

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/meshgrid/crossregion"
)

// ErrProbeDown is returned by MockProbe for regions marked down.
var ErrProbeDown = errors.New("probe target down")

// MockProbe is a configurable mock implementation of Probe for tests.
// By default every region probes healthy with its current connection
// latency; individual regions can be marked down to drive the detection
// path the same way a real outage would.
type MockProbe struct {
	mu sync.Mutex

	// ProbeFunc is called by Probe if set, overriding the down-map behavior.
	ProbeFunc func(ctx context.Context, region crossregion.Region) (time.Duration, error)

	// ProbeCalls records the region IDs probed, in order.
	ProbeCalls []string

	down      map[string]bool
	latencies map[string]time.Duration
}

// NewMockProbe creates a new MockProbe with an empty call history.
func NewMockProbe() *MockProbe {
	return &MockProbe{
		ProbeCalls: make([]string, 0),
		down:       make(map[string]bool),
		latencies:  make(map[string]time.Duration),
	}
}

// Probe implements the Probe interface.
func (m *MockProbe) Probe(ctx context.Context, region crossregion.Region) (time.Duration, error) {
	m.mu.Lock()
	m.ProbeCalls = append(m.ProbeCalls, region.ID)
	fn := m.ProbeFunc
	isDown := m.down[region.ID]
	latency, hasLatency := m.latencies[region.ID]
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, region)
	}
	if isDown {
		return 0, ErrProbeDown
	}
	if hasLatency {
		return latency, nil
	}
	return region.ConnectionLatency, nil
}

// Calls returns a copy of the probed region IDs, safe to read while a
// monitor loop is running.
func (m *MockProbe) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.ProbeCalls...)
}

// SetDown marks a region as failing probes.
func (m *MockProbe) SetDown(regionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.down[regionID] = true
}

// SetUp marks a region as passing probes again.
func (m *MockProbe) SetUp(regionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.down, regionID)
}

// SetLatency fixes the latency reported for a region's successful probes.
func (m *MockProbe) SetLatency(regionID string, latency time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latencies[regionID] = latency
}

// Reset clears the call history and fault configuration.
func (m *MockProbe) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ProbeCalls = make([]string, 0)
	m.down = make(map[string]bool)
	m.latencies = make(map[string]time.Duration)
}
