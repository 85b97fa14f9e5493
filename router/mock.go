package router

import (
	"context"
	"sync"

	"github.com/meshgrid/crossregion"
)

// MockEndpoint is a mock implementation of Endpoint for testing.
type MockEndpoint struct {
	mu sync.Mutex

	// ExecuteFunc is called by Execute if set.
	ExecuteFunc func(ctx context.Context, region crossregion.Region, payload []byte) ([]byte, error)

	// ExecuteCalls records the parameters of each Execute call.
	ExecuteCalls []ExecuteCall
}

// ExecuteCall records the parameters of a single Execute call.
type ExecuteCall struct {
	RegionID string
	Payload  []byte
}

// NewMockEndpoint creates a new MockEndpoint with an empty call history.
func NewMockEndpoint() *MockEndpoint {
	return &MockEndpoint{
		ExecuteCalls: make([]ExecuteCall, 0),
	}
}

// Execute implements the Endpoint interface.
// It records the call parameters, then calls ExecuteFunc if set; otherwise
// it echoes the payload back.
func (m *MockEndpoint) Execute(ctx context.Context, region crossregion.Region, payload []byte) ([]byte, error) {
	m.mu.Lock()
	m.ExecuteCalls = append(m.ExecuteCalls, ExecuteCall{RegionID: region.ID, Payload: payload})
	fn := m.ExecuteFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, region, payload)
	}
	return payload, nil
}

// Reset clears the call history.
func (m *MockEndpoint) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ExecuteCalls = make([]ExecuteCall, 0)
}
