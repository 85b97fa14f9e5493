package store

import (
	"context"
	"sync"

	"github.com/meshgrid/crossregion"
)

// MockRecordStore is a configurable mock implementation of RecordStore for
// use in tests. It allows injecting errors for testing error paths and
// tracks method calls. When no override functions are set, it behaves as a
// simple in-memory store.
type MockRecordStore struct {
	mu sync.Mutex

	// StoreFunc is called by Store if set.
	StoreFunc func(ctx context.Context, regionID string, rec crossregion.Record) error

	// ReadFunc is called by Read if set.
	ReadFunc func(ctx context.Context, regionID, recordID string) (crossregion.Record, error)

	// DeleteRegionFunc is called by DeleteRegion if set.
	DeleteRegionFunc func(ctx context.Context, regionID string) error

	// Call tracking
	StoreCalls        []StoreCall
	ReadCalls         []ReadCall
	DeleteRegionCalls []string

	records map[string]map[string]crossregion.Record
}

// StoreCall records the parameters of a single Store call.
type StoreCall struct {
	RegionID string
	Record   crossregion.Record
}

// ReadCall records the parameters of a single Read call.
type ReadCall struct {
	RegionID string
	RecordID string
}

// NewMockRecordStore creates a new MockRecordStore with an empty call
// history and backing map.
func NewMockRecordStore() *MockRecordStore {
	return &MockRecordStore{
		StoreCalls:        make([]StoreCall, 0),
		ReadCalls:         make([]ReadCall, 0),
		DeleteRegionCalls: make([]string, 0),
		records:           make(map[string]map[string]crossregion.Record),
	}
}

// Store implements RecordStore.
func (m *MockRecordStore) Store(ctx context.Context, regionID string, rec crossregion.Record) error {
	m.mu.Lock()
	m.StoreCalls = append(m.StoreCalls, StoreCall{RegionID: regionID, Record: rec})
	fn := m.StoreFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, regionID, rec)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.records[regionID] == nil {
		m.records[regionID] = make(map[string]crossregion.Record)
	}
	m.records[regionID][rec.ID] = rec
	return nil
}

// Read implements RecordStore.
func (m *MockRecordStore) Read(ctx context.Context, regionID, recordID string) (crossregion.Record, error) {
	m.mu.Lock()
	m.ReadCalls = append(m.ReadCalls, ReadCall{RegionID: regionID, RecordID: recordID})
	fn := m.ReadFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, regionID, recordID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.records[regionID][recordID]
	if !ok {
		return crossregion.Record{}, ErrRecordNotFound
	}
	return rec, nil
}

// DeleteRegion implements RecordStore.
func (m *MockRecordStore) DeleteRegion(ctx context.Context, regionID string) error {
	m.mu.Lock()
	m.DeleteRegionCalls = append(m.DeleteRegionCalls, regionID)
	fn := m.DeleteRegionFunc
	m.mu.Unlock()

	if fn != nil {
		return fn(ctx, regionID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, regionID)
	return nil
}

// Reset clears the call history and stored records.
func (m *MockRecordStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.StoreCalls = make([]StoreCall, 0)
	m.ReadCalls = make([]ReadCall, 0)
	m.DeleteRegionCalls = make([]string, 0)
	m.records = make(map[string]map[string]crossregion.Record)
}
