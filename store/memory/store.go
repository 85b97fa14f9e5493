// Package memory provides an in-memory RecordStore implementation. It is
// the default store for tests and single-process deployments.
package memory

import (
	"context"
	"sync"

	"github.com/meshgrid/crossregion"
	"github.com/meshgrid/crossregion/store"
)

// Store is an in-memory implementation of store.RecordStore. Records are
// held in per-region maps guarded by a sync.RWMutex.
type Store struct {
	mu      sync.RWMutex
	regions map[string]map[string]crossregion.Record // regionID -> recordID -> record
}

// New creates a new in-memory store with initialized maps.
func New() *Store {
	return &Store{
		regions: make(map[string]map[string]crossregion.Record),
	}
}

// Store writes a record into the given region's data store, replacing any
// existing record with the same ID.
func (s *Store) Store(ctx context.Context, regionID string, rec crossregion.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.regions[regionID] == nil {
		s.regions[regionID] = make(map[string]crossregion.Record)
	}
	s.regions[regionID][rec.ID] = rec
	return nil
}

// Read returns the record with the given ID from the region's data store.
// Returns store.ErrRecordNotFound if no such record exists.
func (s *Store) Read(ctx context.Context, regionID, recordID string) (crossregion.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.regions[regionID][recordID]
	if !ok {
		return crossregion.Record{}, store.ErrRecordNotFound
	}
	return rec, nil
}

// DeleteRegion removes every record held for the region.
func (s *Store) DeleteRegion(ctx context.Context, regionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.regions, regionID)
	return nil
}

// Len returns the number of records held for a region. Intended for tests
// and observability.
func (s *Store) Len(regionID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.regions[regionID])
}
