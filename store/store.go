// Package store defines the record storage capability the replication
// processor writes through. Each region owns its records exclusively;
// implementations must be safe for concurrent access.
package store

import (
	"context"

	"github.com/meshgrid/crossregion"
)

// RecordStore persists replicated records per region.
type RecordStore interface {
	// Store writes a record into the given region's data store, replacing
	// any existing record with the same ID.
	Store(ctx context.Context, regionID string, rec crossregion.Record) error

	// Read returns the record with the given ID from the region's data
	// store. Returns ErrRecordNotFound if no such record exists.
	Read(ctx context.Context, regionID, recordID string) (crossregion.Record, error)

	// DeleteRegion removes every record held for the region. Used when a
	// region is decommissioned or must be repopulated from scratch.
	DeleteRegion(ctx context.Context, regionID string) error
}
