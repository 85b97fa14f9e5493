package replication

import "github.com/meshgrid/crossregion"

// Resolve applies last-write-wins conflict resolution between the record
// already stored at a target (local) and the incoming record (remote).
// The record with the strictly greater timestamp wins; ties keep the
// local record. Pure function, no side effects.
func Resolve(local, remote crossregion.Record) crossregion.Record {
	if remote.Timestamp > local.Timestamp {
		return remote
	}
	return local
}
