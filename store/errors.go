package store

import "errors"

// ErrRecordNotFound indicates no record with the requested ID exists in the
// region's data store.
var ErrRecordNotFound = errors.New("record not found")
