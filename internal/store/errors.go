package store

import "errors"

// ErrAlreadyExists is returned when Create targets a store directory that
// already exists.
var ErrAlreadyExists = errors.New("store: already exists")

// ErrNotFound is returned when an operation targets a store directory
// that does not exist.
var ErrNotFound = errors.New("store: not found")

// ErrCorrupt is returned when a metadata file is shorter than expected
// or otherwise fails to decode into whole records.
var ErrCorrupt = errors.New("store: corrupt metadata")

// ErrObjectNotFound is returned when no block descriptor in a store
// carries the requested object id.
var ErrObjectNotFound = errors.New("store: object not found")
