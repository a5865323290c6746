// Package engine implements the Public Operations of spec.md §4.5 and
// §4.9–4.10: thin orchestrations over store, replica, and ha that the
// seven CLI commands call directly.
package engine

import "errors"

// The error taxonomy of spec.md §7. Every sentinel is wrapped with
// %w at each call site so errors.Is keeps working from cmd/* down to
// the lowest-level package that detected the failure.
var (
	ErrNotFound          = errors.New("engine: not found")
	ErrAlreadyExists     = errors.New("engine: already exists")
	ErrAlreadyPaired     = errors.New("engine: already paired")
	ErrAlreadyInGroup    = errors.New("engine: already in an HA group")
	ErrDestroyed         = errors.New("engine: store is destroyed")
	ErrTooLarge          = errors.New("engine: object exceeds block size")
	ErrNoSpace           = errors.New("engine: no free blocks")
	ErrCorrupt           = errors.New("engine: corrupt metadata")
	ErrUnreconstructable = errors.New("engine: cannot reconstruct, more than one member destroyed")
)
