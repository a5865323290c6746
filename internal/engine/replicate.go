package engine

import (
	"errors"
	"fmt"
	"os"

	"heartystore/internal/layout"
	"heartystore/internal/lockfile"
	"heartystore/internal/replica"
	"heartystore/internal/store"
)

// Replicate creates a replica pair for sourceID (spec.md §4.6 Create replica).
func Replicate(base string, sourceID uint32) (uint32, error) {
	lock, err := lockfile.AcquireExclusive(layout.StorePaths(base, sourceID).Lock)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return 0, fmt.Errorf("store %d: %w", sourceID, ErrNotFound)
		}
		return 0, fmt.Errorf("store %d: %w", sourceID, err)
	}
	defer lock.Unlock()

	replicaID, err := replica.Create(base, sourceID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		return 0, fmt.Errorf("store %d: %w", sourceID, ErrNotFound)
	case errors.Is(err, replica.ErrAlreadyPaired):
		return 0, fmt.Errorf("store %d: %w", sourceID, ErrAlreadyPaired)
	case err != nil:
		return 0, fmt.Errorf("store %d: %w", sourceID, err)
	}
	return replicaID, nil
}
