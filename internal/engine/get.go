package engine

import (
	"errors"
	"fmt"
	"os"

	"heartystore/internal/ha"
	"heartystore/internal/layout"
	"heartystore/internal/lockfile"
	"heartystore/internal/record"
	"heartystore/internal/replica"
	"heartystore/internal/store"
)

// Get retrieves an object by id, following the Degraded Read Engine of
// spec.md §4.8: a normal block read when the store is healthy,
// parity reconstruction for a destroyed HA member, or a read from the
// paired store for a destroyed replica.
func Get(base string, id uint32, objectID string) ([]byte, error) {
	paths := layout.StorePaths(base, id)
	lock, err := lockfile.AcquireShared(paths.Lock)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("store %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("store %d: %w", id, err)
	}
	defer lock.Unlock()

	c, err := store.Open(base, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("store %d: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("store %d: %w", id, err)
	}

	desc, blocks, err := c.LoadDescriptors()
	if err != nil {
		return nil, fmt.Errorf("store %d: %w", id, err)
	}

	k, dataSize, found := findByObjectID(blocks, objectID)
	if !found {
		return nil, fmt.Errorf("object %q in store %d: %w", objectID, id, store.ErrObjectNotFound)
	}

	if !desc.IsDestroyed {
		data, err := c.ReadBlock(k, dataSize)
		if err != nil {
			return nil, fmt.Errorf("store %d: %w", id, err)
		}
		return data, nil
	}

	if desc.HAGroupID != -1 {
		full, err := ha.Reconstruct(base, uint32(desc.HAGroupID), id, k)
		if err != nil {
			if errors.Is(err, ha.ErrUnreconstructable) {
				return nil, fmt.Errorf("store %d: %w", id, ErrUnreconstructable)
			}
			return nil, fmt.Errorf("store %d: %w", id, err)
		}
		return full[:dataSize], nil
	}

	if desc.ReplicaOf != -1 {
		data, err := replica.ReadFromPeer(base, uint32(desc.ReplicaOf), objectID)
		if err != nil {
			return nil, fmt.Errorf("store %d: %w", id, err)
		}
		return data, nil
	}

	return nil, fmt.Errorf("store %d: %w", id, ErrDestroyed)
}

func findByObjectID(blocks []record.BlockDescriptor, objectID string) (uint32, uint32, bool) {
	for i, b := range blocks {
		if b.IsUsed && b.ObjectID == objectID {
			return uint32(i), b.DataSize, true
		}
	}
	return 0, 0, false
}
