package engine

import (
	"errors"
	"fmt"
	"os"
	"time"

	"heartystore/internal/ha"
	"heartystore/internal/layout"
	"heartystore/internal/lockfile"
	"heartystore/internal/record"
	"heartystore/internal/replica"
	"heartystore/internal/store"
)

// Put writes payload into the first free block of store id, following
// the data flow of spec.md §4.5: load descriptors, check size, place,
// write the block, save descriptors, then best-effort parity/replica
// propagation.
func Put(base string, id uint32, payload []byte) (string, error) {
	paths := layout.StorePaths(base, id)
	lock, err := lockfile.AcquireExclusive(paths.Lock)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("store %d: %w", id, ErrNotFound)
		}
		return "", fmt.Errorf("store %d: %w", id, err)
	}
	defer lock.Unlock()

	c, err := store.Open(base, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", fmt.Errorf("store %d: %w", id, ErrNotFound)
		}
		return "", fmt.Errorf("store %d: %w", id, err)
	}

	desc, blocks, err := c.LoadDescriptors()
	if err != nil {
		return "", fmt.Errorf("store %d: %w", id, err)
	}
	if desc.IsDestroyed {
		return "", fmt.Errorf("store %d: %w", id, ErrDestroyed)
	}
	if len(payload) > store.BlockSize {
		return "", fmt.Errorf("store %d: object is %d bytes, limit is %d: %w", id, len(payload), store.BlockSize, ErrTooLarge)
	}

	k, err := store.FindFreeBlock(blocks)
	if err != nil {
		if errors.Is(err, store.ErrNoSpace) {
			return "", fmt.Errorf("store %d: %w", id, ErrNoSpace)
		}
		return "", fmt.Errorf("store %d: %w", id, err)
	}

	objectID := store.GenerateObjectID(time.Now())

	if err := c.WriteBlock(k, payload); err != nil {
		return "", fmt.Errorf("store %d: %w", id, err)
	}

	blocks[k] = record.BlockDescriptor{
		IsUsed:    true,
		ObjectID:  objectID,
		DataSize:  uint32(len(payload)),
		Timestamp: time.Now().UnixMilli(),
	}
	desc.UsedBlocks++

	if err := c.SaveDescriptors(desc, blocks); err != nil {
		return "", fmt.Errorf("store %d: %w", id, err)
	}

	if desc.HAGroupID != -1 {
		ha.UpdateParityForPutBestEffort(base, uint32(desc.HAGroupID), k)
	}
	if desc.ReplicaOf != -1 {
		replica.SyncBestEffort(base, id, uint32(desc.ReplicaOf))
	}

	return objectID, nil
}
