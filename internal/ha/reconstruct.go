package ha

import (
	"errors"
	"fmt"
	"os"

	"heartystore/internal/layout"
	"heartystore/internal/store"
)

// ErrUnreconstructable is returned when a degraded read needs more than
// one member's data to be missing from the XOR sum, i.e. more than one
// member of the group is destroyed at the moment of the call.
var ErrUnreconstructable = errors.New("ha: more than one member destroyed, cannot reconstruct")

// Reconstruct rebuilds block k of destroyedID by XOR-folding the parity
// stripe with the same block from every other, non-destroyed member
// (spec.md §4.8). It returns the full BlockSize-sized reconstruction;
// the caller trims it to the destroyed member's own descriptor's
// data_size.
func Reconstruct(base string, groupID uint32, destroyedID uint32, blockIndex uint32) ([]byte, error) {
	status, err := LoadStatus(base, groupID)
	if err != nil {
		return nil, fmt.Errorf("ha: load status: %w", err)
	}

	paths := layout.GroupPaths(base, groupID)
	recon := make([]byte, store.BlockSize)
	if err := readParityBlock(paths.Parity, blockIndex, recon); err != nil {
		return nil, fmt.Errorf("ha: read parity block %d: %w", blockIndex, err)
	}

	destroyedSeen := 0
	block := make([]byte, store.BlockSize)
	for _, id := range status.MemberIDs {
		if id == destroyedID {
			destroyedSeen++
			continue
		}
		c, err := store.Open(base, id)
		if err != nil {
			return nil, fmt.Errorf("ha: open member %d: %w", id, err)
		}
		desc, _, err := c.LoadDescriptors()
		if err != nil {
			return nil, fmt.Errorf("ha: load member %d descriptors: %w", id, err)
		}
		if desc.IsDestroyed {
			destroyedSeen++
			continue
		}
		if err := readFullBlock(base, id, blockIndex, block); err != nil {
			return nil, fmt.Errorf("ha: read member %d block %d: %w", id, blockIndex, err)
		}
		xorInto(recon, block)
	}

	if destroyedSeen > 1 {
		return nil, ErrUnreconstructable
	}
	return recon, nil
}

func readParityBlock(path string, k uint32, dst []byte) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = f.ReadAt(dst, int64(k)*store.BlockSize)
	return err
}
