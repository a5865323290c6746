package ha

import (
	"errors"
	"fmt"
	"io"
	"os"

	"heartystore/internal/layout"
	"heartystore/internal/obslog"
	"heartystore/internal/store"
)

// recomputeFullParity computes every block's parity stripe from scratch:
// parity[k] = XOR over all members of their data block k, for every k.
// Used once, at group creation (spec.md §4.7 "Initial parity").
func recomputeFullParity(base string, parityPath string, ids []uint32) error {
	parity, err := os.OpenFile(parityPath, os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("open parity file: %w", err)
	}
	defer parity.Close()

	stripe := make([]byte, store.BlockSize)
	block := make([]byte, store.BlockSize)

	for k := 0; k < store.NumBlocks; k++ {
		for i := range stripe {
			stripe[i] = 0
		}
		for _, id := range ids {
			if err := readFullBlock(base, id, uint32(k), block); err != nil {
				return fmt.Errorf("read block %d of store %d: %w", k, id, err)
			}
			xorInto(stripe, block)
		}
		if _, err := parity.WriteAt(stripe, int64(k)*store.BlockSize); err != nil {
			return fmt.Errorf("write parity block %d: %w", k, err)
		}
	}
	return parity.Sync()
}

// UpdateParityForPut recomputes the parity stripe for a single block
// index after a put on any member, by re-XORing that block across every
// group member, the writer included (the design-note-sanctioned equivalent of an
// incremental old-XOR-new update, chosen because the store container
// does not retain a block's pre-image once WriteBlock overwrites it).
func UpdateParityForPut(base string, groupID uint32, blockIndex uint32) error {
	status, err := LoadStatus(base, groupID)
	if err != nil {
		return fmt.Errorf("load status: %w", err)
	}

	paths := layout.GroupPaths(base, groupID)
	parity, err := os.OpenFile(paths.Parity, os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("open parity file: %w", err)
	}
	defer parity.Close()

	stripe := make([]byte, store.BlockSize)
	block := make([]byte, store.BlockSize)
	for _, id := range status.MemberIDs {
		if err := readFullBlock(base, id, blockIndex, block); err != nil {
			return fmt.Errorf("read block %d of store %d: %w", blockIndex, id, err)
		}
		xorInto(stripe, block)
	}

	if _, err := parity.WriteAt(stripe, int64(blockIndex)*store.BlockSize); err != nil {
		return fmt.Errorf("write parity block %d: %w", blockIndex, err)
	}
	return parity.Sync()
}

// UpdateParityForPutBestEffort runs UpdateParityForPut but only logs a
// warning on failure, matching spec.md §4.5 step 9.
func UpdateParityForPutBestEffort(base string, groupID uint32, blockIndex uint32) {
	if err := UpdateParityForPut(base, groupID, blockIndex); err != nil {
		obslog.Warn("ha", err, "parity update failed after primary write committed")
	}
}

// readFullBlock reads the whole BlockSize-sized slot for block k from
// member id's data file directly (bypassing descriptors: parity must
// fold in the full block, padding zeros included, per spec.md §4.7).
func readFullBlock(base string, id uint32, k uint32, dst []byte) error {
	paths := layout.StorePaths(base, id)
	f, err := os.Open(paths.Data)
	if err != nil {
		return err
	}
	defer f.Close()

	for i := range dst {
		dst[i] = 0
	}
	_, err = f.ReadAt(dst, int64(k)*store.BlockSize)
	if err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func xorInto(dst, src []byte) {
	for i := range dst {
		dst[i] ^= src[i]
	}
}
