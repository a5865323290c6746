// Package replica implements the Replica Pair Protocol of spec.md §4.6:
// creating a bytewise-mirrored store, re-copying the whole data file on
// every put, and serving reads when the primary side is destroyed.
package replica

import (
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"

	"heartystore/internal/layout"
	"heartystore/internal/obslog"
	"heartystore/internal/record"
	"heartystore/internal/store"
)

// ErrAlreadyPaired is returned when Create targets a store that is
// already in a replica pair or an HA group (spec.md I3).
var ErrAlreadyPaired = errors.New("replica: store already paired or in an HA group")

// idMin and idMax bound the replica id draw. spec.md's design notes flag
// this range as narrow and retry-prone; it is kept as-is (not widened)
// because the scenario tests in spec.md §8 rely on replica ids being
// visually distinct from ordinary store ids.
const (
	idMin = 1000
	idMax = 9999
	maxIDAttempts = 200
)

// Create clones source into a fresh replica store: byte-copies the data
// file, cross-links the descriptors, and returns the new replica id.
func Create(base string, sourceID uint32) (uint32, error) {
	src, err := store.Open(base, sourceID)
	if err != nil {
		return 0, err
	}

	srcDesc, srcBlocks, err := src.LoadDescriptors()
	if err != nil {
		return 0, err
	}
	if srcDesc.IsReplica || srcDesc.ReplicaOf != -1 || srcDesc.HAGroupID != -1 {
		return 0, ErrAlreadyPaired
	}

	replicaID, err := pickReplicaID(base)
	if err != nil {
		return 0, err
	}

	dst, err := store.Create(base, replicaID)
	if err != nil {
		return 0, fmt.Errorf("replica: create target store: %w", err)
	}

	if err := copyDataFile(base, sourceID, replicaID); err != nil {
		_ = dst.Remove()
		return 0, fmt.Errorf("replica: copy data file: %w", err)
	}

	replicaDesc := srcDesc
	replicaDesc.StoreID = replicaID
	replicaDesc.IsReplica = true
	replicaDesc.ReplicaOf = int32(sourceID)

	if err := dst.SaveDescriptors(replicaDesc, srcBlocks); err != nil {
		_ = dst.Remove()
		return 0, fmt.Errorf("replica: write target metadata: %w", err)
	}

	srcDesc.ReplicaOf = int32(replicaID)
	if err := src.SaveDescriptors(srcDesc, srcBlocks); err != nil {
		_ = dst.Remove()
		return 0, fmt.Errorf("replica: update source metadata: %w", err)
	}

	return replicaID, nil
}

func pickReplicaID(base string) (uint32, error) {
	for i := 0; i < maxIDAttempts; i++ {
		candidate := uint32(idMin + rand.Intn(idMax-idMin+1))
		if !layout.StoreExists(base, candidate) {
			return candidate, nil
		}
	}
	return 0, fmt.Errorf("replica: could not find a free id in [%d, %d] after %d attempts", idMin, idMax, maxIDAttempts)
}

func copyDataFile(base string, sourceID, targetID uint32) error {
	srcPaths := layout.StorePaths(base, sourceID)
	dstPaths := layout.StorePaths(base, targetID)

	srcFile, err := os.Open(srcPaths.Data)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	dstFile, err := os.OpenFile(dstPaths.Data, os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer dstFile.Close()

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		return err
	}
	return dstFile.Sync()
}

// Sync performs the put-time push of spec.md §4.6: a full resync of
// every block from source to target, followed by a target metadata
// write whose store_id and replica role fields reflect the target's own
// on-disk role (not a copy of the source's), per the design notes'
// "split sync from re-stamping" guidance.
func Sync(base string, sourceID, targetID uint32) error {
	src, err := store.Open(base, sourceID)
	if err != nil {
		return fmt.Errorf("replica: open source: %w", err)
	}
	dst, err := store.Open(base, targetID)
	if err != nil {
		return fmt.Errorf("replica: open target: %w", err)
	}

	srcDesc, srcBlocks, err := src.LoadDescriptors()
	if err != nil {
		return fmt.Errorf("replica: load source descriptors: %w", err)
	}
	targetDesc, _, err := dst.LoadDescriptors()
	if err != nil {
		return fmt.Errorf("replica: load target descriptors: %w", err)
	}

	if err := copyDataFile(base, sourceID, targetID); err != nil {
		return fmt.Errorf("replica: resync data: %w", err)
	}

	// Re-derive the target's own role fields; only its blocks and
	// used-block accounting come from the source.
	newDesc := record.StoreDescriptor{
		StoreID:     targetDesc.StoreID,
		TotalBlocks: srcDesc.TotalBlocks,
		BlockSize:   srcDesc.BlockSize,
		UsedBlocks:  srcDesc.UsedBlocks,
		IsReplica:   targetDesc.IsReplica,
		ReplicaOf:   targetDesc.ReplicaOf,
		HAGroupID:   targetDesc.HAGroupID,
		IsDestroyed: targetDesc.IsDestroyed,
	}

	if err := dst.SaveDescriptors(newDesc, srcBlocks); err != nil {
		return fmt.Errorf("replica: write target metadata: %w", err)
	}
	return nil
}

// SyncBestEffort runs Sync but only logs a warning on failure, matching
// spec.md §4.5 step 9: the primary write has already committed.
func SyncBestEffort(base string, sourceID, targetID uint32) {
	if err := Sync(base, sourceID, targetID); err != nil {
		obslog.Warn("replica", err, "replica sync failed after primary write committed")
	}
}

// ReadFromPeer serves a degraded read by opening the paired store and
// reading its copy of the block, per spec.md §4.8 step 4.
func ReadFromPeer(base string, peerID uint32, objectID string) ([]byte, error) {
	peer, err := store.Open(base, peerID)
	if err != nil {
		return nil, fmt.Errorf("replica: open peer %d: %w", peerID, err)
	}
	_, blocks, err := peer.LoadDescriptors()
	if err != nil {
		return nil, fmt.Errorf("replica: load peer descriptors: %w", err)
	}
	for i, b := range blocks {
		if b.IsUsed && b.ObjectID == objectID {
			return peer.ReadBlock(uint32(i), b.DataSize)
		}
	}
	return nil, store.ErrObjectNotFound
}
