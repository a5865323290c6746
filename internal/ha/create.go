package ha

import (
	"errors"
	"fmt"
	"os"

	"heartystore/internal/layout"
	"heartystore/internal/record"
	"heartystore/internal/store"
)

// ErrTooFewMembers is returned when Create is given fewer than two store ids.
var ErrTooFewMembers = errors.New("ha: group needs at least two members")

// ErrDuplicateMember is returned when Create is given a repeated store id.
var ErrDuplicateMember = errors.New("ha: duplicate member id")

// ErrAlreadyInGroup is returned when a member is already part of an HA group.
var ErrAlreadyInGroup = errors.New("ha: member already in an HA group")

// ErrReplicated is returned when a member is part of a replica pair,
// which cannot be nested inside an HA group (spec.md I3).
var ErrReplicated = errors.New("ha: member is part of a replica pair")

// Create validates ids, builds the group directory and parity file, and
// stamps every member with the new group id. The group id is the first
// member's store id, per spec.md §4.7.
func Create(base string, ids []uint32) (uint32, error) {
	if err := validateMembers(base, ids); err != nil {
		return 0, err
	}

	groupID := ids[0]
	paths := layout.GroupPaths(base, groupID)

	if err := os.MkdirAll(paths.Root, 0o755); err != nil {
		return 0, fmt.Errorf("ha: create group directory: %w", err)
	}

	if err := createZeroedParityFile(paths.Parity); err != nil {
		_ = os.RemoveAll(paths.Root)
		return 0, fmt.Errorf("ha: create parity file: %w", err)
	}

	if err := recomputeFullParity(base, paths.Parity, ids); err != nil {
		_ = os.RemoveAll(paths.Root)
		return 0, fmt.Errorf("ha: compute initial parity: %w", err)
	}

	if err := stampMembers(base, ids, groupID); err != nil {
		_ = os.RemoveAll(paths.Root)
		return 0, fmt.Errorf("ha: stamp members: %w", err)
	}

	status := record.HAStatus{
		GroupID:        groupID,
		StoreCount:     uint32(len(ids)),
		DestroyedCount: 0,
		MemberIDs:      append([]uint32(nil), ids...),
	}
	if err := SaveStatus(base, status); err != nil {
		_ = os.RemoveAll(paths.Root)
		return 0, fmt.Errorf("ha: write status record: %w", err)
	}

	return groupID, nil
}

func validateMembers(base string, ids []uint32) error {
	if len(ids) < 2 {
		return ErrTooFewMembers
	}

	seen := make(map[uint32]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return ErrDuplicateMember
		}
		seen[id] = true
	}

	for _, id := range ids {
		c, err := store.Open(base, id)
		if err != nil {
			return fmt.Errorf("member %d: %w", id, err)
		}
		desc, _, err := c.LoadDescriptors()
		if err != nil {
			return fmt.Errorf("member %d: %w", id, err)
		}
		if desc.IsDestroyed {
			return fmt.Errorf("member %d: %w", id, errDestroyed)
		}
		if desc.HAGroupID != -1 {
			return fmt.Errorf("member %d: %w", id, ErrAlreadyInGroup)
		}
		if desc.IsReplica || desc.ReplicaOf != -1 {
			return fmt.Errorf("member %d: %w", id, ErrReplicated)
		}
	}
	return nil
}

var errDestroyed = errors.New("ha: member is destroyed")

func createZeroedParityFile(path string) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Truncate(int64(store.BlockSize) * int64(store.NumBlocks)); err != nil {
		return err
	}
	return f.Sync()
}

func stampMembers(base string, ids []uint32, groupID uint32) error {
	for _, id := range ids {
		c, err := store.Open(base, id)
		if err != nil {
			return err
		}
		desc, blocks, err := c.LoadDescriptors()
		if err != nil {
			return err
		}
		desc.HAGroupID = int32(groupID)
		if err := c.SaveDescriptors(desc, blocks); err != nil {
			return err
		}
	}
	return nil
}
