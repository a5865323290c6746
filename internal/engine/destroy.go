package engine

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"heartystore/internal/ha"
	"heartystore/internal/layout"
	"heartystore/internal/lockfile"
	"heartystore/internal/store"
)

// Destroy implements spec.md §4.9. It follows the state machine: HA
// members are marked destroyed and keep their files until a second
// member is destroyed, at which point the group tears down; replica
// pair members cascade-remove both stores; standalone stores are
// simply removed.
//
// Which path applies depends on id's own descriptor, so a replica pair
// destroy cannot take its locks until it knows the peer id. peekRole
// answers that under a shared lock; destroyReplicaPair then acquires
// both members' exclusive locks from scratch, in ascending store-id
// order (spec.md §5), rather than reusing a lock already held on one
// side — the only way to avoid two concurrent destroys on the same
// pair deadlocking against each other.
func Destroy(base string, id uint32) error {
	isReplica, peerID, err := peekRole(base, id)
	if err != nil {
		return err
	}
	if isReplica {
		return destroyReplicaPair(base, id, peerID)
	}
	return destroyNonReplica(base, id)
}

// peekRole reports whether id is currently a replica pair member, and
// its peer id if so. It holds only a shared lock, just long enough to
// read the descriptor.
func peekRole(base string, id uint32) (isReplica bool, peerID uint32, err error) {
	paths := layout.StorePaths(base, id)
	lock, err := lockfile.AcquireShared(paths.Lock)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, 0, fmt.Errorf("store %d: %w", id, ErrNotFound)
		}
		return false, 0, fmt.Errorf("store %d: %w", id, err)
	}
	defer lock.Unlock()

	c, err := store.Open(base, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, 0, fmt.Errorf("store %d: %w", id, ErrNotFound)
		}
		return false, 0, fmt.Errorf("store %d: %w", id, err)
	}

	desc, _, err := c.LoadDescriptors()
	if err != nil {
		return false, 0, fmt.Errorf("store %d: %w", id, err)
	}
	return desc.IsReplica || desc.ReplicaOf != -1, uint32(desc.ReplicaOf), nil
}

// destroyNonReplica handles the HA-member and standalone-store cases,
// both of which only ever need a lock on id itself (plus, for an HA
// member, the group's own lock).
func destroyNonReplica(base string, id uint32) error {
	paths := layout.StorePaths(base, id)
	lock, err := lockfile.AcquireExclusive(paths.Lock)
	if err != nil {
		return fmt.Errorf("store %d: %w", id, err)
	}
	defer lock.Unlock()

	c, err := store.Open(base, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("store %d: %w", id, ErrNotFound)
		}
		return fmt.Errorf("store %d: %w", id, err)
	}

	desc, _, err := c.LoadDescriptors()
	if err != nil {
		return fmt.Errorf("store %d: %w", id, err)
	}

	if desc.IsReplica || desc.ReplicaOf != -1 {
		// id was paired between peekRole's read and this lock; hand off
		// to the path that locks both sides in ascending order.
		lock.Unlock()
		return destroyReplicaPair(base, id, uint32(desc.ReplicaOf))
	}

	if desc.HAGroupID != -1 {
		groupLock, err := lockfile.AcquireExclusive(layout.GroupPaths(base, uint32(desc.HAGroupID)).Lock)
		if err != nil {
			return fmt.Errorf("store %d: ha group %d: %w", id, desc.HAGroupID, err)
		}
		defer groupLock.Unlock()

		if _, err := ha.MarkDestroyed(base, uint32(desc.HAGroupID), id); err != nil {
			return fmt.Errorf("store %d: %w", id, err)
		}
		return nil
	}

	if err := c.Remove(); err != nil {
		return fmt.Errorf("store %d: %w", id, err)
	}
	return nil
}

// destroyReplicaPair removes both stores of a replica pair. Both locks
// are acquired from scratch here, in ascending store-id order (spec.md
// §5), so that a concurrent Destroy of the peer always contends for
// them in the same order and one side backs off instead of both
// deadlocking.
func destroyReplicaPair(base string, a, b uint32) error {
	ids := []uint32{a, b}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var locks []*lockfile.Lock
	defer func() {
		for _, l := range locks {
			l.Unlock()
		}
	}()
	for _, id := range ids {
		l, err := lockfile.AcquireExclusive(layout.StorePaths(base, id).Lock)
		if err != nil {
			return fmt.Errorf("store %d: %w", id, err)
		}
		locks = append(locks, l)
	}

	var firstErr error
	for _, id := range []uint32{a, b} {
		c, err := store.Open(base, id)
		if err != nil {
			if firstErr == nil && !errors.Is(err, store.ErrNotFound) {
				firstErr = err
			}
			continue
		}
		if err := c.Remove(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
