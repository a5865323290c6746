package engine

import (
	"errors"
	"fmt"
	"sort"

	"heartystore/internal/ha"
	"heartystore/internal/layout"
	"heartystore/internal/lockfile"
)

// HACreate builds an HA group from ids (spec.md §4.7 Create group). Per
// spec.md §5, member store locks are acquired in ascending id order to
// avoid deadlocking against a concurrent HA operation on an overlapping
// member set.
func HACreate(base string, ids []uint32) (uint32, error) {
	ordered := append([]uint32(nil), ids...)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i] < ordered[j] })

	var locks []*lockfile.Lock
	defer func() {
		for _, l := range locks {
			l.Unlock()
		}
	}()
	for _, id := range ordered {
		l, err := lockfile.AcquireExclusive(layout.StorePaths(base, id).Lock)
		if err != nil {
			return 0, fmt.Errorf("store %d: %w", id, err)
		}
		locks = append(locks, l)
	}

	groupID, err := ha.Create(base, ids)
	switch {
	case errors.Is(err, ha.ErrTooFewMembers), errors.Is(err, ha.ErrDuplicateMember):
		return 0, fmt.Errorf("%w", err)
	case errors.Is(err, ha.ErrAlreadyInGroup):
		return 0, fmt.Errorf("%w: %v", ErrAlreadyInGroup, err)
	case errors.Is(err, ha.ErrReplicated):
		return 0, fmt.Errorf("%w: %v", ErrAlreadyPaired, err)
	case err != nil:
		return 0, err
	}
	return groupID, nil
}
