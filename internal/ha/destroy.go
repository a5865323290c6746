package ha

import (
	"fmt"
	"os"

	"heartystore/internal/layout"
	"heartystore/internal/record"
	"heartystore/internal/store"
)

// MarkDestroyed implements the HA branch of spec.md §4.9 destroy: it
// marks memberID's own descriptor as destroyed (retaining its files)
// and increments the group's destroyed_count. If destroyed_count
// reaches two, it tears the group down. TornDown reports which path was
// taken.
//
// Calling MarkDestroyed again for a member it has already marked is a
// no-op: without this check, a retried or duplicate destroy call would
// increment destroyed_count a second time for the same member and tear
// the group down after only one member had genuinely failed.
func MarkDestroyed(base string, groupID uint32, memberID uint32) (tornDown bool, err error) {
	c, err := store.Open(base, memberID)
	if err != nil {
		return false, err
	}
	desc, blocks, err := c.LoadDescriptors()
	if err != nil {
		return false, err
	}
	if desc.IsDestroyed {
		return false, nil
	}
	desc.IsDestroyed = true
	if err := c.SaveDescriptors(desc, blocks); err != nil {
		return false, fmt.Errorf("ha: mark member destroyed: %w", err)
	}

	status, err := LoadStatus(base, groupID)
	if err != nil {
		return false, fmt.Errorf("ha: load status: %w", err)
	}
	status.DestroyedCount++

	if status.DestroyedCount <= 1 {
		if err := SaveStatus(base, status); err != nil {
			return false, fmt.Errorf("ha: persist updated status: %w", err)
		}
		return false, nil
	}

	if err := teardown(base, status); err != nil {
		return false, fmt.Errorf("ha: teardown: %w", err)
	}
	return true, nil
}

// teardown implements the staged sequence from spec.md §9's open
// question resolution: (1) read every member's descriptor, noting
// which members are destroyed, (2) rewrite every member's descriptor to
// clear ha_group_id, (3) unlink destroyed members' directories, (4)
// unlink the group directory last, so the group directory's presence
// remains the authoritative "group still exists" signal until every
// other step has completed.
func teardown(base string, status record.HAStatus) error {
	var destroyed []*store.Container
	for _, id := range status.MemberIDs {
		c, err := store.Open(base, id)
		if err != nil {
			// A member whose directory is already gone is one of the
			// destroyed members from an earlier, partially-completed
			// teardown; nothing left to rewrite.
			continue
		}
		desc, blocks, err := c.LoadDescriptors()
		if err != nil {
			continue
		}
		wasDestroyed := desc.IsDestroyed
		desc.HAGroupID = -1
		if err := c.SaveDescriptors(desc, blocks); err != nil {
			return fmt.Errorf("clear ha_group_id for member %d: %w", id, err)
		}
		if wasDestroyed {
			destroyed = append(destroyed, c)
		}
	}

	for _, c := range destroyed {
		if err := c.Remove(); err != nil {
			return fmt.Errorf("remove destroyed member %d: %w", c.ID, err)
		}
	}

	paths := layout.GroupPaths(base, status.GroupID)
	if err := os.RemoveAll(paths.Root); err != nil {
		return fmt.Errorf("remove group directory: %w", err)
	}
	return nil
}
