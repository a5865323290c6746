package engine

import (
	"fmt"
	"os"
	"strings"

	"heartystore/internal/layout"
	"heartystore/internal/lockfile"
	"heartystore/internal/store"
)

// Entry is one store's summary line, as shown by `list` (spec.md §4.10).
type Entry struct {
	StoreID    uint32
	UsedBlocks uint32
	Status     string
}

// String renders an Entry the way the `list` command prints it.
func (e Entry) String() string {
	return fmt.Sprintf("%d — %s (used: %d/%d blocks)", e.StoreID, e.Status, e.UsedBlocks, store.NumBlocks)
}

// List scans the base directory for store_* entries and summarizes
// each one. It never mutates on-disk state (spec.md P7): every store is
// opened under a shared lock purely to read its descriptor.
func List(base string) ([]Entry, error) {
	dirEntries, err := os.ReadDir(base)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list: read base directory: %w", err)
	}

	var entries []Entry
	for _, de := range dirEntries {
		if !de.IsDir() {
			continue
		}
		id, ok := layout.ParseStoreID(de.Name())
		if !ok {
			continue
		}

		entry, err := describeStore(base, id)
		if err != nil {
			continue
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

func describeStore(base string, id uint32) (Entry, error) {
	paths := layout.StorePaths(base, id)
	lock, err := lockfile.AcquireShared(paths.Lock)
	if err != nil {
		return Entry{}, fmt.Errorf("store %d: %w", id, err)
	}
	defer lock.Unlock()

	c, err := store.Open(base, id)
	if err != nil {
		return Entry{}, err
	}
	desc, _, err := c.LoadDescriptors()
	if err != nil {
		return Entry{}, err
	}

	var parts []string
	if desc.IsDestroyed {
		parts = append(parts, "destroyed")
	}
	if desc.ReplicaOf != -1 {
		parts = append(parts, fmt.Sprintf("replica of %d", desc.ReplicaOf))
	}
	if desc.HAGroupID != -1 {
		parts = append(parts, fmt.Sprintf("ha-group=%d", desc.HAGroupID))
	}
	status := "active"
	if len(parts) > 0 {
		status = strings.Join(parts, ", ")
	}

	return Entry{StoreID: id, UsedBlocks: desc.UsedBlocks, Status: status}, nil
}
