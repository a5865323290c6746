// Package ha implements the HA Parity Protocol of spec.md §4.7 and the
// parity side of the Degraded Read Engine of spec.md §4.8: group
// creation, initial and incremental parity maintenance, and
// reconstruction of a destroyed member's block from its surviving
// peers.
package ha

import (
	"fmt"
	"os"

	"heartystore/internal/layout"
	"heartystore/internal/record"
	"heartystore/internal/store"
)

const tmpExtension = ".tmp"

// LoadStatus reads the HA group status record for groupID.
func LoadStatus(base string, groupID uint32) (record.HAStatus, error) {
	paths := layout.GroupPaths(base, groupID)
	buf, err := os.ReadFile(paths.Status)
	if err != nil {
		return record.HAStatus{}, fmt.Errorf("ha: read status file: %w", err)
	}
	status, err := record.DecodeHAStatus(buf)
	if err != nil {
		return record.HAStatus{}, fmt.Errorf("%w: %v", store.ErrCorrupt, err)
	}
	return status, nil
}

// SaveStatus overwrites the HA group status record atomically.
func SaveStatus(base string, status record.HAStatus) error {
	paths := layout.GroupPaths(base, status.GroupID)
	tmp := paths.Status + tmpExtension

	if err := os.WriteFile(tmp, record.EncodeHAStatus(status), 0o644); err != nil {
		return fmt.Errorf("ha: write status file: %w", err)
	}
	if err := os.Rename(tmp, paths.Status); err != nil {
		return fmt.Errorf("ha: rename status file: %w", err)
	}
	return nil
}
