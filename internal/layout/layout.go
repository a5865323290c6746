// Package layout computes the on-disk paths for stores and HA groups.
//
// Every path is deterministic from a base directory and an identifier;
// nothing here touches the filesystem except StoreExists and
// GroupExists, which are plain stats. Keeping path construction in one place means the rest of the
// engine never hand-builds a `fmt.Sprintf("store_%d", ...)` string.
package layout

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	storeDirPrefix = "store_"
	groupDirPrefix = "ha_group_"

	dataFileName     = "data.bin"
	metadataFileName = "metadata.bin"
	parityFileName   = "parity.bin"
	statusFileName   = "status.data"
	lockFileName     = ".lock"
)

// Store bundles the paths that make up one store's container.
type Store struct {
	Root     string
	Data     string
	Metadata string
	Lock     string
}

// Group bundles the paths that make up one HA group's container.
type Group struct {
	Root   string
	Parity string
	Status string
	Lock   string
}

// StorePaths returns the directory and file paths for store id under base.
func StorePaths(base string, id uint32) Store {
	root := filepath.Join(base, fmt.Sprintf("%s%d", storeDirPrefix, id))
	return Store{
		Root:     root,
		Data:     filepath.Join(root, dataFileName),
		Metadata: filepath.Join(root, metadataFileName),
		Lock:     filepath.Join(root, lockFileName),
	}
}

// GroupPaths returns the directory and file paths for HA group groupID under base.
func GroupPaths(base string, groupID uint32) Group {
	root := filepath.Join(base, fmt.Sprintf("%s%d", groupDirPrefix, groupID))
	return Group{
		Root:   root,
		Parity: filepath.Join(root, parityFileName),
		Status: filepath.Join(root, statusFileName),
		Lock:   filepath.Join(root, lockFileName),
	}
}

// StoreExists reports whether a store's directory exists.
func StoreExists(base string, id uint32) bool {
	return dirExists(StorePaths(base, id).Root)
}

// GroupExists reports whether an HA group's directory exists.
func GroupExists(base string, groupID uint32) bool {
	return dirExists(GroupPaths(base, groupID).Root)
}

func dirExists(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}

// StoreDirPrefix matches the "store_" name convention list scans for.
func StoreDirPrefix() string { return storeDirPrefix }

// ParseStoreID extracts the numeric id from a "store_<id>" directory name.
// It returns false if name does not have the expected prefix/shape.
func ParseStoreID(name string) (uint32, bool) {
	if len(name) <= len(storeDirPrefix) || name[:len(storeDirPrefix)] != storeDirPrefix {
		return 0, false
	}
	var id uint32
	if _, err := fmt.Sscanf(name[len(storeDirPrefix):], "%d", &id); err != nil {
		return 0, false
	}
	return id, true
}
