// Package store implements the Store Container and Object Placement
// components of spec.md §4.3–4.4: a directory holding one fixed-size
// data file and one metadata file (one store descriptor followed by
// NumBlocks block descriptors), plus block-level read/write and
// first-free-slot placement.
package store

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"heartystore/internal/layout"
	"heartystore/internal/record"
)

// Container is a handle onto one store's directory. It holds no open
// file descriptors between calls: every public operation is invoked as
// a separate short-lived process (spec.md §5), so there is nothing to
// keep resident beyond the resolved paths.
type Container struct {
	ID    uint32
	Paths layout.Store
}

// Create creates a brand-new store: its directory, a zeroed data file
// of exactly NumBlocks*BlockSize bytes, and a metadata file holding a
// fresh store descriptor and NumBlocks blank block descriptors.
//
// If the store directory already exists, Create fails with
// ErrAlreadyExists. If any step fails partway, every file Create
// created is removed before returning.
func Create(base string, id uint32) (*Container, error) {
	paths := layout.StorePaths(base, id)

	exists, err := fileExists(paths.Root)
	if err != nil {
		return nil, fmt.Errorf("store: stat %s: %w", paths.Root, err)
	}
	if exists {
		return nil, ErrAlreadyExists
	}

	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, fmt.Errorf("store: create base directory %s: %w", base, err)
	}
	// os.Mkdir (not MkdirAll) fails if a concurrent Create made the
	// directory after the check above, so only one caller proceeds.
	if err := os.Mkdir(paths.Root, 0o755); err != nil {
		if os.IsExist(err) {
			return nil, ErrAlreadyExists
		}
		return nil, fmt.Errorf("store: create directory %s: %w", paths.Root, err)
	}

	if err := writeZeroedDataFile(paths.Data); err != nil {
		_ = os.RemoveAll(paths.Root)
		return nil, fmt.Errorf("store: create data file: %w", err)
	}

	desc := record.StoreDescriptor{
		StoreID:     id,
		TotalBlocks: NumBlocks,
		BlockSize:   BlockSize,
		UsedBlocks:  0,
		IsReplica:   false,
		ReplicaOf:   -1,
		HAGroupID:   -1,
		IsDestroyed: false,
	}
	blocks := make([]record.BlockDescriptor, NumBlocks)

	if err := saveDescriptorsAt(paths.Metadata, desc, blocks); err != nil {
		_ = os.RemoveAll(paths.Root)
		return nil, fmt.Errorf("store: create metadata file: %w", err)
	}

	return &Container{ID: id, Paths: paths}, nil
}

// Open returns a handle onto an existing store, failing ErrNotFound if
// its directory does not exist.
func Open(base string, id uint32) (*Container, error) {
	paths := layout.StorePaths(base, id)
	exists, err := fileExists(paths.Root)
	if err != nil {
		return nil, fmt.Errorf("store: stat %s: %w", paths.Root, err)
	}
	if !exists {
		return nil, ErrNotFound
	}
	return &Container{ID: id, Paths: paths}, nil
}

func writeZeroedDataFile(path string) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	if err := f.Truncate(DataFileSize); err != nil {
		return fmt.Errorf("truncate %s to %d bytes: %w", path, DataFileSize, err)
	}
	return f.Sync()
}

// LoadDescriptors reads the store descriptor and all NumBlocks block
// descriptors from the metadata file.
func (c *Container) LoadDescriptors() (record.StoreDescriptor, []record.BlockDescriptor, error) {
	f, err := os.Open(c.Paths.Metadata)
	if err != nil {
		return record.StoreDescriptor{}, nil, fmt.Errorf("store: open metadata: %w", err)
	}
	defer f.Close()

	buf := make([]byte, record.StoreDescriptorSize)
	if err := record.ReadFull(f, buf); err != nil {
		return record.StoreDescriptor{}, nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	desc, err := record.DecodeStoreDescriptor(buf)
	if err != nil {
		return record.StoreDescriptor{}, nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	blocks := make([]record.BlockDescriptor, NumBlocks)
	blockBuf := make([]byte, record.BlockDescriptorSize)
	for i := 0; i < NumBlocks; i++ {
		if err := record.ReadFull(f, blockBuf); err != nil {
			return record.StoreDescriptor{}, nil, fmt.Errorf("%w: block %d: %v", ErrCorrupt, i, err)
		}
		b, err := record.DecodeBlockDescriptor(blockBuf)
		if err != nil {
			return record.StoreDescriptor{}, nil, fmt.Errorf("%w: block %d: %v", ErrCorrupt, i, err)
		}
		blocks[i] = b
	}

	return desc, blocks, nil
}

// SaveDescriptors overwrites the metadata file atomically: write to a
// temp file in the same directory, then rename.
func (c *Container) SaveDescriptors(desc record.StoreDescriptor, blocks []record.BlockDescriptor) error {
	return saveDescriptorsAt(c.Paths.Metadata, desc, blocks)
}

func saveDescriptorsAt(path string, desc record.StoreDescriptor, blocks []record.BlockDescriptor) error {
	if len(blocks) != NumBlocks {
		return fmt.Errorf("store: save metadata: got %d block descriptors, want %d", len(blocks), NumBlocks)
	}

	tmp := path + tmpExtension
	f, err := os.OpenFile(tmp, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", tmp, err)
	}

	buf := new(bytes.Buffer)
	buf.Write(record.EncodeStoreDescriptor(desc))
	for _, b := range blocks {
		buf.Write(record.EncodeBlockDescriptor(b))
	}

	if _, err := f.Write(buf.Bytes()); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("sync %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", tmp, err)
	}

	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename %s to %s: %w", tmp, path, err)
	}
	return nil
}

// ReadBlock seeks to block index k and reads exactly size bytes.
func (c *Container) ReadBlock(k uint32, size uint32) ([]byte, error) {
	f, err := os.Open(c.Paths.Data)
	if err != nil {
		return nil, fmt.Errorf("store: open data file: %w", err)
	}
	defer f.Close()

	buf := make([]byte, size)
	if size == 0 {
		return buf, nil
	}
	if _, err := f.ReadAt(buf, int64(k)*BlockSize); err != nil && err != io.EOF {
		return nil, fmt.Errorf("store: read block %d: %w", k, err)
	}
	return buf, nil
}

// WriteBlock seeks to block index k and writes payload. The remainder of
// the block slot is left untouched: this never read-modify-writes the
// rest of the block, matching spec.md §4.3.
func (c *Container) WriteBlock(k uint32, payload []byte) error {
	f, err := os.OpenFile(c.Paths.Data, os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("store: open data file: %w", err)
	}
	defer f.Close()

	if len(payload) == 0 {
		return nil
	}
	if _, err := f.WriteAt(payload, int64(k)*BlockSize); err != nil {
		return fmt.Errorf("store: write block %d: %w", k, err)
	}
	return f.Sync()
}

// Remove deletes the store's entire directory.
func (c *Container) Remove() error {
	if err := os.RemoveAll(c.Paths.Root); err != nil {
		return fmt.Errorf("store: remove %s: %w", c.Paths.Root, err)
	}
	return nil
}
