package store

// BlockSize and NumBlocks are the fixed grid dimensions of every store
// (spec.md §3). Changing either changes the on-disk layout of every
// store ever created under a given base path.
const (
	BlockSize = 1024 * 1024 // 1 MiB
	NumBlocks = 1024
)

// DataFileSize is the exact, fixed size of every store's data file.
const DataFileSize = int64(BlockSize) * int64(NumBlocks)

const tmpExtension = ".tmp"
