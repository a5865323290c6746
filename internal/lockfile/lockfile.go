// Package lockfile provides advisory per-directory locking so that
// mutating operations (put, replicate, destroy, ha_create) serialize
// against each other while readers (get, list) can proceed concurrently
// under a shared lock, per spec.md §5.
//
// No dependency in the retrieved corpus wraps flock(2), and the standard
// library has no portable entry point for it, so this package calls
// golang.org/x/sys/unix directly (see DESIGN.md).
package lockfile

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// Lock is a held advisory lock on a directory's lock file.
type Lock struct {
	file *os.File
}

// acquire opens (creating if needed) the lock file at path and takes
// either a shared (exclusive=false) or exclusive flock on it.
func acquire(path string, exclusive bool) (*Lock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("lockfile: open %s: %w", path, err)
	}

	how := unix.LOCK_SH
	if exclusive {
		how = unix.LOCK_EX
	}
	if err := unix.Flock(int(f.Fd()), how); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("lockfile: flock %s: %w", path, err)
	}
	return &Lock{file: f}, nil
}

// AcquireExclusive takes an exclusive lock, for mutating operations.
func AcquireExclusive(path string) (*Lock, error) {
	return acquire(path, true)
}

// AcquireShared takes a shared lock, for read-only operations.
func AcquireShared(path string) (*Lock, error) {
	return acquire(path, false)
}

// Unlock releases the lock and closes the underlying file descriptor.
// It is safe to call multiple times and safe to call from a deferred
// statement even if acquisition failed upstream (l may be nil).
func (l *Lock) Unlock() error {
	if l == nil || l.file == nil {
		return nil
	}
	_ = unix.Flock(int(l.file.Fd()), unix.LOCK_UN)
	err := l.file.Close()
	l.file = nil
	return err
}
