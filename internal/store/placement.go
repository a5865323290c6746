package store

import (
	"errors"
	"fmt"
	"math/rand"
	"time"

	"heartystore/internal/record"
)

// ErrNoSpace is returned when every block in a store is in use.
var ErrNoSpace = errors.New("store: no free blocks")

// FindFreeBlock does a linear scan for the first block descriptor with
// IsUsed == false, per spec.md §4.4.
func FindFreeBlock(blocks []record.BlockDescriptor) (uint32, error) {
	for i, b := range blocks {
		if !b.IsUsed {
			return uint32(i), nil
		}
	}
	return 0, ErrNoSpace
}

// GenerateObjectID builds an id of the form "<millis-since-epoch>_<random
// 4-digit>". Collisions within a single 1024-block store are
// astronomically unlikely by construction (spec.md §4.4); regeneration
// on collision is left to the caller.
func GenerateObjectID(now time.Time) string {
	millis := now.UnixMilli()
	suffix := rand.Intn(10000)
	return fmt.Sprintf("%d_%04d", millis, suffix)
}
