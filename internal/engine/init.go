package engine

import (
	"errors"
	"fmt"

	"heartystore/internal/store"
)

// Init creates a fresh, empty store at the given id (spec.md §4.3 Create).
// There is no existing directory to lock before creation; store.Create's
// own AlreadyExists check is what prevents two concurrent inits of the
// same id from each believing they succeeded.
func Init(base string, id uint32) error {
	_, err := store.Create(base, id)
	switch {
	case errors.Is(err, store.ErrAlreadyExists):
		return fmt.Errorf("store %d: %w", id, ErrAlreadyExists)
	case err != nil:
		return fmt.Errorf("store %d: %w", id, err)
	}
	return nil
}
