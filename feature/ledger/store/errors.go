package store

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable means the remote tier could not be reached.
	ErrUnavailable = errors.New("remote unavailable")
	// ErrRejected means the remote tier answered but refused the write.
	ErrRejected = errors.New("write rejected")
	// ErrAmbiguous means more than one game matched an unlinked transaction.
	ErrAmbiguous = errors.New("ambiguous linkage")
	// ErrAlreadyProcessed means the mutation was already applied.
	ErrAlreadyProcessed = errors.New("already processed")
	// ErrInconsistent means the ledger holds contradictory records.
	ErrInconsistent = errors.New("inconsistent ledger")
	// ErrNotFound means the referenced record does not exist.
	ErrNotFound = errors.New("not found")
)

func unavailable(err error) error {
	return fmt.Errorf("%w: %w", ErrUnavailable, err)
}

func rejected(err error) error {
	return fmt.Errorf("%w: %w", ErrRejected, err)
}
