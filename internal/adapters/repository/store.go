// Package repository defines the round store interface and errors.
//
// The store is the only shared mutable resource in the engine. Every
// read-modify-write sequence goes through Update, which holds an
// exclusive lock scoped to the round record so a concurrent reveal
// collector appending participants cannot lose its writes.
package repository

import (
	"context"

	"github.com/okian/charades/internal/domain/model"
)

// Store provides read/write access to persisted round records.
type Store interface {
	// Get returns a copy of the round record.
	// Returns ErrRoundNotFound if the round is unknown.
	Get(ctx context.Context, roundID string) (*model.Round, error)

	// Save writes the full round record, replacing any existing state.
	Save(ctx context.Context, roundID string, round *model.Round) error

	// Update loads the latest round record, applies fn under an
	// exclusive per-round lock, and writes the mutated record back.
	// Returns ErrRoundNotFound if the round is unknown; fn errors
	// abort the write and propagate unchanged.
	Update(ctx context.Context, roundID string, fn func(*model.Round) error) error

	// List returns the IDs of all stored rounds.
	List(ctx context.Context) ([]string, error)

	// Count returns the number of rounds tracked by the store.
	Count(ctx context.Context) int
}
