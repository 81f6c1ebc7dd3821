// Package dedupe tracks in-flight payout runs so the same round is never
// enqueued twice concurrently.
//
// The store's per-round lock already prevents corrupting writes; this
// layer exists to avoid queueing redundant work in the first place.
package dedupe

import (
	"context"
	"sync"
)

// Deduper records round IDs with pending payout jobs.
type Deduper interface {
	// SeenAndRecord atomically checks whether a payout run for the round
	// is already pending and records it if not. Returns true if the
	// round was already pending, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, roundID string) bool

	// Unrecord removes a round from the pending set once its run has
	// finished (successfully or not), allowing a new run to be queued.
	Unrecord(ctx context.Context, roundID string)

	// Size returns the number of rounds currently pending.
	Size() int64
}

// inMemoryDeduper implements Deduper with a mutex-guarded set. The
// pending set holds at most one entry per round, so no eviction policy
// is needed.
type inMemoryDeduper struct {
	mu      sync.Mutex
	pending map[string]struct{}
}

// NewInMemoryDeduper creates a new in-memory deduper.
func NewInMemoryDeduper() Deduper {
	return &inMemoryDeduper{
		pending: make(map[string]struct{}),
	}
}

func (d *inMemoryDeduper) SeenAndRecord(ctx context.Context, roundID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.pending[roundID]; ok {
		return true
	}
	d.pending[roundID] = struct{}{}
	return false
}

func (d *inMemoryDeduper) Unrecord(ctx context.Context, roundID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.pending, roundID)
}

func (d *inMemoryDeduper) Size() int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return int64(len(d.pending))
}
