package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/okian/charades/internal/domain/model"
	"github.com/okian/charades/pkg/metrics"
)

// MemStore is an in-memory Store implementation with per-round locking.
// It is the default for tests and single-process deployments.
type MemStore struct {
	mu     sync.RWMutex
	rounds map[string]*model.Round

	lockMu sync.Mutex
	locks  map[string]*sync.Mutex
}

// NewMemStore creates an empty in-memory round store.
func NewMemStore() *MemStore {
	return &MemStore{
		rounds: make(map[string]*model.Round),
		locks:  make(map[string]*sync.Mutex),
	}
}

// roundLock returns the mutex guarding a single round record, creating
// it on first use.
func (s *MemStore) roundLock(roundID string) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	l, ok := s.locks[roundID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[roundID] = l
	}
	return l
}

// Get returns a deep copy of the round record.
func (s *MemStore) Get(ctx context.Context, roundID string) (*model.Round, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreReadLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()
	round, ok := s.rounds[roundID]
	if !ok {
		return nil, ErrRoundNotFound
	}
	return round.Clone(), nil
}

// Save writes the full round record.
func (s *MemStore) Save(ctx context.Context, roundID string, round *model.Round) error {
	if round == nil {
		return ErrNilRound
	}
	start := time.Now()
	defer func() {
		metrics.RecordStoreWriteLatency(float64(time.Since(start).Milliseconds()))
	}()

	s.mu.Lock()
	s.rounds[roundID] = round.Clone()
	count := len(s.rounds)
	s.mu.Unlock()

	metrics.UpdateRoundsTracked(count)
	return nil
}

// Update applies fn to the latest round record under the round's lock.
func (s *MemStore) Update(ctx context.Context, roundID string, fn func(*model.Round) error) error {
	lock := s.roundLock(roundID)
	lock.Lock()
	defer lock.Unlock()

	round, err := s.Get(ctx, roundID)
	if err != nil {
		return err
	}
	if err := fn(round); err != nil {
		return err
	}
	return s.Save(ctx, roundID, round)
}

// List returns the IDs of all stored rounds.
func (s *MemStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.rounds))
	for id := range s.rounds {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Count returns the number of rounds tracked by the store.
func (s *MemStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rounds)
}
