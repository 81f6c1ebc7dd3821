package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/charades/internal/domain/model"
	"github.com/okian/charades/pkg/metrics"

	_ "modernc.org/sqlite" // pure-Go sqlite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS rounds (
	round_id   TEXT PRIMARY KEY,
	record     TEXT NOT NULL,
	updated_at TEXT NOT NULL
);`

// SQLiteStore is a Store implementation persisting rounds as JSON
// documents in a local SQLite database. Round records are small and read
// whole, so a document column keeps the schema stable as the record
// evolves.
type SQLiteStore struct {
	db *sql.DB

	lockMu sync.Mutex
	locks  map[string]*sync.Mutex
}

// NewSQLiteStore opens (and if needed creates) the database at path and
// ensures the schema exists.
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &SQLiteStore{
		db:    db,
		locks: make(map[string]*sync.Mutex),
	}, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) roundLock(roundID string) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	l, ok := s.locks[roundID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[roundID] = l
	}
	return l
}

// Get returns the round record decoded from its stored JSON document.
func (s *SQLiteStore) Get(ctx context.Context, roundID string) (*model.Round, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreReadLatency(float64(time.Since(start).Milliseconds()))
	}()

	var raw string
	err := s.db.QueryRowContext(ctx,
		"SELECT record FROM rounds WHERE round_id = ?", roundID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRoundNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying round %s: %w", roundID, err)
	}
	var round model.Round
	if err := json.Unmarshal([]byte(raw), &round); err != nil {
		return nil, fmt.Errorf("decoding round %s: %w", roundID, err)
	}
	return &round, nil
}

// Save upserts the full round record.
func (s *SQLiteStore) Save(ctx context.Context, roundID string, round *model.Round) error {
	if round == nil {
		return ErrNilRound
	}
	start := time.Now()
	defer func() {
		metrics.RecordStoreWriteLatency(float64(time.Since(start).Milliseconds()))
	}()

	raw, err := json.Marshal(round)
	if err != nil {
		return fmt.Errorf("encoding round %s: %w", roundID, err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO rounds (round_id, record, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(round_id) DO UPDATE SET record = excluded.record, updated_at = excluded.updated_at`,
		roundID, string(raw), time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("saving round %s: %w", roundID, err)
	}
	metrics.UpdateRoundsTracked(s.Count(ctx))
	return nil
}

// Update applies fn to the latest record inside a transaction, with the
// process-level round lock held so concurrent updaters in this process
// serialize instead of racing the read.
func (s *SQLiteStore) Update(ctx context.Context, roundID string, fn func(*model.Round) error) error {
	lock := s.roundLock(roundID)
	lock.Lock()
	defer lock.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin: %w", ErrStoreConflict, err)
	}
	defer func() { _ = tx.Rollback() }()

	var raw string
	err = tx.QueryRowContext(ctx,
		"SELECT record FROM rounds WHERE round_id = ?", roundID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrRoundNotFound
	}
	if err != nil {
		return fmt.Errorf("querying round %s: %w", roundID, err)
	}
	var round model.Round
	if err := json.Unmarshal([]byte(raw), &round); err != nil {
		return fmt.Errorf("decoding round %s: %w", roundID, err)
	}
	if err := fn(&round); err != nil {
		return err
	}
	encoded, err := json.Marshal(&round)
	if err != nil {
		return fmt.Errorf("encoding round %s: %w", roundID, err)
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE rounds SET record = ?, updated_at = ? WHERE round_id = ?",
		string(encoded), time.Now().UTC().Format(time.RFC3339), roundID); err != nil {
		return fmt.Errorf("updating round %s: %w", roundID, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %w", ErrStoreConflict, err)
	}
	return nil
}

// List returns the IDs of all stored rounds in lexical order.
func (s *SQLiteStore) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT round_id FROM rounds ORDER BY round_id")
	if err != nil {
		return nil, fmt.Errorf("listing rounds: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning round id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing rounds: %w", err)
	}
	return ids, nil
}

// Count returns the number of rounds tracked by the store.
func (s *SQLiteStore) Count(ctx context.Context) int {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM rounds").Scan(&count); err != nil {
		return 0
	}
	return count
}
