package repository

import "errors"

// Sentinel kinds for round store errors.
var (
	ErrRoundNotFound = errors.New("round not found")
	ErrStoreConflict = errors.New("round store conflict")
	ErrNilRound      = errors.New("round record must not be nil")
)
