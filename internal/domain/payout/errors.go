package payout

import "errors"

// Sentinel kinds for payout errors.
var (
	ErrInvalidPrizePool = errors.New("prize pool must be greater than zero")
	ErrEmptyRanking     = errors.New("at least one ranked participant is required")
)
