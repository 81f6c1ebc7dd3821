package api

import "errors"

var (
	// ErrNegativePrizePool indicates a payout request with a negative pool.
	ErrNegativePrizePool = errors.New("prize pool must not be negative")

	// ErrBackpressure indicates the payout queue rejected the job.
	ErrBackpressure = errors.New("payout run already pending or queue full")
)
