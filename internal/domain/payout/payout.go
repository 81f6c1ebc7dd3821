// Package payout distributes a prize pool across ranked tie groups.
//
// The distribution is position-weighted and proportional: with n
// participants the positions carry n, n-1, ..., 1 points out of a
// denominator of n(n+1)/2, and members of a tie group split their
// positions' combined points evenly. Weights sum to 1.0, so the full
// pool is always paid out.
package payout

import (
	"github.com/okian/charades/internal/domain/model"
)

// Config tunes the payout calculation.
type Config struct {
	// PlatformFeePercentage is skimmed off the pool before distribution.
	// Zero by default.
	PlatformFeePercentage float64
}

// Calculator computes position-weighted proportional payouts.
type Calculator struct {
	cfg Config
}

// Option applies a configuration option to the Calculator.
type Option func(*Calculator)

// WithPlatformFee sets the platform fee percentage (0-100).
func WithPlatformFee(pct float64) Option {
	return func(c *Calculator) {
		if pct >= 0 && pct < 100 {
			c.cfg.PlatformFeePercentage = pct
		}
	}
}

// NewCalculator creates a calculator with the given options.
func NewCalculator(opts ...Option) *Calculator {
	c := &Calculator{}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Calculate walks the tie groups in rank order and assigns every member
// its share of the prize pool. Groups must come from ranking.GroupTies,
// i.e. each group holds participants with identical scores in overall
// rank order.
//
// Returns ErrEmptyRanking when there are no participants and
// ErrInvalidPrizePool when the pool is not positive.
func (c *Calculator) Calculate(groups [][]model.ScoreResult, prizePool float64) ([]model.PayoutResult, error) {
	if prizePool <= 0 {
		return nil, ErrInvalidPrizePool
	}
	n := 0
	for _, g := range groups {
		n += len(g)
	}
	if n == 0 {
		return nil, ErrEmptyRanking
	}

	pool := prizePool * (1 - c.cfg.PlatformFeePercentage/100)
	denominator := float64(n*(n+1)) / 2

	payouts := make([]model.PayoutResult, 0, n)
	position := 0
	for _, group := range groups {
		g := len(group)
		// Combined points of the positions the group spans:
		// sum over i in [0,g) of n-(position+i).
		groupPoints := float64(g*(n-position)) - float64(g*(g-1))/2
		weight := groupPoints / float64(g) / denominator
		for _, member := range group {
			payouts = append(payouts, model.PayoutResult{
				Username: member.Username,
				Payout:   weight * pool,
			})
		}
		position += g
	}
	return payouts, nil
}
