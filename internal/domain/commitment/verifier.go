package commitment

import (
	"context"
	"fmt"

	"github.com/okian/charades/internal/domain/model"
	"github.com/okian/charades/pkg/logger"
	"github.com/okian/charades/pkg/metrics"
)

// Store is the slice of the round store the verifier needs: a locked
// read-modify-write on a single round record.
type Store interface {
	// Update loads the round, applies fn under an exclusive per-round
	// lock, and writes the mutated record back.
	Update(ctx context.Context, roundID string, fn func(*model.Round) error) error
}

// Verifier checks revealed guesses against their published commitment
// hashes and persists the resulting Valid flags.
type Verifier struct {
	store  Store
	logger logger.Logger
}

// Option applies a configuration option to the Verifier.
type Option func(*Verifier)

// WithLogger sets a custom logger for the verifier.
func WithLogger(l logger.Logger) Option {
	return func(v *Verifier) {
		if l != nil {
			v.logger = l
		}
	}
}

// NewVerifier creates a verifier backed by the given round store.
func NewVerifier(store Store, opts ...Option) *Verifier {
	v := &Verifier{
		store:  store,
		logger: logger.Get().Named("commitment"),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// VerifyRound re-derives the commitment for every revealed participant in
// the round and records the outcome on the participant's Valid flag.
//
// Participants that have not revealed both guess and salt are left
// untouched; their prior Valid value is preserved. The updated flags are
// persisted unconditionally, even when the round does not fully check out.
//
// Returns true only when every participant has revealed and every
// revealed pair matches its stored hash.
func (v *Verifier) VerifyRound(ctx context.Context, roundID string) (bool, error) {
	allValid := true
	err := v.store.Update(ctx, roundID, func(round *model.Round) error {
		if len(round.Participants) == 0 {
			v.logger.Warn(ctx, "no participants found for round",
				logger.String("roundID", roundID))
			allValid = false
			return nil
		}
		for i := range round.Participants {
			p := &round.Participants[i]
			if !p.Revealed() {
				// Unrevealed: keep the stored flag, but the round
				// is not fully accounted for.
				v.logger.Info(ctx, "skipping participant: missing guess or salt",
					logger.String("username", p.Username))
				allValid = false
				continue
			}
			calculated, err := Commit(p.Guess, p.Salt)
			if err != nil {
				return fmt.Errorf("recomputing commitment for %s: %w", p.Username, err)
			}
			if calculated == p.CommitmentHash {
				p.Valid = true
				metrics.RecordCommitmentVerified()
				v.logger.Info(ctx, "commitment is valid",
					logger.String("username", p.Username))
			} else {
				p.Valid = false
				allValid = false
				metrics.RecordCommitmentMismatch()
				v.logger.Warn(ctx, "commitment is INVALID",
					logger.String("username", p.Username),
					logger.String("stored", p.CommitmentHash),
					logger.String("calculated", calculated))
			}
		}
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("verify round %s: %w", roundID, err)
	}
	return allValid, nil
}
