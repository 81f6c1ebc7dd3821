// Package round orchestrates a single payout run: verification, scoring,
// ranking, payout, and persistence for one prediction round.
//
// The run is a linear pipeline with no branching back. Nothing is written
// until the final persist step, so an aborted run leaves the stored round
// exactly as it was.
package round

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/okian/charades/internal/domain/model"
	"github.com/okian/charades/internal/domain/payout"
	"github.com/okian/charades/internal/domain/ranking"
	"github.com/okian/charades/internal/domain/scoring"
	"github.com/okian/charades/pkg/logger"
	"github.com/okian/charades/pkg/metrics"
)

// storedDecimals is the rounding applied to scores and payouts at the
// persistence boundary. Intermediate arithmetic stays at full precision.
const storedDecimals = 6

// Store is the slice of the round store the processor consumes.
type Store interface {
	Get(ctx context.Context, roundID string) (*model.Round, error)
	Update(ctx context.Context, roundID string, fn func(*model.Round) error) error
	List(ctx context.Context) ([]string, error)
}

// VersionResolver maps a round to the scoring variant it is bound to.
type VersionResolver interface {
	Resolve(roundID string) scoring.Variant
}

// Verifier checks revealed commitments for a round and persists the
// resulting Valid flags.
type Verifier interface {
	VerifyRound(ctx context.Context, roundID string) (bool, error)
}

// Options control a single payout run.
type Options struct {
	// PrizePool overrides the round's stored pool when positive.
	PrizePool float64

	// SkipVerification bypasses the commitment verification step.
	SkipVerification bool

	// ForceContinue proceeds with scoring even when verification fails.
	// This is a conscious caller override, never a default.
	ForceContinue bool
}

// Result summarizes a completed (or short-circuited) payout run.
type Result struct {
	RoundID             string
	PrizePool           float64
	Ranked              []model.ScoreResult
	Payouts             []model.PayoutResult
	NoValidParticipants bool
}

// Processor runs the payout pipeline for rounds.
type Processor struct {
	store      Store
	embedder   scoring.Embedder
	registry   VersionResolver
	verifier   Verifier
	calculator *payout.Calculator
	logger     logger.Logger
}

// ProcessorOption applies a configuration option to the Processor.
type ProcessorOption func(*Processor)

// WithLogger sets a custom logger for the processor.
func WithLogger(l logger.Logger) ProcessorOption {
	return func(p *Processor) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithCalculator replaces the default payout calculator.
func WithCalculator(c *payout.Calculator) ProcessorOption {
	return func(p *Processor) {
		if c != nil {
			p.calculator = c
		}
	}
}

// NewProcessor creates a processor wired to its collaborators.
func NewProcessor(store Store, embedder scoring.Embedder, registry VersionResolver, verifier Verifier, opts ...ProcessorOption) *Processor {
	p := &Processor{
		store:      store,
		embedder:   embedder,
		registry:   registry,
		verifier:   verifier,
		calculator: payout.NewCalculator(),
		logger:     logger.Get().Named("processor"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process runs the full payout pipeline for one round:
// load, resolve prize pool, verify commitments, resolve strategy, embed
// target, score, rank, pay out, persist.
func (p *Processor) Process(ctx context.Context, roundID string, opts Options) (*Result, error) {
	res, err := p.process(ctx, roundID, opts)
	if err != nil {
		metrics.RecordRoundFailed()
		return nil, err
	}
	metrics.RecordRoundProcessed()
	return res, nil
}

func (p *Processor) process(ctx context.Context, roundID string, opts Options) (*Result, error) {
	// Load.
	rnd, err := p.store.Get(ctx, roundID)
	if err != nil {
		return nil, fmt.Errorf("loading round %s: %w", roundID, err)
	}

	// Resolve prize pool: explicit argument wins over the stored value.
	prizePool := opts.PrizePool
	if prizePool <= 0 {
		prizePool = rnd.PrizePool
	}
	if prizePool <= 0 {
		return nil, fmt.Errorf("round %s: %w", roundID, ErrMissingPrizePool)
	}

	// Verify commitments. The verifier persists Valid flags through the
	// store, so the working copy is refreshed afterwards.
	if !opts.SkipVerification {
		ok, err := p.verifier.VerifyRound(ctx, roundID)
		if err != nil {
			return nil, fmt.Errorf("verifying round %s: %w", roundID, err)
		}
		if !ok {
			if !opts.ForceContinue {
				return nil, fmt.Errorf("round %s: %w", roundID, ErrVerificationFailed)
			}
			p.logger.Warn(ctx, "continuing payout despite failed commitment verification",
				logger.String("roundID", roundID))
		}
		if rnd, err = p.store.Get(ctx, roundID); err != nil {
			return nil, fmt.Errorf("reloading round %s: %w", roundID, err)
		}
	}

	// Resolve the strategy the round is bound to and prime the validator
	// (for baseline-adjusted scoring this embeds the baseline text once).
	variant := p.registry.Resolve(roundID)
	p.logger.Info(ctx, "resolved scoring strategy",
		logger.String("roundID", roundID),
		logger.String("variant", variant.String()))
	validator, err := scoring.NewValidator(ctx, p.embedder, variant)
	if err != nil {
		return nil, fmt.Errorf("preparing validator for round %s: %w", roundID, err)
	}

	// Embed the target image exactly once per round.
	if rnd.TargetImage == "" {
		return nil, fmt.Errorf("round %s: %w", roundID, ErrTargetImageMissing)
	}
	embedStart := time.Now()
	imageVec, err := p.embedder.EmbedImage(ctx, rnd.TargetImage)
	metrics.RecordEmbeddingLatency(float64(time.Since(embedStart).Milliseconds()))
	if err != nil {
		return nil, fmt.Errorf("round %s: %w: %w", roundID, ErrTargetImageMissing, err)
	}

	// Score valid participants. Invalid ones are absent from ranking and
	// payout, not zeroed.
	scores := make([]model.ScoreResult, 0, len(rnd.Participants))
	for _, participant := range rnd.Participants {
		if !participant.Valid {
			continue
		}
		scoreStart := time.Now()
		score, err := validator.ScoreGuess(ctx, imageVec, participant.Guess)
		metrics.RecordScoringLatency(float64(time.Since(scoreStart).Milliseconds()))
		if err != nil {
			return nil, fmt.Errorf("scoring guess for %s: %w", participant.Username, err)
		}
		scores = append(scores, model.ScoreResult{
			Username: participant.Username,
			Score:    roundTo(score, storedDecimals),
		})
	}
	if len(scores) == 0 {
		p.logger.Info(ctx, "no valid participants found for round",
			logger.String("roundID", roundID))
		return &Result{RoundID: roundID, PrizePool: prizePool, NoValidParticipants: true}, nil
	}

	// Rank, group ties, distribute the pool.
	ranked := ranking.Rank(scores)
	groups := ranking.GroupTies(ranked)
	payouts, err := p.calculator.Calculate(groups, prizePool)
	if err != nil {
		return nil, fmt.Errorf("calculating payouts for round %s: %w", roundID, err)
	}
	for i := range payouts {
		payouts[i].Payout = roundTo(payouts[i].Payout, storedDecimals)
	}

	// Persist scores, payouts, and the total in one atomic update.
	scoreByUser := make(map[string]float64, len(ranked))
	for _, s := range ranked {
		scoreByUser[s.Username] = s.Score
	}
	payoutByUser := make(map[string]float64, len(payouts))
	var total float64
	for _, po := range payouts {
		payoutByUser[po.Username] = po.Payout
		total += po.Payout
	}
	err = p.store.Update(ctx, roundID, func(stored *model.Round) error {
		for i := range stored.Participants {
			participant := &stored.Participants[i]
			if score, ok := scoreByUser[participant.Username]; ok {
				s := score
				participant.Score = &s
			}
			if po, ok := payoutByUser[participant.Username]; ok {
				v := po
				participant.Payout = &v
			}
		}
		tp := prizePool
		stored.TotalPayout = &tp
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("persisting round %s: %w", roundID, err)
	}

	metrics.RecordPayoutDistributed(total)
	p.logger.Info(ctx, "round payouts processed",
		logger.String("roundID", roundID),
		logger.Int("participants", len(ranked)),
		logger.Float64("prizePool", prizePool),
		logger.Float64("totalPayout", total))

	return &Result{
		RoundID:   roundID,
		PrizePool: prizePool,
		Ranked:    ranked,
		Payouts:   payouts,
	}, nil
}

// ProcessAll runs the payout pipeline for every round that has
// participants and no payouts yet. Rounds already paid out are skipped.
func (p *Processor) ProcessAll(ctx context.Context, opts Options) ([]*Result, error) {
	ids, err := p.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing rounds: %w", err)
	}
	var results []*Result
	for _, id := range ids {
		rnd, err := p.store.Get(ctx, id)
		if err != nil {
			return results, fmt.Errorf("loading round %s: %w", id, err)
		}
		if len(rnd.Participants) == 0 {
			continue
		}
		if rnd.Processed() {
			p.logger.Info(ctx, "skipping round: payouts already calculated",
				logger.String("roundID", id))
			continue
		}
		res, err := p.Process(ctx, id, opts)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// roundTo rounds v to the given number of decimal places.
func roundTo(v float64, decimals int) float64 {
	factor := math.Pow(10, float64(decimals))
	return math.Round(v*factor) / factor
}
