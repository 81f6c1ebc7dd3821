package scoring

import (
	"context"
	"fmt"
	"strings"
)

// Guess validity constants.
const (
	// baselineText is the neutral placeholder whose similarity against
	// the target image anchors baseline-adjusted scoring.
	baselineText = "[UNUSED]"

	// maxGuessLength approximates the embedding model's 77-token budget
	// at roughly four characters per token.
	maxGuessLength = 300
)

// Validator gates guesses and scores them with a fixed strategy variant.
// The baseline embedding is computed once per validator instance and
// reused for every scoring call in the round.
type Validator struct {
	embedder       Embedder
	variant        Variant
	baseline       []float64
	maxGuessLength int
}

// ValidatorOption applies a configuration option to the Validator.
type ValidatorOption func(*Validator)

// WithMaxGuessLength overrides the guess length ceiling.
func WithMaxGuessLength(n int) ValidatorOption {
	return func(v *Validator) {
		if n > 0 {
			v.maxGuessLength = n
		}
	}
}

// NewValidator creates a validator for the given strategy variant. For
// baseline-adjusted scoring the baseline text is embedded eagerly so the
// cost is paid once, not per participant.
func NewValidator(ctx context.Context, embedder Embedder, variant Variant, opts ...ValidatorOption) (*Validator, error) {
	v := &Validator{
		embedder:       embedder,
		variant:        variant,
		maxGuessLength: maxGuessLength,
	}
	for _, opt := range opts {
		opt(v)
	}
	if variant.RequiresBaseline() {
		baseline, err := embedder.EmbedText(ctx, baselineText)
		if err != nil {
			return nil, fmt.Errorf("embedding baseline text: %w", err)
		}
		v.baseline = baseline
	}
	return v, nil
}

// Variant returns the strategy variant the validator scores with.
func (v *Validator) Variant() Variant {
	return v.variant
}

// ValidateGuess reports whether a guess is eligible for scoring. Empty or
// whitespace-only guesses and guesses beyond the length ceiling are
// invalid and must never reach the embedder.
func (v *Validator) ValidateGuess(guess string) bool {
	if strings.TrimSpace(guess) == "" {
		return false
	}
	if len(guess) > v.maxGuessLength {
		return false
	}
	return true
}

// ScoreGuess computes the similarity score of a guess against the target
// image vector. Invalid guesses score 0.0 without an embedding call.
func (v *Validator) ScoreGuess(ctx context.Context, imageVec []float64, guess string) (float64, error) {
	if !v.ValidateGuess(guess) {
		return 0.0, nil
	}
	textVec, err := v.embedder.EmbedText(ctx, guess)
	if err != nil {
		return 0, fmt.Errorf("embedding guess: %w", err)
	}
	return v.variant.Score(imageVec, textVec, v.baseline)
}
