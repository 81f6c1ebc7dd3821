// Package scoring computes similarity scores between a participant's
// guess and a round's target image.
//
// Embeddings come from an external model exposed through the Embedder
// interface; this package only combines the resulting unit vectors.
package scoring

import (
	"context"
	"math"
)

// Embedder maps images and text into unit-normalized vectors. The engine
// never computes embeddings itself; the target image is embedded once per
// round and each valid guess once per payout run.
type Embedder interface {
	// EmbedImage returns the unit-length embedding for the referenced image.
	EmbedImage(ctx context.Context, ref string) ([]float64, error)

	// EmbedText returns the unit-length embedding for the given text.
	EmbedText(ctx context.Context, text string) ([]float64, error)
}

// Variant is a closed set of scoring strategies. A round is bound to one
// variant forever through the version registry, so historical rounds can
// always be re-scored exactly as they were the first time.
type Variant int

const (
	// RawSimilarity is the legacy strategy: the plain dot product of the
	// text and image vectors, no baseline, no clamping.
	RawSimilarity Variant = iota

	// BaselineAdjusted subtracts the similarity a meaningless placeholder
	// guess would get against the same image, rewarding only guesses that
	// are informative beyond chance. The result is clamped at zero.
	BaselineAdjusted
)

// String returns the registry name of the variant.
func (v Variant) String() string {
	switch v {
	case RawSimilarity:
		return "raw_similarity"
	case BaselineAdjusted:
		return "baseline_adjusted"
	default:
		return "unknown"
	}
}

// RequiresBaseline reports whether the variant needs a baseline vector.
func (v Variant) RequiresBaseline() bool {
	return v == BaselineAdjusted
}

// Score combines the image, text, and optional baseline vectors into a
// scalar similarity score. All vectors are assumed unit-normalized.
func (v Variant) Score(image, text, baseline []float64) (float64, error) {
	switch v {
	case RawSimilarity:
		return dot(text, image), nil
	case BaselineAdjusted:
		if len(baseline) == 0 {
			return 0, ErrMissingBaseline
		}
		raw := dot(text, image)
		baselineScore := dot(baseline, image)
		adjusted := (raw - baselineScore) / (1 - baselineScore)
		return math.Max(0.0, adjusted), nil
	default:
		return 0, ErrUnknownVariant
	}
}

// dot returns the inner product of two vectors. Mismatched lengths are
// truncated to the shorter vector.
func dot(a, b []float64) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var sum float64
	for i := 0; i < n; i++ {
		sum += a[i] * b[i]
	}
	return sum
}
