// Package embedder provides a deterministic stand-in for the external
// embedding model.
//
// The real model (CLIP or equivalent) lives outside this repository; the
// engine only depends on the scoring.Embedder interface. This adapter
// derives unit-normalized vectors from a hash of the input and simulates
// the latency profile of a remote model service, which is enough for
// development, tests, and load runs.
package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"math"
	"math/rand"
	"time"
)

// Default embedder configuration constants.
const (
	defaultDimensions = 512
	defaultMinLatency = 20 * time.Millisecond
	defaultMaxLatency = 80 * time.Millisecond
)

// InMemoryEmbedder implements scoring.Embedder deterministically: the
// same input always maps to the same unit vector.
type InMemoryEmbedder struct {
	dimensions int
	minLatency time.Duration
	maxLatency time.Duration
}

// Option applies a configuration option to the InMemoryEmbedder.
type Option func(*InMemoryEmbedder)

// WithDimensions sets the embedding vector length.
func WithDimensions(n int) Option {
	return func(e *InMemoryEmbedder) {
		if n > 0 {
			e.dimensions = n
		}
	}
}

// WithLatencyRange sets the simulated latency range.
func WithLatencyRange(minLatency, maxLatency time.Duration) Option {
	return func(e *InMemoryEmbedder) {
		if minLatency >= 0 && maxLatency > minLatency {
			e.minLatency = minLatency
			e.maxLatency = maxLatency
		}
	}
}

// WithoutLatency disables latency simulation. Useful in tests.
func WithoutLatency() Option {
	return func(e *InMemoryEmbedder) {
		e.minLatency = 0
		e.maxLatency = 0
	}
}

// NewInMemoryEmbedder creates a new deterministic embedder.
func NewInMemoryEmbedder(opts ...Option) *InMemoryEmbedder {
	e := &InMemoryEmbedder{
		dimensions: defaultDimensions,
		minLatency: defaultMinLatency,
		maxLatency: defaultMaxLatency,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// EmbedImage returns the unit vector derived from the image reference.
func (e *InMemoryEmbedder) EmbedImage(ctx context.Context, ref string) ([]float64, error) {
	if ref == "" {
		return nil, ErrEmptyInput
	}
	return e.embed(ctx, "image:"+ref)
}

// EmbedText returns the unit vector derived from the text.
func (e *InMemoryEmbedder) EmbedText(ctx context.Context, text string) ([]float64, error) {
	if text == "" {
		return nil, ErrEmptyInput
	}
	return e.embed(ctx, "text:"+text)
}

func (e *InMemoryEmbedder) embed(ctx context.Context, input string) ([]float64, error) {
	if err := e.simulateLatency(ctx); err != nil {
		return nil, err
	}

	// Seed a generator from the input so vectors are stable across runs.
	sum := sha256.Sum256([]byte(input))
	seed := int64(binary.BigEndian.Uint64(sum[:8])) //nolint:gosec // deterministic seed, not security-sensitive
	rng := rand.New(rand.NewSource(seed))           //nolint:gosec // deterministic vectors, not security-sensitive

	vec := make([]float64, e.dimensions)
	var norm float64
	for i := range vec {
		vec[i] = rng.NormFloat64()
		norm += vec[i] * vec[i]
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return nil, fmt.Errorf("degenerate embedding for input")
	}
	for i := range vec {
		vec[i] /= norm
	}
	return vec, nil
}

func (e *InMemoryEmbedder) simulateLatency(ctx context.Context) error {
	if e.maxLatency <= 0 {
		return nil
	}
	latency := e.minLatency
	if spread := e.maxLatency - e.minLatency; spread > 0 {
		latency += time.Duration(rand.Int63n(int64(spread))) //nolint:gosec // jitter only
	}
	select {
	case <-ctx.Done():
		return fmt.Errorf("context cancelled: %w", ctx.Err())
	case <-time.After(latency):
		return nil
	}
}
