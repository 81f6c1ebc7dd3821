package embedder

import "errors"

// Sentinel kinds for embedder errors.
var (
	ErrEmptyInput = errors.New("embedding input must not be empty")
)
