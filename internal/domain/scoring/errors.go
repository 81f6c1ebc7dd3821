package scoring

import "errors"

// Sentinel kinds for scoring errors.
var (
	ErrMissingBaseline = errors.New("baseline vector is required for baseline-adjusted scoring")
	ErrUnknownVariant  = errors.New("unknown scoring variant")
)
