package commitment

import "errors"

// Sentinel kinds for commitment errors.
var (
	ErrEmptySalt = errors.New("salt is required for generating commitments")
)
