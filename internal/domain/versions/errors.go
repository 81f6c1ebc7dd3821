package versions

import "errors"

// Sentinel kinds for registry errors.
var (
	ErrLoadRegistry = errors.New("load scoring version registry failed")
)
