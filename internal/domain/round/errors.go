package round

import "errors"

// Sentinel kinds for payout run errors.
var (
	ErrMissingPrizePool   = errors.New("no prize pool provided and none stored on the round")
	ErrTargetImageMissing = errors.New("target image unavailable")
	ErrVerificationFailed = errors.New("commitment verification failed; pass force to continue")
)
