package testrounds

import "time"

// HTTP status code constants.
const (
	StatusOK       = 200
	StatusCreated  = 201
	StatusAccepted = 202
)

// Worker configuration constants.
const (
	WorkerChannelMultiplier = 2
)

// Runner configuration constants.
const (
	SettlePollInterval   = 500 * time.Millisecond
	SettleWaitBudget     = 2 * time.Minute
	PercentageMultiplier = 100
)

// PayoutTolerance bounds the acceptable drift between a round's prize
// pool and the sum of its payouts. Stored payouts carry six decimals,
// so the drift per participant is at most 5e-7.
const PayoutTolerance = 1e-4
