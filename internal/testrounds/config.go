package testrounds

import "time"

// Config holds configuration for the round test
type Config struct {
	BaseURL      string        // Base URL of the service
	NumRounds    int           // Number of rounds to generate
	Participants int           // Participants per round
	Workers      int           // Number of concurrent workers
	Timeout      time.Duration // HTTP request timeout
	OutputFile   string        // Output file for rounds
	LogFile      string        // Log file for test output
	Verbose      bool          // Enable verbose logging
}

// ParticipantRecord is the wire shape of a seeded participant
type ParticipantRecord struct {
	Username       string `json:"username"`
	WalletAddress  string `json:"wallet_address"`
	CommitmentHash string `json:"commitment"`
	Guess          string `json:"guess,omitempty"`
	Salt           string `json:"salt,omitempty"`
}

// RoundRecord is the wire shape of a seeded round
type RoundRecord struct {
	RoundID      string              `json:"round_id"`
	TargetImage  string              `json:"target_image"`
	PrizePool    float64             `json:"prize_pool"`
	Participants []ParticipantRecord `json:"participants"`
}

// PayoutAck represents the response from a payout trigger
type PayoutAck struct {
	Status  string `json:"status"`
	JobID   string `json:"job_id"`
	RoundID string `json:"round_id"`
}

// ParticipantSnapshot is a participant as served back by the API
type ParticipantSnapshot struct {
	Username string   `json:"username"`
	Valid    bool     `json:"valid"`
	Score    *float64 `json:"score,omitempty"`
	Payout   *float64 `json:"payout,omitempty"`
}

// RoundSnapshot is a round as served back by the API
type RoundSnapshot struct {
	RoundID      string                `json:"round_id"`
	PrizePool    float64               `json:"prize_pool"`
	TotalPayout  *float64              `json:"total_payout,omitempty"`
	Participants []ParticipantSnapshot `json:"participants"`
}

// Settled reports whether a payout run has completed for the round.
func (r *RoundSnapshot) Settled() bool {
	return r.TotalPayout != nil
}

// Stats holds test statistics
type Stats struct {
	RoundsGenerated  int
	RoundsSeeded     int
	SeedsFailed      int
	PayoutsEnqueued  int
	PayoutsRejected  int
	PayoutsFailed    int
	RoundsSettled    int
	RoundsUnsettled  int
	ParticipantsPaid int
	StartTime        time.Time
	EndTime          time.Time
	Duration         time.Duration
}
