// Package model contains domain models passed between layers.
package model

// Participant represents a single entrant in a prediction round.
//
// A participant is created at commit time with only the commitment hash.
// Guess and Salt are filled in at reveal time, Valid flips after the hash
// has been re-derived and compared, and Score/Payout are written once per
// payout run.
type Participant struct {
	Username       string   `json:"username"`
	WalletAddress  string   `json:"wallet_address,omitempty"`
	CommitmentHash string   `json:"commitment"`
	Guess          string   `json:"guess,omitempty"`
	Salt           string   `json:"salt,omitempty"`
	Valid          bool     `json:"valid"`
	Score          *float64 `json:"score,omitempty"`
	Payout         *float64 `json:"payout,omitempty"`
}

// Revealed reports whether the participant has disclosed both the guess
// and the salt. An unrevealed participant is not an error, it is simply
// excluded from verification outcomes.
func (p *Participant) Revealed() bool {
	return p.Guess != "" && p.Salt != ""
}

// Round is the persisted record for one prediction round.
type Round struct {
	RoundID      string        `json:"round_id"`
	TargetImage  string        `json:"target_image,omitempty"`
	PrizePool    float64       `json:"prize_pool,omitempty"`
	Participants []Participant `json:"participants"`
	TotalPayout  *float64      `json:"total_payout,omitempty"`
}

// Processed reports whether payouts have already been calculated for the
// round. Batch processing skips processed rounds.
func (r *Round) Processed() bool {
	return r.TotalPayout != nil
}

// Clone returns a deep copy of the round. Stores hand out clones so a
// caller mutating its working copy cannot bypass the locked update path.
func (r *Round) Clone() *Round {
	if r == nil {
		return nil
	}
	out := *r
	out.TotalPayout = copyFloat(r.TotalPayout)
	out.Participants = make([]Participant, len(r.Participants))
	for i, p := range r.Participants {
		p.Score = copyFloat(p.Score)
		p.Payout = copyFloat(p.Payout)
		out.Participants[i] = p
	}
	return &out
}

func copyFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

// ScoreResult pairs a participant index with a computed score for one run.
// Results are ephemeral and never persisted on their own.
type ScoreResult struct {
	Username string
	Score    float64
}

// PayoutResult pairs a participant with the payout computed for one run.
type PayoutResult struct {
	Username string
	Payout   float64
}
