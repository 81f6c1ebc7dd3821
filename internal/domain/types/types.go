// Package types contains common read shapes used across the application.
package types

import "github.com/okian/charades/internal/domain/model"

// ParticipantView is the API read shape of a round participant. The
// salt is deliberately omitted: it only matters during verification and
// has no business being served back out.
type ParticipantView struct {
	Username   string   `json:"username"`
	Commitment string   `json:"commitment"`
	Guess      string   `json:"guess,omitempty"`
	Valid      bool     `json:"valid"`
	Score      *float64 `json:"score,omitempty"`
	Payout     *float64 `json:"payout,omitempty"`
}

// RoundView is the API read shape of a round record.
type RoundView struct {
	RoundID      string            `json:"round_id"`
	TargetImage  string            `json:"target_image,omitempty"`
	PrizePool    float64           `json:"prize_pool,omitempty"`
	TotalPayout  *float64          `json:"total_payout,omitempty"`
	Participants []ParticipantView `json:"participants"`
}

// RoundViewFrom projects a domain round into its API read shape.
func RoundViewFrom(r *model.Round) RoundView {
	view := RoundView{
		RoundID:      r.RoundID,
		TargetImage:  r.TargetImage,
		PrizePool:    r.PrizePool,
		TotalPayout:  r.TotalPayout,
		Participants: make([]ParticipantView, len(r.Participants)),
	}
	for i, p := range r.Participants {
		view.Participants[i] = ParticipantView{
			Username:   p.Username,
			Commitment: p.CommitmentHash,
			Guess:      p.Guess,
			Valid:      p.Valid,
			Score:      p.Score,
			Payout:     p.Payout,
		}
	}
	return view
}
