package testrounds

import (
	"fmt"
	"log"
	"math"
	"sort"
)

// verifyResults checks settled rounds for payout consistency.
func verifyResults(config *Config, snapshots []RoundSnapshot, stats *Stats) error {
	log.Println("Verifying results...")

	settled := 0
	problems := 0
	paid := 0

	for _, snap := range snapshots {
		if !snap.Settled() {
			continue
		}
		settled++

		if err := verifySingleRound(&snap); err != nil {
			problems++
			log.Printf("Round consistency warning (%s): %v", snap.RoundID, err)
		}
		for _, p := range snap.Participants {
			if p.Payout != nil && *p.Payout > 0 {
				paid++
			}
		}
	}

	stats.ParticipantsPaid = paid

	if settled == 0 {
		return fmt.Errorf("no settled rounds to verify")
	}
	if problems > 0 {
		return fmt.Errorf("%d of %d settled rounds failed consistency checks", problems, settled)
	}

	displayTopPayouts(snapshots, config.Verbose)

	log.Println("Result verification completed")
	return nil
}

// verifySingleRound checks one settled round's payouts.
//
// Checks: only valid participants are paid, payouts are non-negative,
// higher scores never receive smaller payouts, and the payout sum stays
// within rounding tolerance of either the pool or zero.
func verifySingleRound(snap *RoundSnapshot) error {
	total := 0.0
	type scored struct {
		score  float64
		payout float64
	}
	var entries []scored

	for _, p := range snap.Participants {
		if p.Payout == nil {
			continue
		}
		if !p.Valid && *p.Payout > 0 {
			return fmt.Errorf("invalid participant %s received payout %.6f", p.Username, *p.Payout)
		}
		if *p.Payout < 0 {
			return fmt.Errorf("participant %s has negative payout %.6f", p.Username, *p.Payout)
		}
		total += *p.Payout
		if p.Valid && p.Score != nil {
			entries = append(entries, scored{score: *p.Score, payout: *p.Payout})
		}
	}

	// Higher score must never mean a smaller payout
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].score > entries[j].score
	})
	for i := 1; i < len(entries); i++ {
		if entries[i].payout > entries[i-1].payout+PayoutTolerance {
			return fmt.Errorf("payout ordering violated: score %.4f paid %.6f but score %.4f paid %.6f",
				entries[i-1].score, entries[i-1].payout, entries[i].score, entries[i].payout)
		}
	}

	// Sum must match the pool, or zero when nobody qualified
	if total > PayoutTolerance && math.Abs(total-snap.PrizePool) > PayoutTolerance {
		return fmt.Errorf("payout sum %.6f does not match prize pool %.2f", total, snap.PrizePool)
	}
	if snap.TotalPayout != nil && math.Abs(total-*snap.TotalPayout) > PayoutTolerance {
		return fmt.Errorf("payout sum %.6f does not match recorded total %.6f", total, *snap.TotalPayout)
	}
	return nil
}

// displayTopPayouts shows the largest single payouts across all rounds.
func displayTopPayouts(snapshots []RoundSnapshot, verbose bool) {
	type winner struct {
		roundID  string
		username string
		payout   float64
	}
	var winners []winner

	for _, snap := range snapshots {
		for _, p := range snap.Participants {
			if p.Payout != nil && *p.Payout > 0 {
				winners = append(winners, winner{
					roundID:  snap.RoundID,
					username: p.Username,
					payout:   *p.Payout,
				})
			}
		}
	}

	sort.Slice(winners, func(i, j int) bool {
		return winners[i].payout > winners[j].payout
	})

	topN := 10
	if len(winners) < topN {
		topN = len(winners)
	}

	log.Printf("Top %d payouts:", topN)
	for i := 0; i < topN; i++ {
		w := winners[i]
		log.Printf("   %d. %s - %.6f (round %s)", i+1, w.username, w.payout, w.roundID)
	}

	if verbose && len(winners) > 0 {
		sum := 0.0
		for _, w := range winners {
			sum += w.payout
		}
		log.Printf(`Payout statistics:
   Winners: %d
   Total distributed: %.6f
   Average payout: %.6f
`, len(winners), sum, sum/float64(len(winners)))
	}
}
