package testrounds

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strconv"

	"github.com/google/uuid"
	"github.com/okian/charades/internal/domain/commitment"
	"github.com/okian/charades/pkg/logger"
)

// Constants for random number generation.
const (
	randomFloatDivisor = 1000000
	participantDivisor = 8
)

// Constants for prize pool generation.
const (
	prizePoolMin   = 50.0
	prizePoolRange = 950.0
)

// Constants for participant behaviour cases.
const (
	caseHonestReveal    = 0
	caseTamperedReveal  = 6
	caseUnrevealedEntry = 7
)

// Phrase fragments combined into plausible image guesses.
var (
	guessSubjects = []string{
		"A golden retriever", "An old fishing boat", "A red bicycle",
		"A street musician", "A flock of birds", "A mountain cabin",
		"A vintage car", "A lighthouse",
	}
	guessSettings = []string{
		"on a sunlit beach", "in a foggy harbor", "under cherry blossoms",
		"beside a waterfall", "in an empty plaza", "on a snowy ridge",
		"along a cobbled street", "at the edge of a pier",
	}
	guessDetails = []string{
		"at sunset", "during a rainstorm", "in early morning light",
		"under a full moon", "with mountains behind", "in autumn colors",
	}
)

// getRandomFloat returns a random float64 between 0.0 and 1.0 using crypto/rand.
func getRandomFloat() float64 {
	n, _ := rand.Int(rand.Reader, big.NewInt(randomFloatDivisor))
	return float64(n.Int64()) / float64(randomFloatDivisor)
}

// getRandomIndex returns a random index below n using crypto/rand.
func getRandomIndex(n int) int {
	v, _ := rand.Int(rand.Reader, big.NewInt(int64(n)))
	return int(v.Int64())
}

// generateRounds creates the specified number of rounds with committed
// participants. Most participants reveal honestly; a fraction tamper
// with their reveal or never reveal at all so verification has
// something to catch.
func generateRounds(ctx context.Context, config *Config, stats *Stats) ([]RoundRecord, error) {
	logger.Get().Info(ctx, "generating rounds",
		logger.Int("numRounds", config.NumRounds),
		logger.Int("participants", config.Participants))

	rounds := make([]RoundRecord, config.NumRounds)

	type roundResult struct {
		index int
		round RoundRecord
		err   error
	}

	resultChan := make(chan roundResult, config.NumRounds)

	// Use worker pool for round generation
	workerCount := minInt(config.Workers, config.NumRounds)
	roundsPerWorker := config.NumRounds / workerCount

	for worker := 0; worker < workerCount; worker++ {
		start := worker * roundsPerWorker
		end := start + roundsPerWorker
		if worker == workerCount-1 {
			end = config.NumRounds // Last worker gets remaining rounds
		}

		go func(start, end int) {
			for i := start; i < end; i++ {
				select {
				case <-ctx.Done():
					resultChan <- roundResult{index: i, err: ctx.Err()}
					return
				default:
					round, err := generateSingleRound(i, config.Participants)
					resultChan <- roundResult{index: i, round: round, err: err}
				}
			}
		}(start, end)
	}

	// Collect results
	for i := 0; i < config.NumRounds; i++ {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("context cancelled during round generation: %w", ctx.Err())
		case result := <-resultChan:
			if result.err != nil {
				return nil, fmt.Errorf("failed to generate round %d: %w", result.index, result.err)
			}
			rounds[result.index] = result.round
		}
	}

	stats.RoundsGenerated = len(rounds)
	logger.Get().Info(ctx, "generated rounds successfully", logger.Int("count", len(rounds)))

	return rounds, nil
}

// generateSingleRound creates one round with committed participants.
func generateSingleRound(index, numParticipants int) (RoundRecord, error) {
	round := RoundRecord{
		RoundID:      "round_" + strconv.Itoa(index) + "_" + uuid.New().String(),
		TargetImage:  randomGuess(),
		PrizePool:    prizePoolMin + getRandomFloat()*prizePoolRange,
		Participants: make([]ParticipantRecord, numParticipants),
	}

	for i := 0; i < numParticipants; i++ {
		p, err := generateSingleParticipant(i)
		if err != nil {
			return RoundRecord{}, err
		}
		round.Participants[i] = p
	}
	return round, nil
}

// generateSingleParticipant creates one participant with a commitment
// and a behaviour drawn from the case distribution.
func generateSingleParticipant(index int) (ParticipantRecord, error) {
	guess := randomGuess()
	salt := commitment.GenerateSalt()
	digest, err := commitment.Commit(guess, salt)
	if err != nil {
		return ParticipantRecord{}, fmt.Errorf("failed to compute commitment: %w", err)
	}

	p := ParticipantRecord{
		Username:       "player_" + strconv.Itoa(index) + "_" + uuid.New().String()[:8],
		WalletAddress:  "0x" + uuid.New().String()[:8] + uuid.New().String()[:8],
		CommitmentHash: digest,
		Guess:          guess,
		Salt:           salt,
	}

	behaviour, _ := rand.Int(rand.Reader, big.NewInt(participantDivisor))
	switch behaviour.Int64() {
	case caseTamperedReveal:
		// Reveal a different guess than the committed one
		p.Guess = randomGuess()
	case caseUnrevealedEntry:
		// Commit but never reveal
		p.Guess = ""
		p.Salt = ""
	}
	return p, nil
}

// randomGuess builds a plausible image description.
func randomGuess() string {
	return guessSubjects[getRandomIndex(len(guessSubjects))] + " " +
		guessSettings[getRandomIndex(len(guessSettings))] + " " +
		guessDetails[getRandomIndex(len(guessDetails))]
}

// minInt returns the minimum of two integers.
func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
