package testrounds

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/okian/charades/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0750
)

// Run executes the complete round test.
func Run(ctx context.Context, config *Config) error {
	stats := &Stats{
		StartTime: time.Now(),
	}

	logger.Get().Info(ctx, "starting charades round test",
		logger.String("baseURL", config.BaseURL),
		logger.Int("rounds", config.NumRounds),
		logger.Int("participants", config.Participants),
		logger.Int("workers", config.Workers),
		logger.String("timeout", config.Timeout.String()),
		logger.String("logFile", config.LogFile),
		logger.Any("verbose", config.Verbose))

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config); err != nil {
		return fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Generate rounds
	rounds, err := generateRounds(ctx, config, stats)
	if err != nil {
		return fmt.Errorf("round generation failed: %w", err)
	}

	// Step 3: Seed rounds concurrently
	if err := seedRounds(ctx, config, rounds, stats); err != nil {
		return fmt.Errorf("round seeding failed: %w", err)
	}

	// Step 4: Trigger payout runs
	if err := triggerPayouts(ctx, config, rounds, stats); err != nil {
		return fmt.Errorf("payout trigger failed: %w", err)
	}

	// Step 5: Wait for rounds to settle
	snapshots, err := pollSettledRounds(ctx, config, rounds, stats)
	if err != nil {
		return fmt.Errorf("settlement wait failed: %w", err)
	}

	// Step 6: Verify results
	if err := verifyResults(config, snapshots, stats); err != nil {
		return fmt.Errorf("result verification failed: %w", err)
	}

	// Step 7: Save rounds to file
	if err := saveRoundsToFile(ctx, config, rounds); err != nil {
		logger.Get().Warn(ctx, "failed to save rounds to file", logger.Error(err))
	}

	// Final statistics
	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)

	displayFinalStats(stats)

	logger.Get().Info(ctx, "test completed successfully")
	return nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	logger.Get().Info(ctx, "checking service health")

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/healthz"

	resp, err := client.Get(ctx, url)
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close response body", logger.Error(err))
		}
	}()

	if resp.StatusCode != StatusOK {
		return fmt.Errorf("service health check failed with status: %d", resp.StatusCode)
	}

	logger.Get().Info(ctx, "service is healthy")
	return nil
}

// saveRoundsToFile saves the generated rounds to a JSON file.
func saveRoundsToFile(ctx context.Context, config *Config, rounds []RoundRecord) error {
	if len(rounds) == 0 {
		return fmt.Errorf("no rounds to save")
	}

	// Determine output filename
	filename := config.OutputFile
	if filename == "" {
		timestamp := time.Now().Format("20060102_150405")
		filename = "generated_rounds_" + timestamp + ".json"
	}

	// Ensure the directory exists
	dir := filepath.Dir(filename)
	if dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}

	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			logger.Get().Error(context.Background(), "failed to close file", logger.Error(err))
		}
	}()

	// Write JSON array
	if _, err := file.WriteString("[\n"); err != nil {
		return fmt.Errorf("failed to write opening bracket: %w", err)
	}

	for i, round := range rounds {
		jsonData, err := marshalJSON(round)
		if err != nil {
			return fmt.Errorf("failed to marshal round %d: %w", i, err)
		}

		if _, err := file.Write(jsonData); err != nil {
			return fmt.Errorf("failed to write round %d: %w", i, err)
		}

		// Add comma except for last round
		if i < len(rounds)-1 {
			if _, err := file.WriteString(","); err != nil {
				return fmt.Errorf("failed to write comma: %w", err)
			}
		}
		_, _ = file.WriteString("\n")
	}

	if _, err := file.WriteString("]\n"); err != nil {
		return fmt.Errorf("failed to write closing bracket: %w", err)
	}

	logger.Get().Info(ctx, "rounds saved to file", logger.String("filename", filename))
	return nil
}

// displayFinalStats prints the final test statistics.
func displayFinalStats(stats *Stats) {
	var settleRate, roundsPerSecond float64

	if stats.RoundsSeeded > 0 {
		settleRate = float64(stats.RoundsSettled) / float64(stats.RoundsSeeded) * PercentageMultiplier
	}

	if stats.Duration > 0 {
		roundsPerSecond = float64(stats.RoundsSeeded) / stats.Duration.Seconds()
	}

	logger.Get().Info(context.Background(), "final statistics",
		logger.Int("roundsGenerated", stats.RoundsGenerated),
		logger.Int("roundsSeeded", stats.RoundsSeeded),
		logger.Int("seedsFailed", stats.SeedsFailed),
		logger.Int("payoutsEnqueued", stats.PayoutsEnqueued),
		logger.Int("payoutsRejected", stats.PayoutsRejected),
		logger.Int("payoutsFailed", stats.PayoutsFailed),
		logger.Int("roundsSettled", stats.RoundsSettled),
		logger.Int("roundsUnsettled", stats.RoundsUnsettled),
		logger.Int("participantsPaid", stats.ParticipantsPaid),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("settleRate", settleRate),
		logger.Float64("roundsPerSecond", roundsPerSecond))
}
