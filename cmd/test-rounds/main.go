package main

import (
	"context"
	"flag"
	"os"
	"runtime"
	"time"

	"github.com/okian/charades/internal/testrounds"
)

// Default configuration constants.
const (
	defaultNumRounds    = 100
	defaultParticipants = 8
	defaultWorkers      = 2 // multiplier for runtime.NumCPU()
	defaultTimeout      = 30 * time.Second
	defaultTestTimeout  = 10 * time.Minute
)

func main() {
	var (
		baseURL      = flag.String("url", "http://localhost:9080", "Base URL of the service")
		numRounds    = flag.Int("rounds", defaultNumRounds, "Number of rounds to generate and seed")
		participants = flag.Int("participants", defaultParticipants, "Participants per round")
		workers      = flag.Int("workers", runtime.NumCPU()*defaultWorkers, "Number of concurrent workers")
		timeout      = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		outputFile   = flag.String("output", "", "Output file for generated rounds (default: generated_rounds_TIMESTAMP.json)")
		logFile      = flag.String("log", "", "Log file for test output (default: test_log_TIMESTAMP.log)")
		verbose      = flag.Bool("verbose", false, "Enable verbose logging")
		help         = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		testrounds.ShowHelp()
		return
	}

	// Setup logging
	if err := testrounds.SetupLogging(*logFile); err != nil {
		os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		return
	}

	// Create context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), defaultTestTimeout)
	defer cancel()

	// Create test configuration
	config := &testrounds.Config{
		BaseURL:      *baseURL,
		NumRounds:    *numRounds,
		Participants: *participants,
		Workers:      *workers,
		Timeout:      *timeout,
		OutputFile:   *outputFile,
		LogFile:      *logFile,
		Verbose:      *verbose,
	}

	// Run the test
	if err := testrounds.Run(ctx, config); err != nil {
		os.Stderr.WriteString("Test failed: " + err.Error() + "\n")
		return
	}
}
