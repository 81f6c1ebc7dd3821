package testrounds

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/okian/charades/pkg/logger"
)

// File permission constants.
const (
	logFilePermission = 0600
)

// SetupLogging configures logging to both console and file.
// If logFile is empty, a timestamped filename is generated.
func SetupLogging(logFile string) error {
	// Initialize the logger first
	if err := logger.Init(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	if logFile == "" {
		timestamp := time.Now().Format("20060102_150405")
		logFile = "test_log_" + timestamp + ".log"
	}

	file, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, logFilePermission)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	multiWriter := io.MultiWriter(os.Stdout, file)
	log.SetOutput(multiWriter)
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	logger.Get().Info(context.Background(), "logging to file", logger.String("logFile", logFile))
	return nil
}

// ShowHelp prints usage information for the test rounds tool.
func ShowHelp() {
	os.Stdout.WriteString(`Charades Round Test Tool
========================

A concurrent tool for exercising the commitment and payout engine end to end.

Usage:
  go run cmd/test-rounds/main.go [options]

Options:
  -url string
        Base URL of the service (default "http://localhost:9080")
  -rounds int
        Number of rounds to generate and seed (default 100)
  -participants int
        Participants per round (default 8)
  -workers int
        Number of concurrent workers (default CPU cores * 2)
  -timeout duration
        HTTP request timeout (default 30s)
  -output string
        Output file for generated rounds (default: generated_rounds_TIMESTAMP.json)
  -log string
        Log file for test output (default: test_log_TIMESTAMP.log)
  -verbose
        Enable verbose logging
  -help
        Show this help message

Examples:
  # Test with default settings
  go run cmd/test-rounds/main.go

  # Test with custom parameters
  go run cmd/test-rounds/main.go -rounds 500 -workers 16 -url http://localhost:8080

  # Test with verbose output
  go run cmd/test-rounds/main.go -verbose -rounds 100

  # Test with custom log file
  go run cmd/test-rounds/main.go -rounds 500 -log my_test.log
`)
}
