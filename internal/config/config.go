// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults, Load(ctx) to layer
//   file and environment overrides on top.
// - External errors must be wrapped via this package's error helpers.
package config

import "runtime"

// Store driver names accepted by the service.
const (
	StoreDriverMemory = "memory"
	StoreDriverSQLite = "sqlite"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// StoreDriver selects the round store backend: memory or sqlite.
	StoreDriver string `koanf:"store_driver"`

	// StorePath is the SQLite database path when store_driver=sqlite.
	StorePath string `koanf:"store_path"`

	// VersionsFile points at the scoring version registry JSON file.
	// Empty means no registry: every round uses the current default.
	VersionsFile string `koanf:"versions_file"`

	// QueueSize bounds the in-memory payout job queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of payout workers.
	WorkerCount int `koanf:"worker_count"`

	// EmbeddingDimensions sets the simulated embedding vector length.
	EmbeddingDimensions int `koanf:"embedding_dimensions"`

	// EmbeddingLatencyMinMS and EmbeddingLatencyMaxMS simulate the
	// external embedding model's latency bounds.
	EmbeddingLatencyMinMS int `koanf:"embedding_latency_min_ms"`
	EmbeddingLatencyMaxMS int `koanf:"embedding_latency_max_ms"`

	// PlatformFeePercentage is skimmed off every prize pool (0-100).
	PlatformFeePercentage float64 `koanf:"platform_fee_percentage"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:              "info",
		Addr:                  ":9080",
		StoreDriver:           StoreDriverMemory,
		StorePath:             "charades.db",
		VersionsFile:          "",
		QueueSize:             1024,
		WorkerCount:           runtime.NumCPU() * 2,
		EmbeddingDimensions:   512,
		EmbeddingLatencyMinMS: 20,
		EmbeddingLatencyMaxMS: 80,
		PlatformFeePercentage: 0,
	}
}
