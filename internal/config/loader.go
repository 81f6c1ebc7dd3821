package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if CHARADES_CONFIG is set
//  3. env (prefix CHARADES_)
func Load(ctx context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("CHARADES_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: CHARADES_ADDR, CHARADES_QUEUE_SIZE, ...
	// Keys map to the struct's koanf tags with underscores preserved.
	envProvider := env.Provider("CHARADES_", ".", func(s string) string {
		s = strings.ToLower(s)
		return strings.TrimPrefix(s, "charades_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if cfg.Addr == "" {
		return nil, fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	switch cfg.StoreDriver {
	case StoreDriverMemory, StoreDriverSQLite:
	default:
		return nil, fmt.Errorf("%w: unknown store driver %q", ErrInvalidConfig, cfg.StoreDriver)
	}
	if cfg.StoreDriver == StoreDriverSQLite && cfg.StorePath == "" {
		return nil, fmt.Errorf("%w: store_path is required for the sqlite driver", ErrInvalidConfig)
	}
	if cfg.PlatformFeePercentage < 0 || cfg.PlatformFeePercentage >= 100 {
		return nil, fmt.Errorf("%w: platform_fee_percentage must be in [0, 100)", ErrInvalidConfig)
	}
	return &cfg, nil
}
