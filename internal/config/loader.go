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
//  1. defaults (New)
//  2. file (YAML) if PODIUM_CONFIG is set
//  3. env (prefix PODIUM_)
func Load(ctx context.Context) (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("PODIUM_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: PODIUM_ADDR, PODIUM_QUEUE_SIZE, ...
	// Keys map to the flat koanf tags on Config; underscores are preserved.
	envProvider := env.Provider("PODIUM_", ".", func(s string) string {
		return strings.TrimPrefix(strings.ToLower(s), "podium_")
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.ArchiveDriver != "memory" && c.ArchiveDriver != "postgres" {
		return fmt.Errorf("%w: unknown archive_driver %q", ErrInvalidConfig, c.ArchiveDriver)
	}
	if c.ArchiveDriver == "postgres" && c.PostgresDSN == "" {
		return fmt.Errorf("%w: postgres_dsn is required for the postgres archive", ErrInvalidConfig)
	}
	if len(c.Boards) == 0 {
		return fmt.Errorf("%w: at least one board must be configured", ErrInvalidConfig)
	}
	seen := make(map[string]struct{}, len(c.Boards))
	for _, b := range c.Boards {
		if b.Slug == "" {
			return fmt.Errorf("%w: board slug must not be empty", ErrInvalidConfig)
		}
		if _, dup := seen[b.Slug]; dup {
			return fmt.Errorf("%w: duplicate board slug %q", ErrInvalidConfig, b.Slug)
		}
		seen[b.Slug] = struct{}{}
	}
	return nil
}
