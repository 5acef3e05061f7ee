// Package config loads sqlens settings with layered precedence:
// defaults < config file < environment variables < changed flags.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

const (
	// EnvPrefix is the prefix for settings environment variables,
	// e.g. SQLENS_LOG_LEVEL=debug.
	EnvPrefix = "SQLENS_"

	// DefaultConfigFile is probed in the working directory when no --config
	// flag is given.
	DefaultConfigFile = "sqlens.yaml"

	// DefaultDatabaseURL backs the implicit "default" registry entry when no
	// databases are declared anywhere.
	DefaultDatabaseURL = "sqlite://sqlens.db"
)

// DatabaseEntry declares one logical database in the config file.
type DatabaseEntry struct {
	URL         string `koanf:"url"`
	Description string `koanf:"description"`
}

// Config holds all sqlens settings.
type Config struct {
	LogLevel     string                   `koanf:"log_level"`
	DefaultURL   string                   `koanf:"default_url"`
	DefaultLimit int                      `koanf:"default_limit"`
	SampleLimit  int                      `koanf:"sample_limit"`
	Databases    map[string]DatabaseEntry `koanf:"databases"`
}

// Load reads configuration from defaults, an optional YAML file, SQLENS_*
// environment variables, and explicitly set flags, in that order. A file
// named via path must exist; the default sqlens.yaml is optional.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(map[string]interface{}{
		"log_level":     "info",
		"default_url":   DefaultDatabaseURL,
		"default_limit": 50,
		"sample_limit":  5,
	}, "."), nil); err != nil {
		return Config{}, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path == "" {
		if _, err := os.Stat(DefaultConfigFile); err == nil {
			path = DefaultConfigFile
		}
	} else if _, err := os.Stat(path); err != nil {
		return Config{}, fmt.Errorf("config file %s: %w", path, err)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("error reading config file %s: %w", path, err)
		}
	}

	// SQLENS_LOG_LEVEL -> log_level. Registry declarations (SQLENS_DB_*) map
	// to keys no setting uses and are ignored here; the registry scans the
	// environment itself.
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	}), nil); err != nil {
		return Config{}, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, interface{}) {
			if !f.Changed {
				return "", nil
			}
			return strings.ReplaceAll(f.Name, "-", "_"), posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return Config{}, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects unusable limits and database entries without a target.
func (c Config) Validate() error {
	if c.DefaultLimit < 1 {
		return fmt.Errorf("default_limit must be positive, got %d", c.DefaultLimit)
	}
	if c.SampleLimit < 1 {
		return fmt.Errorf("sample_limit must be positive, got %d", c.SampleLimit)
	}
	for name, db := range c.Databases {
		if strings.TrimSpace(db.URL) == "" {
			return fmt.Errorf("database %q has no url", name)
		}
	}
	return nil
}

// SlogLevel maps the configured log level onto slog's scale, defaulting to
// info for unknown values.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
