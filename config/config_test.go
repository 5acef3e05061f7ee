package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sqlens.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, DefaultDatabaseURL, cfg.DefaultURL)
	assert.Equal(t, 50, cfg.DefaultLimit)
	assert.Equal(t, 5, cfg.SampleLimit)
	assert.Empty(t, cfg.Databases)
}

func TestLoadFile(t *testing.T) {
	path := writeConfigFile(t, `
log_level: debug
sample_limit: 3
databases:
  main:
    url: postgres://ro:ro@localhost:5432/f1
    description: F1 racing data
  sales:
    url: sqlserver://ro:ro@localhost:1433?database=sales
`)

	cfg, err := Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, 3, cfg.SampleLimit)
	assert.Equal(t, 50, cfg.DefaultLimit, "untouched keys keep defaults")
	require.Len(t, cfg.Databases, 2)
	assert.Equal(t, "postgres://ro:ro@localhost:5432/f1", cfg.Databases["main"].URL)
	assert.Equal(t, "F1 racing data", cfg.Databases["main"].Description)
	assert.Empty(t, cfg.Databases["sales"].Description)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "nope.yaml")
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, "log_level: debug\n")
	t.Setenv("SQLENS_LOG_LEVEL", "error")

	cfg, err := Load(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "error", cfg.LogLevel)
}

func TestLoadFlagsOverrideEnv(t *testing.T) {
	t.Setenv("SQLENS_LOG_LEVEL", "error")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("log-level", "info", "")
	flags.Int("default-limit", 50, "")
	require.NoError(t, flags.Parse([]string{"--log-level=warn"}))

	cfg, err := Load("", flags)
	require.NoError(t, err)

	assert.Equal(t, "warn", cfg.LogLevel, "changed flag wins over env")
	assert.Equal(t, 50, cfg.DefaultLimit, "unchanged flag does not override")
}

func TestValidate(t *testing.T) {
	t.Parallel()

	t.Run("bad limits", func(t *testing.T) {
		cfg := Config{DefaultLimit: 0, SampleLimit: 5}
		assert.ErrorContains(t, cfg.Validate(), "default_limit")

		cfg = Config{DefaultLimit: 50, SampleLimit: -1}
		assert.ErrorContains(t, cfg.Validate(), "sample_limit")
	})

	t.Run("database without url", func(t *testing.T) {
		cfg := Config{
			DefaultLimit: 50,
			SampleLimit:  5,
			Databases:    map[string]DatabaseEntry{"main": {URL: "  "}},
		}
		assert.ErrorContains(t, cfg.Validate(), `database "main" has no url`)
	})
}

func TestSlogLevel(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"debug":   "DEBUG",
		"info":    "INFO",
		"warn":    "WARN",
		"warning": "WARN",
		"error":   "ERROR",
		"bogus":   "INFO",
		"":        "INFO",
	}
	for in, want := range tests {
		cfg := Config{LogLevel: in}
		assert.Equal(t, want, cfg.SlogLevel().String(), "level %q", in)
	}
}
