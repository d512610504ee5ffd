package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, ":8080", cfg.Listen)
	assert.Equal(t, "cache", cfg.CacheDir)
	assert.Equal(t, "30d", cfg.DefaultTTL)
	assert.Equal(t, "stats.json", cfg.StatsFile)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "console", cfg.LogFormat)
	assert.Empty(t, cfg.OMDBAPIKey)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pg.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
listen: ":9090"
default_ttl: 12h
omdb_api_key: secret
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Listen)
	assert.Equal(t, "12h", cfg.DefaultTTL)
	assert.Equal(t, "secret", cfg.OMDBAPIKey)
	// Unset keys keep their defaults.
	assert.Equal(t, "cache", cfg.CacheDir)
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	_, err = Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen: [unterminated"), 0o644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "parsing config")
}

func TestTTL(t *testing.T) {
	cfg := Default()
	d, err := cfg.TTL()
	require.NoError(t, err)
	assert.Equal(t, 30*24*time.Hour, d)

	cfg.DefaultTTL = "1d12h"
	d, err = cfg.TTL()
	require.NoError(t, err)
	assert.Equal(t, 36*time.Hour, d)

	cfg.DefaultTTL = "soon"
	_, err = cfg.TTL()
	assert.ErrorContains(t, err, "parsing default_ttl")
}

func newTestCommand() *cobra.Command {
	cmd := &cobra.Command{Use: "test", Run: func(*cobra.Command, []string) {}}
	cmd.Flags().String("config", "", "")
	cmd.Flags().String("listen", "", "")
	cmd.Flags().String("cache-dir", "", "")
	cmd.Flags().String("default-ttl", "", "")
	cmd.Flags().String("omdb-api-key", "", "")
	cmd.Flags().String("stats-file", "", "")
	cmd.Flags().String("log-level", "", "")
	cmd.Flags().String("log-format", "", "")
	return cmd
}

func TestFlagOrEnvPrecedence(t *testing.T) {
	cmd := newTestCommand()

	// Default when neither flag nor env is set.
	assert.Equal(t, "fallback", FlagOrEnv(cmd, "listen", "PG_TEST_LISTEN", "fallback"))

	// Environment beats the default.
	t.Setenv("PG_TEST_LISTEN", ":7070")
	assert.Equal(t, ":7070", FlagOrEnv(cmd, "listen", "PG_TEST_LISTEN", "fallback"))

	// Flag beats the environment.
	require.NoError(t, cmd.Flags().Set("listen", ":6060"))
	assert.Equal(t, ":6060", FlagOrEnv(cmd, "listen", "PG_TEST_LISTEN", "fallback"))
}

func TestFromCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pg.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listen: \":9090\"\nstats_file: file.json\n"), 0o644))

	cmd := newTestCommand()
	require.NoError(t, cmd.Flags().Set("config", path))
	require.NoError(t, cmd.Flags().Set("stats-file", "flag.json"))
	t.Setenv("PG_DEFAULT_TTL", "7d")

	cfg, err := FromCommand(cmd)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Listen, "file beats default")
	assert.Equal(t, "flag.json", cfg.StatsFile, "flag beats file")
	assert.Equal(t, "7d", cfg.DefaultTTL, "env beats file")

	d, err := cfg.TTL()
	require.NoError(t, err)
	assert.Equal(t, 7*24*time.Hour, d)
}

func TestFromCommandRejectsBadTTL(t *testing.T) {
	cmd := newTestCommand()
	require.NoError(t, cmd.Flags().Set("default-ttl", "never"))

	_, err := FromCommand(cmd)
	assert.ErrorContains(t, err, "parsing default_ttl")
}
