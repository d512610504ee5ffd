// Package config resolves service configuration from, in order of
// precedence, cobra flags, environment variables, a YAML file, and built-in
// defaults.
package config

import (
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	str2duration "github.com/xhit/go-str2duration/v2"
	"gopkg.in/yaml.v3"

	"github.com/Mr-7mdan/PG/logger"
)

// Config is the resolved service configuration.
type Config struct {
	// Listen is the HTTP listen address.
	Listen string `yaml:"listen"`
	// CacheDir is the directory holding the cache database file.
	CacheDir string `yaml:"cache_dir"`
	// DefaultTTL is how long cached reviews stay fresh, in human form
	// ("30d", "12h").
	DefaultTTL string `yaml:"default_ttl"`
	// OMDBAPIKey enables title resolution for id-only lookups.
	OMDBAPIKey string `yaml:"omdb_api_key"`
	// StatsFile is where request counters persist.
	StatsFile string `yaml:"stats_file"`
	// LogLevel is trace, debug, info, warn, or error.
	LogLevel string `yaml:"log_level"`
	// LogFormat is console or json.
	LogFormat string `yaml:"log_format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Listen:     ":8080",
		CacheDir:   "cache",
		DefaultTTL: "30d",
		StatsFile:  "stats.json",
		LogLevel:   "info",
		LogFormat:  "console",
	}
}

// Load reads path over the defaults. A missing file is not an error when
// path is empty; an explicitly named file must exist.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	buf, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "reading config %s", path)
	}
	if err := yaml.Unmarshal(buf, &cfg); err != nil {
		return Config{}, errors.Wrapf(err, "parsing config %s", path)
	}
	return cfg, nil
}

// TTL parses DefaultTTL, accepting day suffixes ("30d") on top of the
// stdlib duration units.
func (c Config) TTL() (time.Duration, error) {
	d, err := str2duration.ParseDuration(c.DefaultTTL)
	if err != nil {
		return 0, errors.Wrapf(err, "parsing default_ttl %q", c.DefaultTTL)
	}
	return d, nil
}

// FlagOrEnv will try and get a flag from the cobra.Command and if not
// found, look it up in the environment and fall back to defaultValue.
func FlagOrEnv(cmd *cobra.Command, flagName string, envName string, defaultValue string) string {
	flagValue, _ := cmd.Flags().GetString(flagName)
	if flagValue != "" {
		return flagValue
	}
	if val, ok := os.LookupEnv(envName); ok {
		return val
	}
	return defaultValue
}

// FromCommand resolves the full configuration for a CLI invocation:
// flag > env > file > default.
func FromCommand(cmd *cobra.Command) (Config, error) {
	cfg, err := Load(FlagOrEnv(cmd, "config", "PG_CONFIG", ""))
	if err != nil {
		return Config{}, err
	}
	cfg.Listen = FlagOrEnv(cmd, "listen", "PG_LISTEN", cfg.Listen)
	cfg.CacheDir = FlagOrEnv(cmd, "cache-dir", "PG_CACHE_DIR", cfg.CacheDir)
	cfg.DefaultTTL = FlagOrEnv(cmd, "default-ttl", "PG_DEFAULT_TTL", cfg.DefaultTTL)
	cfg.OMDBAPIKey = FlagOrEnv(cmd, "omdb-api-key", "OMDB_API_KEY", cfg.OMDBAPIKey)
	cfg.StatsFile = FlagOrEnv(cmd, "stats-file", "PG_STATS_FILE", cfg.StatsFile)
	cfg.LogLevel = FlagOrEnv(cmd, "log-level", "PG_LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = FlagOrEnv(cmd, "log-format", "PG_LOG_FORMAT", cfg.LogFormat)
	if _, err := cfg.TTL(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// NewLogger builds the logger described by the configuration.
func (c Config) NewLogger() logger.Logger {
	level := logger.ParseLevel(c.LogLevel)
	if c.LogFormat == "json" {
		return logger.NewJSONLogger(level)
	}
	return logger.NewConsoleLogger(level)
}
