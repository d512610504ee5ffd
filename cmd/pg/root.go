package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "pg",
	Short: "Parental-guidance content ratings aggregator",
	Long: `pg aggregates parental-guidance content ratings from third-party
review sites, normalizes them, and serves them over HTTP with a persistent
cache.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "path to YAML config file")
	rootCmd.PersistentFlags().String("cache-dir", "", "directory for the cache database")
	rootCmd.PersistentFlags().String("log-level", "", "trace, debug, info, warn, or error")
	rootCmd.PersistentFlags().String("log-format", "", "console or json")
}
