package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Mr-7mdan/PG/cache"
	"github.com/Mr-7mdan/PG/config"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Operate on the review cache",
}

func openCache(cmd *cobra.Command) (*cache.Cache, error) {
	cfg, err := config.FromCommand(cmd)
	if err != nil {
		return nil, err
	}
	return cache.New(cmd.Context(), cfg.CacheDir, cache.WithLogger(cfg.NewLogger()))
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove every cached entry",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCache(cmd)
		if err != nil {
			return err
		}
		defer c.Close()
		if err := c.Clear(cmd.Context()); err != nil {
			return err
		}
		fmt.Println(" * Cache cleared")
		return nil
	},
}

var cacheCountCmd = &cobra.Command{
	Use:   "count",
	Short: "Print the number of cached entries",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := openCache(cmd)
		if err != nil {
			return err
		}
		defer c.Close()
		n, err := c.Count(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Println(n)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheClearCmd, cacheCountCmd)
	rootCmd.AddCommand(cacheCmd)
}
