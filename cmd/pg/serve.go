package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Mr-7mdan/PG/api"
	"github.com/Mr-7mdan/PG/cache"
	"github.com/Mr-7mdan/PG/config"
	"github.com/Mr-7mdan/PG/guide"
	"github.com/Mr-7mdan/PG/omdb"
	"github.com/Mr-7mdan/PG/scraper"
	"github.com/Mr-7mdan/PG/stats"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.FromCommand(cmd)
		if err != nil {
			return err
		}
		log := cfg.NewLogger()

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		ttl, err := cfg.TTL()
		if err != nil {
			return err
		}
		c, err := cache.New(ctx, cfg.CacheDir,
			cache.WithLogger(log.WithPrefix("[cache]")),
			cache.WithDefaultTTL(ttl),
		)
		if err != nil {
			return err
		}
		defer c.Close()

		registry := scraper.NewRegistry(
			scraper.NewKidsInMind(scraper.WithKidsInMindLogger(log)),
			scraper.NewCringeMDB(scraper.WithCringeMDBLogger(log)),
		)

		opts := []guide.ServiceOption{guide.WithLogger(log)}
		if cfg.OMDBAPIKey != "" {
			opts = append(opts, guide.WithTitleResolver(
				omdb.New(cfg.OMDBAPIKey, omdb.WithCache(c), omdb.WithLogger(log.WithPrefix("[omdb]"))),
			))
		} else {
			log.Warn("no OMDB API key configured, id-only lookups will fail")
		}
		svc := guide.NewService(c, registry, opts...)

		tracker := stats.NewTracker(cfg.StatsFile, stats.WithLogger(log))

		return api.New(cfg.Listen, svc, tracker, log).Run(ctx)
	},
}

func init() {
	serveCmd.Flags().String("listen", "", "HTTP listen address")
	serveCmd.Flags().String("default-ttl", "", "cache TTL for stored reviews (e.g. 30d)")
	serveCmd.Flags().String("omdb-api-key", "", "OMDB API key for title resolution")
	serveCmd.Flags().String("stats-file", "", "path for persisted request stats")
	rootCmd.AddCommand(serveCmd)
}
