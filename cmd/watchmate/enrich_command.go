package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"watchmate/internal/tmdb"
)

func newEnrichCommand(ctx *commandContext) *cobra.Command {
	var workersFlag int

	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Look up cached titles on TMDB and store year, rating, and overview",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			store, err := ctx.ensureStore()
			if err != nil {
				return err
			}

			workers := cfg.TMDB.Workers
			if workersFlag > 0 {
				workers = workersFlag
			}

			client := tmdb.New(cfg, logger)
			enricher := tmdb.NewEnricher(client, store, workers, logger)
			summary, err := enricher.EnrichAll(cmd.Context())
			if err != nil {
				if errors.Is(err, tmdb.ErrNoAPIKey) {
					return errors.New("no TMDB API key configured; set tmdb.api_key or the TMDB_API_KEY environment variable")
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "enriched %d, not found %d, failed %d\n",
				summary.Enriched, summary.Missing, summary.Failed)
			return nil
		},
	}

	cmd.Flags().IntVar(&workersFlag, "workers", 0, "Concurrent TMDB lookups (default: tmdb.workers from config)")
	return cmd
}
