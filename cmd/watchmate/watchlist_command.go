package main

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"watchmate/internal/cache"
	"watchmate/internal/letterboxd"
	"watchmate/internal/titles"
)

func newWatchlistCommand(ctx *commandContext) *cobra.Command {
	var yearFlag int
	var minRatingFlag float64
	var refreshFlag bool
	var urlsFlag bool

	cmd := &cobra.Command{
		Use:   "watchlist [username]",
		Short: "Show a cached watchlist, optionally filtered by year or rating",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			username, err := ctx.resolveUsername(args)
			if err != nil {
				return err
			}
			store, err := ctx.ensureStore()
			if err != nil {
				return err
			}

			if refreshFlag {
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				logger, err := ctx.ensureLogger()
				if err != nil {
					return err
				}
				client := letterboxd.New(cfg, logger)
				fetched, err := client.FetchWatchlist(cmd.Context(), username, letterboxd.WatchlistOptions{})
				if err != nil {
					return err
				}
				if err := store.SyncWatchlist(cmd.Context(), username, fetched); err != nil {
					return err
				}
			}

			if yearFlag > 0 || minRatingFlag > 0 {
				films, err := store.FilteredWatchlist(cmd.Context(), username, cache.Filter{
					Year:      yearFlag,
					MinRating: minRatingFlag,
				})
				if err != nil {
					return err
				}
				printFilmTable(cmd, films)
				return nil
			}

			list, err := store.Watchlist(cmd.Context(), username)
			if err != nil {
				return err
			}
			if len(list) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No cached watchlist for %s. Run `watchmate sync %s` first.\n", username, username)
				return nil
			}
			sorted := make([]string, 0, len(list))
			for title := range list {
				sorted = append(sorted, title)
			}
			sort.Strings(sorted)
			if urlsFlag {
				cfg, err := ctx.ensureConfig()
				if err != nil {
					return err
				}
				rows := make([][]string, 0, len(sorted))
				for _, title := range sorted {
					name, year := titles.SplitYear(title)
					rows = append(rows, []string{title, titles.FilmURL(cfg.Letterboxd.BaseURL, name, year)})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Title", "URL"}, rows, nil))
			} else {
				rows := make([][]string, 0, len(sorted))
				for _, title := range sorted {
					rows = append(rows, []string{title})
				}
				fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Title"}, rows, nil))
			}

			if synced, ok, err := store.LastSynced(cmd.Context(), username); err == nil && ok {
				fmt.Fprintf(cmd.OutOrStdout(), "%d titles, last synced %s\n", len(sorted), synced.Local().Format(time.RFC1123))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&yearFlag, "year", 0, "Only show films released in this year (requires enrichment)")
	cmd.Flags().Float64Var(&minRatingFlag, "min-rating", 0, "Only show films rated at least this highly (requires enrichment)")
	cmd.Flags().BoolVar(&refreshFlag, "refresh", false, "Fetch the watchlist before showing it")
	cmd.Flags().BoolVar(&urlsFlag, "urls", false, "Include film page URLs")
	return cmd
}

func printFilmTable(cmd *cobra.Command, films []cache.FilmDetails) {
	if len(films) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No films match the filter. Filters need enriched data; run `watchmate enrich` first.")
		return
	}
	rows := make([][]string, 0, len(films))
	for _, film := range films {
		year := ""
		if film.ReleaseYear > 0 {
			year = strconv.Itoa(film.ReleaseYear)
		}
		rating := ""
		if film.Rating > 0 {
			rating = fmt.Sprintf("%.1f", film.Rating)
		}
		rows = append(rows, []string{film.Title, year, rating})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable(
		[]string{"Title", "Year", "Rating"}, rows,
		[]columnAlignment{alignLeft, alignRight, alignRight}))
}
