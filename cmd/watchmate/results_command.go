package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"watchmate/internal/cache"
)

func newResultsCommand(ctx *commandContext) *cobra.Command {
	var friendFlag string
	var commonOnlyFlag bool
	var titleFlag string
	var genreFlag string

	cmd := &cobra.Command{
		Use:   "results [username]",
		Short: "Browse the cached watchlist with enrichment filters",
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

			films, err := store.FilteredWatchlist(cmd.Context(), username, cache.Filter{
				Genre:         genreFlag,
				TitleContains: titleFlag,
			})
			if err != nil {
				return err
			}

			if friendFlag != "" || commonOnlyFlag {
				shared, err := sharedTitles(cmd, store, username, friendFlag)
				if err != nil {
					return err
				}
				filtered := films[:0]
				for _, film := range films {
					if _, ok := shared[film.Title]; ok {
						filtered = append(filtered, film)
					}
				}
				films = filtered
			}

			printDetailedFilms(cmd, films)
			return nil
		},
	}

	cmd.Flags().StringVar(&friendFlag, "friend", "", "Only show films also on this friend's watchlist")
	cmd.Flags().BoolVar(&commonOnlyFlag, "common-only", false, "Only show films shared with at least one cached friend")
	cmd.Flags().StringVar(&titleFlag, "title", "", "Only show films whose title contains this text")
	cmd.Flags().StringVar(&genreFlag, "genre", "", "Only show films tagged with this genre (requires enrichment)")
	return cmd
}

// sharedTitles collects the union of titles the user shares with the named
// friend, or with any cached friend when friend is empty.
func sharedTitles(cmd *cobra.Command, store *cache.Store, username, friend string) (map[string]struct{}, error) {
	friends := []string{friend}
	if friend == "" {
		var err error
		friends, err = store.Friends(cmd.Context(), username)
		if err != nil {
			return nil, err
		}
		if len(friends) == 0 {
			return nil, fmt.Errorf("no cached friends for %s; run `watchmate sync` first", username)
		}
	}

	shared := make(map[string]struct{})
	for _, name := range friends {
		list, err := store.Watchlist(cmd.Context(), name)
		if err != nil {
			return nil, err
		}
		for title := range list {
			shared[title] = struct{}{}
		}
	}
	return shared, nil
}

func printDetailedFilms(cmd *cobra.Command, films []cache.FilmDetails) {
	if len(films) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No films match. Genre and rating filters need enriched data; run `watchmate enrich` first.")
		return
	}
	rows := make([][]string, 0, len(films))
	for _, film := range films {
		year := ""
		if film.ReleaseYear > 0 {
			year = fmt.Sprintf("%d", film.ReleaseYear)
		}
		rating := ""
		if film.Rating > 0 {
			rating = fmt.Sprintf("%.1f", film.Rating)
		}
		genres := ""
		if len(film.Genres) > 0 {
			genres = film.Genres[0]
			if len(film.Genres) > 1 {
				genres += fmt.Sprintf(" +%d", len(film.Genres)-1)
			}
		}
		rows = append(rows, []string{film.Title, year, film.Director, genres, rating})
	}
	fmt.Fprintln(cmd.OutOrStdout(), renderTable(
		[]string{"Title", "Year", "Director", "Genres", "Rating"}, rows,
		[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft, alignRight}))
	fmt.Fprintf(cmd.OutOrStdout(), "%d films\n", len(films))
}
