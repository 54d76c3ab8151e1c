package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// newMenuCommand provides a numbered interactive loop for people who prefer
// it over remembering subcommands. Every action delegates to the matching
// subcommand implementation.
func newMenuCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "menu",
		Short: "Interactive menu",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reader := bufio.NewReader(os.Stdin)
			out := cmd.OutOrStdout()
			for {
				fmt.Fprintln(out)
				fmt.Fprintln(out, "watchmate")
				fmt.Fprintln(out, "  1) sync watchlists")
				fmt.Fprintln(out, "  2) compare cached watchlists")
				fmt.Fprintln(out, "  3) show my watchlist")
				fmt.Fprintln(out, "  4) show friends")
				fmt.Fprintln(out, "  5) enrich with TMDB data")
				fmt.Fprintln(out, "  6) cache stats")
				fmt.Fprintln(out, "  q) quit")
				fmt.Fprint(out, "> ")

				line, err := reader.ReadString('\n')
				if err != nil {
					return nil
				}

				var sub *cobra.Command
				switch strings.TrimSpace(line) {
				case "1":
					sub = newSyncCommand(ctx)
				case "2":
					sub = newCompareCommand(ctx)
				case "3":
					sub = newWatchlistCommand(ctx)
				case "4":
					sub = newFriendsCommand(ctx)
				case "5":
					sub = newEnrichCommand(ctx)
				case "6":
					sub = newCacheStatsCommand(ctx)
				case "q", "quit", "exit":
					return nil
				default:
					fmt.Fprintln(out, "unknown choice")
					continue
				}

				sub.SetContext(cmd.Context())
				sub.SetOut(cmd.OutOrStdout())
				sub.SetErr(cmd.ErrOrStderr())
				if err := sub.RunE(sub, nil); err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "error: %v\n", err)
				}
			}
		},
	}
}
