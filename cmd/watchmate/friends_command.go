package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"watchmate/internal/letterboxd"
)

func newFriendsCommand(ctx *commandContext) *cobra.Command {
	var refreshFlag bool

	cmd := &cobra.Command{
		Use:   "friends [username]",
		Short: "Show the cached friend list",
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
				fetched, err := client.FetchFriends(cmd.Context(), username)
				if err != nil {
					return err
				}
				if err := store.SyncFriends(cmd.Context(), username, fetched); err != nil {
					return err
				}
			}

			friends, err := store.Friends(cmd.Context(), username)
			if err != nil {
				return err
			}
			if len(friends) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "No cached friends for %s. Run with --refresh to fetch them.\n", username)
				return nil
			}
			rows := make([][]string, 0, len(friends))
			for i, friend := range friends {
				rows = append(rows, []string{strconv.Itoa(i + 1), friend})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"#", "Username"}, rows,
				[]columnAlignment{alignRight, alignLeft}))
			return nil
		},
	}

	cmd.Flags().BoolVar(&refreshFlag, "refresh", false, "Fetch the friend list before showing it")
	return cmd
}
