package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"watchmate/internal/compare"
)

func newCompareCommand(ctx *commandContext) *cobra.Command {
	var friendsFlag []string

	cmd := &cobra.Command{
		Use:   "compare [username]",
		Short: "Compare cached watchlists without fetching anything",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			username, err := ctx.resolveUsername(args)
			if err != nil {
				return err
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			store, err := ctx.ensureStore()
			if err != nil {
				return err
			}

			userList, err := store.Watchlist(cmd.Context(), username)
			if err != nil {
				return err
			}
			if len(userList) == 0 {
				return fmt.Errorf("no cached watchlist for %s; run `watchmate sync %s` first", username, username)
			}

			friends := friendsFlag
			if len(friends) == 0 {
				friends = cfg.Profile.SelectedFriends
			}
			if len(friends) == 0 {
				friends, err = store.Friends(cmd.Context(), username)
				if err != nil {
					return err
				}
			}
			if len(friends) == 0 {
				return fmt.Errorf("no friends to compare against; pass --friends or sync first")
			}

			friendLists := make(map[string]map[string]struct{}, len(friends))
			for _, friend := range friends {
				list, err := store.Watchlist(cmd.Context(), friend)
				if err != nil {
					return err
				}
				friendLists[friend] = list
			}

			printResults(cmd, compare.Watchlists(userList, friends, friendLists))
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&friendsFlag, "friends", nil, "Friends to compare against (default: profile selection, else all cached friends)")
	return cmd
}
