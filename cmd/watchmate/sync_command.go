package main

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"watchmate/internal/compare"
	"watchmate/internal/letterboxd"
	"watchmate/internal/notifications"
	"watchmate/internal/syncer"
)

func newSyncCommand(ctx *commandContext) *cobra.Command {
	var friendsFlag []string
	var onLargeFlag string
	var rememberFlag bool

	cmd := &cobra.Command{
		Use:   "sync [username]",
		Short: "Fetch watchlists for you and your friends, then compare",
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
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}
			store, err := ctx.ensureStore()
			if err != nil {
				return err
			}

			decider, err := resolveDecider(onLargeFlag, cfg.Letterboxd.LargeLimit)
			if err != nil {
				return err
			}

			friends := friendsFlag
			if len(friends) == 0 {
				friends = cfg.Profile.SelectedFriends
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			client := letterboxd.New(cfg, logger)
			orch := syncer.New(cfg, client, store, notifications.NewService(cfg), logger)

			done := make(chan struct{})
			var wg sync.WaitGroup
			wg.Add(1)
			go func() {
				defer wg.Done()
				consumeSyncEvents(cmd, orch.Events(), done)
			}()

			outcome, runErr := orch.Run(runCtx, syncer.Request{
				Username: username,
				Friends:  friends,
				Decider:  decider,
			})
			// The event channel stays open; drain whatever was published.
			close(done)
			wg.Wait()

			if runErr != nil {
				if runCtx.Err() != nil {
					fmt.Fprintln(cmd.OutOrStdout(), "sync cancelled; friends synced before the cancel kept their updated lists")
					if outcome != nil && len(outcome.Results) > 0 {
						printResults(cmd, outcome.Results)
					}
					return runErr
				}
				return runErr
			}

			if rememberFlag {
				cfg.Profile.Username = username
				cfg.Profile.SelectedFriends = outcome.Friends
				if err := cfg.Save(ctx.configPath); err != nil {
					return fmt.Errorf("remember profile: %w", err)
				}
			}

			printResults(cmd, outcome.Results)
			if len(outcome.FriendErrors) > 0 {
				for friend, friendErr := range outcome.FriendErrors {
					fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s could not be synced: %v\n", friend, friendErr)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&friendsFlag, "friends", nil, "Friends to sync against (default: profile selection, else all followed users)")
	cmd.Flags().StringVar(&onLargeFlag, "on-large", "ask", "Large watchlist handling: ask, full, limit, or skip")
	cmd.Flags().BoolVar(&rememberFlag, "remember", false, "Save the username and friend selection to the config file")
	return cmd
}

// consumeSyncEvents renders session events until a terminal lifecycle event
// arrives or done closes. A progress bar is shown only on a TTY.
func consumeSyncEvents(cmd *cobra.Command, events <-chan syncer.Event, done <-chan struct{}) {
	var bar *progressbar.ProgressBar
	if isatty.IsTerminal(os.Stdout.Fd()) {
		bar = progressbar.NewOptions(100,
			progressbar.OptionSetDescription("syncing"),
			progressbar.OptionSetWriter(cmd.ErrOrStderr()),
			progressbar.OptionClearOnFinish(),
		)
	}
	handle := func(event syncer.Event) bool {
		switch event.Type {
		case syncer.EventProgress, syncer.EventStageChanged:
			if bar != nil {
				_ = bar.Set(int(event.Fraction * 100))
			}
		case syncer.EventFriendSynced:
			if bar == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "synced %s\n", event.Friend)
			}
		case syncer.EventFriendFailed:
			if bar == nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "failed %s: %v\n", event.Friend, event.Err)
			}
		case syncer.EventCompleted, syncer.EventCancelled, syncer.EventFailed:
			if bar != nil {
				_ = bar.Finish()
			}
			return true
		}
		return false
	}
	for {
		select {
		case event := <-events:
			if handle(event) {
				return
			}
		case <-done:
			// Session is over; drain anything still buffered.
			for {
				select {
				case event := <-events:
					if handle(event) {
						return
					}
				default:
					return
				}
			}
		}
	}
}

func resolveDecider(mode string, limit int) (syncer.Decider, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "full":
		return syncer.Fixed(syncer.DecideFull), nil
	case "limit":
		return syncer.Fixed(syncer.DecideLimit), nil
	case "skip":
		return syncer.Fixed(syncer.DecideSkip), nil
	case "", "ask":
		if !isatty.IsTerminal(os.Stdin.Fd()) {
			return syncer.Fixed(syncer.DecideFull), nil
		}
		return &promptDecider{limit: limit}, nil
	default:
		return nil, fmt.Errorf("unknown --on-large mode %q", mode)
	}
}

// promptDecider asks on stdin what to do with a large watchlist.
type promptDecider struct {
	limit int
}

func (p *promptDecider) Decide(username string, count int) syncer.Decision {
	fmt.Printf("%s has %d films on their watchlist. [f]ull fetch, [l]imit to %d, [s]kip? ", username, count, p.limit)
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return syncer.DecideFull
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "l", "limit":
		return syncer.DecideLimit
	case "s", "skip":
		return syncer.DecideSkip
	default:
		return syncer.DecideFull
	}
}

func printResults(cmd *cobra.Command, results []compare.Result) {
	out := cmd.OutOrStdout()
	if len(results) == 0 {
		fmt.Fprintln(out, "No shared watchlist titles found.")
		return
	}
	for _, result := range results {
		fmt.Fprintf(out, "\nShared with %s (%d):\n", result.Friend, len(result.Titles))
		rows := make([][]string, 0, len(result.Titles))
		for _, title := range result.Titles {
			rows = append(rows, []string{title})
		}
		fmt.Fprintln(out, renderTable([]string{"Title"}, rows, nil))
	}
	fmt.Fprintf(out, "\n%d shared titles across %d friends\n", compare.TotalTitles(results), len(results))
}
