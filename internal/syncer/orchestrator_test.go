package syncer_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/gofrs/flock"

	"watchmate/internal/cache"
	"watchmate/internal/config"
	"watchmate/internal/letterboxd"
	"watchmate/internal/syncer"
	"watchmate/internal/testsupport"
)

type fakeFetcher struct {
	mu      sync.Mutex
	lists   map[string][]string
	counts  map[string]int
	friends []string
	failFor map[string]error
	fetched []string
	opts    map[string]letterboxd.WatchlistOptions
	onFetch func(username string)
}

func (f *fakeFetcher) FetchWatchlist(ctx context.Context, username string, opts letterboxd.WatchlistOptions) (map[string]struct{}, error) {
	f.mu.Lock()
	f.fetched = append(f.fetched, username)
	if f.opts == nil {
		f.opts = make(map[string]letterboxd.WatchlistOptions)
	}
	f.opts[username] = opts
	onFetch := f.onFetch
	f.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := f.failFor[username]; err != nil {
		return nil, err
	}
	titles := make(map[string]struct{})
	for i, title := range f.lists[username] {
		if opts.Limit > 0 && i >= opts.Limit {
			break
		}
		titles[title] = struct{}{}
	}
	// Fires after a successful fetch, so hooks can cancel between
	// watchlists.
	if onFetch != nil {
		onFetch(username)
	}
	return titles, nil
}

func (f *fakeFetcher) FetchFriends(ctx context.Context, username string) ([]string, error) {
	return f.friends, ctx.Err()
}

func (f *fakeFetcher) WatchlistCount(ctx context.Context, username string) (int, bool) {
	count, ok := f.counts[username]
	return count, ok
}

func (f *fakeFetcher) fetchedUser(username string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, name := range f.fetched {
		if name == username {
			return true
		}
	}
	return false
}

func newOrchestrator(t *testing.T, fetcher *fakeFetcher) (*syncer.Orchestrator, *cache.Store, *config.Config) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	return syncer.New(cfg, fetcher, store, nil, nil), store, cfg
}

func drainEvents(o *syncer.Orchestrator) []syncer.Event {
	var events []syncer.Event
	for {
		select {
		case event := <-o.Events():
			events = append(events, event)
		default:
			return events
		}
	}
}

func TestRunSyncsAndCompares(t *testing.T) {
	fetcher := &fakeFetcher{
		lists: map[string][]string{
			"cinephile": {"A", "B", "C", "D"},
			"x":         {"A", "C", "E"},
			"y":         {"B", "F"},
			"z":         {"H"},
		},
	}
	orch, store, _ := newOrchestrator(t, fetcher)

	outcome, err := orch.Run(context.Background(), syncer.Request{
		Username: "cinephile",
		Friends:  []string{"x", "y", "z"},
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if outcome.SessionID == "" {
		t.Fatal("expected a session id")
	}
	if len(outcome.Results) != 2 {
		t.Fatalf("expected overlaps with x and y only, got %+v", outcome.Results)
	}
	if outcome.Results[0].Friend != "x" || len(outcome.Results[0].Titles) != 2 {
		t.Fatalf("unexpected first result: %+v", outcome.Results[0])
	}

	titles, err := store.Watchlist(context.Background(), "y")
	if err != nil {
		t.Fatalf("Watchlist: %v", err)
	}
	if len(titles) != 2 {
		t.Fatalf("friend watchlist not persisted: %v", titles)
	}

	events := drainEvents(orch)
	last := events[len(events)-1]
	if last.Type != syncer.EventCompleted || last.Fraction != 1 {
		t.Fatalf("expected a completed event last, got %+v", last)
	}
}

func TestRunFetchesFriendListWhenUnspecified(t *testing.T) {
	fetcher := &fakeFetcher{
		lists: map[string][]string{
			"cinephile": {"A"},
			"alice":     {"A"},
		},
		friends: []string{"alice"},
	}
	orch, store, _ := newOrchestrator(t, fetcher)

	outcome, err := orch.Run(context.Background(), syncer.Request{Username: "cinephile"})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(outcome.Friends) != 1 || outcome.Friends[0] != "alice" {
		t.Fatalf("expected scraped friend list, got %v", outcome.Friends)
	}

	friends, err := store.Friends(context.Background(), "cinephile")
	if err != nil {
		t.Fatalf("Friends: %v", err)
	}
	if len(friends) != 1 || friends[0] != "alice" {
		t.Fatalf("friend list not persisted: %v", friends)
	}
}

func TestRunIsolatesFriendFailures(t *testing.T) {
	fetcher := &fakeFetcher{
		lists: map[string][]string{
			"cinephile": {"A", "B"},
			"good":      {"B"},
		},
		failFor: map[string]error{"bad": errors.New("profile is private")},
	}
	orch, _, _ := newOrchestrator(t, fetcher)

	outcome, err := orch.Run(context.Background(), syncer.Request{
		Username: "cinephile",
		Friends:  []string{"bad", "good"},
	})
	if err != nil {
		t.Fatalf("expected session to survive one friend failure, got %v", err)
	}
	if friendErr, recorded := outcome.FriendErrors["bad"]; !recorded || !errors.Is(friendErr, syncer.ErrFetch) {
		t.Fatalf("expected ErrFetch recorded for bad, got %+v", outcome.FriendErrors)
	}
	if len(outcome.Results) != 1 || outcome.Results[0].Friend != "good" {
		t.Fatalf("expected comparison against the surviving friend, got %+v", outcome.Results)
	}

	var failedEvent bool
	for _, event := range drainEvents(orch) {
		if event.Type == syncer.EventFriendFailed && event.Friend == "bad" {
			failedEvent = true
		}
	}
	if !failedEvent {
		t.Fatal("expected a friend-failed event")
	}
}

func TestRunOwnWatchlistFailureFallsBackToCache(t *testing.T) {
	fetcher := &fakeFetcher{
		lists:   map[string][]string{"alice": {"A", "B"}},
		failFor: map[string]error{"cinephile": errors.New("profile unreachable")},
	}
	orch, store, _ := newOrchestrator(t, fetcher)
	testsupport.SeedWatchlist(t, store, "cinephile", "A")

	outcome, err := orch.Run(context.Background(), syncer.Request{
		Username: "cinephile",
		Friends:  []string{"alice"},
	})
	if err != nil {
		t.Fatalf("expected fallback to the cached copy, got %v", err)
	}
	if len(outcome.Results) != 1 || len(outcome.Results[0].Titles) != 1 || outcome.Results[0].Titles[0] != "A" {
		t.Fatalf("expected comparison against the cached copy, got %+v", outcome.Results)
	}
}

func TestRunCancellationStopsBetweenFriends(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	fetcher := &fakeFetcher{
		lists: map[string][]string{
			"cinephile": {"A", "B"},
			"first":     {"A"},
			"second":    {"B"},
		},
	}
	fetcher.onFetch = func(username string) {
		if username == "first" {
			cancel()
		}
	}
	orch, _, _ := newOrchestrator(t, fetcher)

	outcome, err := orch.Run(ctx, syncer.Request{
		Username: "cinephile",
		Friends:  []string{"first", "second"},
	})
	if !errors.Is(err, context.Canceled) || !errors.Is(err, syncer.ErrCancelled) {
		t.Fatalf("expected wrapped cancellation, got %v", err)
	}
	if fetcher.fetchedUser("second") {
		t.Fatal("fetch continued past the cancellation boundary")
	}
	if len(outcome.Results) != 1 || outcome.Results[0].Friend != "first" {
		t.Fatalf("expected partial results for the completed friend, got %+v", outcome.Results)
	}
	if len(outcome.Results[0].Titles) != 1 || outcome.Results[0].Titles[0] != "A" {
		t.Fatalf("unexpected partial intersection: %+v", outcome.Results[0])
	}

	var cancelled bool
	for _, event := range drainEvents(orch) {
		if event.Type == syncer.EventCancelled {
			cancelled = true
			if len(event.Results) != 1 {
				t.Fatalf("cancelled event missing partial results: %+v", event)
			}
		}
	}
	if !cancelled {
		t.Fatal("expected a cancelled event")
	}
}

func TestRunAppliesLargeWatchlistDecision(t *testing.T) {
	large := make([]string, 600)
	for i := range large {
		large[i] = fmt.Sprintf("Film %03d", i)
	}
	fetcher := &fakeFetcher{
		lists:  map[string][]string{"cinephile": large},
		counts: map[string]int{"cinephile": len(large)},
	}
	orch, store, cfg := newOrchestrator(t, fetcher)

	_, err := orch.Run(context.Background(), syncer.Request{
		Username: "cinephile",
		Friends:  []string{},
		Decider:  syncer.Fixed(syncer.DecideLimit),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := fetcher.opts["cinephile"].Limit; got != cfg.Letterboxd.LargeLimit {
		t.Fatalf("expected limit %d applied, got %d", cfg.Letterboxd.LargeLimit, got)
	}
	if got := fetcher.opts["cinephile"].Total; got != len(large) {
		t.Fatalf("expected the probed count %d passed through, got %d", len(large), got)
	}
	titles, err := store.Watchlist(context.Background(), "cinephile")
	if err != nil {
		t.Fatalf("Watchlist: %v", err)
	}
	if len(titles) != cfg.Letterboxd.LargeLimit {
		t.Fatalf("expected %d cached titles, got %d", cfg.Letterboxd.LargeLimit, len(titles))
	}
}

func TestRunSkipDecisionKeepsCachedCopy(t *testing.T) {
	fetcher := &fakeFetcher{
		counts: map[string]int{"cinephile": 900},
	}
	orch, store, _ := newOrchestrator(t, fetcher)
	testsupport.SeedWatchlist(t, store, "cinephile", "Cached Film")

	_, err := orch.Run(context.Background(), syncer.Request{
		Username: "cinephile",
		Friends:  []string{},
		Decider:  syncer.Fixed(syncer.DecideSkip),
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if fetcher.fetchedUser("cinephile") {
		t.Fatal("expected skip decision to avoid fetching")
	}
	titles, err := store.Watchlist(context.Background(), "cinephile")
	if err != nil {
		t.Fatalf("Watchlist: %v", err)
	}
	if _, ok := titles["Cached Film"]; !ok {
		t.Fatalf("cached copy lost: %v", titles)
	}
}

func TestRunRejectsConcurrentSessions(t *testing.T) {
	fetcher := &fakeFetcher{lists: map[string][]string{"cinephile": {"A"}}}
	orch, _, cfg := newOrchestrator(t, fetcher)

	held := flock.New(cfg.Cache.Path + ".lock")
	locked, err := held.TryLock()
	if err != nil || !locked {
		t.Fatalf("could not pre-acquire lock: locked=%v err=%v", locked, err)
	}
	defer held.Unlock()

	if _, err := orch.Run(context.Background(), syncer.Request{Username: "cinephile", Friends: []string{}}); !errors.Is(err, syncer.ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
}
