package cache_test

import (
	"context"
	"testing"
	"time"

	"watchmate/internal/cache"
	"watchmate/internal/testsupport"
)

func titleSet(titles ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(titles))
	for _, title := range titles {
		set[title] = struct{}{}
	}
	return set
}

func TestSyncWatchlistFullReplace(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if err := store.SyncWatchlist(ctx, "cinephile", titleSet("Brazil", "Stalker", "Ran")); err != nil {
		t.Fatalf("first sync: %v", err)
	}
	// Shrinking sync drops titles that disappeared upstream.
	if err := store.SyncWatchlist(ctx, "cinephile", titleSet("Brazil")); err != nil {
		t.Fatalf("second sync: %v", err)
	}

	titles, err := store.Watchlist(ctx, "cinephile")
	if err != nil {
		t.Fatalf("Watchlist: %v", err)
	}
	if len(titles) != 1 {
		t.Fatalf("expected full replacement to leave 1 title, got %v", titles)
	}
	if _, ok := titles["Brazil"]; !ok {
		t.Fatalf("expected Brazil to survive, got %v", titles)
	}
}

func TestSyncWatchlistIsIdempotent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	set := titleSet("Brazil", "Stalker")
	for i := 0; i < 3; i++ {
		if err := store.SyncWatchlist(ctx, "cinephile", set); err != nil {
			t.Fatalf("sync %d: %v", i, err)
		}
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Films != 2 || stats.Entries != 2 || stats.Users != 1 {
		t.Fatalf("unexpected stats after repeated syncs: %+v", stats)
	}
}

func TestWatchlistsShareFilmRows(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.SeedWatchlist(t, store, "cinephile", "Brazil", "Stalker")
	testsupport.SeedWatchlist(t, store, "alice", "Brazil", "Ran")

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Films != 3 {
		t.Fatalf("expected 3 shared film rows, got %+v", stats)
	}
	if stats.Entries != 4 {
		t.Fatalf("expected 4 watchlist entries, got %+v", stats)
	}
}

func TestSyncFriendsReplacesAndPreservesOrder(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if err := store.SyncFriends(ctx, "cinephile", []string{"zed", "alice", "bob"}); err != nil {
		t.Fatalf("first friend sync: %v", err)
	}
	if err := store.SyncFriends(ctx, "cinephile", []string{"bob", "carol"}); err != nil {
		t.Fatalf("second friend sync: %v", err)
	}

	friends, err := store.Friends(ctx, "cinephile")
	if err != nil {
		t.Fatalf("Friends: %v", err)
	}
	want := []string{"bob", "carol"}
	if len(friends) != len(want) {
		t.Fatalf("got %v, want %v", friends, want)
	}
	for i := range want {
		if friends[i] != want[i] {
			t.Fatalf("got %v, want %v", friends, want)
		}
	}
}

func TestLastSynced(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if _, ok, err := store.LastSynced(ctx, "stranger"); err != nil || ok {
		t.Fatalf("expected unknown user, got ok=%v err=%v", ok, err)
	}

	before := time.Now().Add(-time.Minute)
	testsupport.SeedWatchlist(t, store, "cinephile", "Brazil")
	stamp, ok, err := store.LastSynced(ctx, "cinephile")
	if err != nil || !ok {
		t.Fatalf("expected sync timestamp, got ok=%v err=%v", ok, err)
	}
	if stamp.Before(before) {
		t.Fatalf("timestamp %v predates the sync", stamp)
	}
}

func TestFilmDetailsSurviveResync(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.SeedWatchlist(t, store, "cinephile", "Brazil")
	if err := store.SaveFilmDetails(ctx, cache.FilmDetails{
		Title:       "Brazil",
		ReleaseYear: 1985,
		TMDBID:      68,
		Overview:    "Bureaucracy and ducts.",
		Rating:      7.8,
	}); err != nil {
		t.Fatalf("SaveFilmDetails: %v", err)
	}

	testsupport.SeedWatchlist(t, store, "cinephile", "Brazil", "Stalker")

	details, err := store.FilmDetails(ctx, "Brazil")
	if err != nil {
		t.Fatalf("FilmDetails: %v", err)
	}
	if details == nil || details.ReleaseYear != 1985 || details.TMDBID != 68 {
		t.Fatalf("details lost across resync: %+v", details)
	}
}

func TestFilmDetailsNormalizedFallback(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if err := store.SaveFilmDetails(ctx, cache.FilmDetails{
		Title:       "The Seventh Seal",
		ReleaseYear: 1957,
		TMDBID:      490,
	}); err != nil {
		t.Fatalf("SaveFilmDetails: %v", err)
	}

	details, err := store.FilmDetails(ctx, "Seventh Seal")
	if err != nil {
		t.Fatalf("FilmDetails: %v", err)
	}
	if details == nil || details.TMDBID != 490 {
		t.Fatalf("expected normalized-title fallback match, got %+v", details)
	}

	if missing, err := store.FilmDetails(ctx, "Wild Strawberries"); err != nil || missing != nil {
		t.Fatalf("expected no match, got %+v err=%v", missing, err)
	}
}

func TestFilteredWatchlist(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.SeedWatchlist(t, store, "cinephile", "Brazil", "Stalker", "Ran")
	seed := []cache.FilmDetails{
		{Title: "Brazil", ReleaseYear: 1985, Rating: 7.8},
		{Title: "Stalker", ReleaseYear: 1979, Rating: 8.1},
		{Title: "Ran", ReleaseYear: 1985, Rating: 8.0},
	}
	for _, details := range seed {
		if err := store.SaveFilmDetails(ctx, details); err != nil {
			t.Fatalf("SaveFilmDetails(%s): %v", details.Title, err)
		}
	}

	films, err := store.FilteredWatchlist(ctx, "cinephile", cache.Filter{Year: 1985})
	if err != nil {
		t.Fatalf("FilteredWatchlist: %v", err)
	}
	if len(films) != 2 {
		t.Fatalf("expected 2 films from 1985, got %+v", films)
	}

	films, err = store.FilteredWatchlist(ctx, "cinephile", cache.Filter{Year: 1985, MinRating: 8.0})
	if err != nil {
		t.Fatalf("FilteredWatchlist: %v", err)
	}
	if len(films) != 1 || films[0].Title != "Ran" {
		t.Fatalf("expected only Ran, got %+v", films)
	}
}

func TestFilteredWatchlistGenreAndTitle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.SeedWatchlist(t, store, "cinephile", "Brazil", "Stalker")
	if err := store.SaveFilmDetails(ctx, cache.FilmDetails{
		Title:    "Brazil",
		Director: "Terry Gilliam",
		Genres:   []string{"Comedy", "Science Fiction"},
	}); err != nil {
		t.Fatalf("SaveFilmDetails: %v", err)
	}
	if err := store.SaveFilmDetails(ctx, cache.FilmDetails{
		Title:  "Stalker",
		Genres: []string{"Drama", "Science Fiction"},
	}); err != nil {
		t.Fatalf("SaveFilmDetails: %v", err)
	}

	films, err := store.FilteredWatchlist(ctx, "cinephile", cache.Filter{Genre: "Comedy"})
	if err != nil {
		t.Fatalf("FilteredWatchlist: %v", err)
	}
	if len(films) != 1 || films[0].Title != "Brazil" {
		t.Fatalf("expected only Brazil for Comedy, got %+v", films)
	}
	if films[0].Director != "Terry Gilliam" || len(films[0].Genres) != 2 {
		t.Fatalf("details not round-tripped: %+v", films[0])
	}

	films, err = store.FilteredWatchlist(ctx, "cinephile", cache.Filter{TitleContains: "talk"})
	if err != nil {
		t.Fatalf("FilteredWatchlist: %v", err)
	}
	if len(films) != 1 || films[0].Title != "Stalker" {
		t.Fatalf("expected substring match on Stalker, got %+v", films)
	}
}

func TestUnenrichedTitles(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.SeedWatchlist(t, store, "cinephile", "Brazil", "Stalker")
	if err := store.SaveFilmDetails(ctx, cache.FilmDetails{Title: "Brazil", TMDBID: 68}); err != nil {
		t.Fatalf("SaveFilmDetails: %v", err)
	}

	titles, err := store.UnenrichedTitles(ctx)
	if err != nil {
		t.Fatalf("UnenrichedTitles: %v", err)
	}
	if len(titles) != 1 || titles[0] != "Stalker" {
		t.Fatalf("got %v, want [Stalker]", titles)
	}
}

func TestClearAndHealth(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	testsupport.SeedWatchlist(t, store, "cinephile", "Brazil")
	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Users != 0 || stats.Films != 0 || stats.Entries != 0 {
		t.Fatalf("expected empty cache after Clear, got %+v", stats)
	}
	if err := store.CheckHealth(ctx); err != nil {
		t.Fatalf("CheckHealth: %v", err)
	}
}
