package testsupport

import (
	"context"
	"testing"

	"watchmate/internal/cache"
	"watchmate/internal/config"
)

// MustOpenStore opens a cache.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *cache.Store {
	t.Helper()

	store, err := cache.Open(cfg, nil)
	if err != nil {
		t.Fatalf("cache.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// SeedWatchlist stores a title set for a user, failing the test on error.
func SeedWatchlist(t testing.TB, store *cache.Store, username string, titles ...string) {
	t.Helper()

	set := make(map[string]struct{}, len(titles))
	for _, title := range titles {
		set[title] = struct{}{}
	}
	if err := store.SyncWatchlist(context.Background(), username, set); err != nil {
		t.Fatalf("store.SyncWatchlist(%s): %v", username, err)
	}
}
