package cache

import (
	"context"
	"fmt"
	"sort"
	"time"

	"watchmate/internal/logging"
	"watchmate/internal/titles"
)

// SyncWatchlist replaces the cached watchlist of username with the given
// title set. The user row, film rows, and membership rows are all written in
// one transaction; on any failure the previous cache state is kept intact.
func (s *Store) SyncWatchlist(ctx context.Context, username string, titleSet map[string]struct{}) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin watchlist sync tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO users (username, last_synced) VALUES (?, ?)
         ON CONFLICT(username) DO UPDATE SET last_synced = excluded.last_synced`,
		username, now); err != nil {
		return fmt.Errorf("upsert user %s: %w", username, err)
	}

	// Deterministic insert order keeps auto-assigned film ids stable across
	// runs with identical input.
	ordered := make([]string, 0, len(titleSet))
	for title := range titleSet {
		ordered = append(ordered, title)
	}
	sort.Strings(ordered)

	insertFilm, err := tx.PrepareContext(ctx,
		`INSERT INTO films (title, normalized_title) VALUES (?, ?)
         ON CONFLICT(title) DO NOTHING`)
	if err != nil {
		return fmt.Errorf("prepare film insert: %w", err)
	}
	defer insertFilm.Close()
	for _, title := range ordered {
		if _, err := insertFilm.ExecContext(ctx, title, titles.Normalize(title)); err != nil {
			return fmt.Errorf("insert film %q: %w", title, err)
		}
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM watchlist_entries WHERE username = ?", username); err != nil {
		return fmt.Errorf("clear watchlist of %s: %w", username, err)
	}

	insertEntry, err := tx.PrepareContext(ctx,
		`INSERT INTO watchlist_entries (username, film_id)
         SELECT ?, id FROM films WHERE title = ?`)
	if err != nil {
		return fmt.Errorf("prepare entry insert: %w", err)
	}
	defer insertEntry.Close()
	for _, title := range ordered {
		if _, err := insertEntry.ExecContext(ctx, username, title); err != nil {
			return fmt.Errorf("insert watchlist entry %q: %w", title, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit watchlist sync: %w", err)
	}
	s.logger.Info("watchlist synced",
		logging.String(logging.FieldUsername, username),
		logging.Int("titles", len(titleSet)))
	return nil
}

// SyncFriends replaces the cached friend list of username, preserving the
// given order.
func (s *Store) SyncFriends(ctx context.Context, username string, friends []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin friend sync tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	now := time.Now().UTC().Format(time.RFC3339)
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO users (username, last_synced) VALUES (?, ?)
         ON CONFLICT(username) DO UPDATE SET last_synced = excluded.last_synced`,
		username, now); err != nil {
		return fmt.Errorf("upsert user %s: %w", username, err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM friend_links WHERE username = ?", username); err != nil {
		return fmt.Errorf("clear friends of %s: %w", username, err)
	}

	insert, err := tx.PrepareContext(ctx,
		"INSERT INTO friend_links (username, friend, position) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare friend insert: %w", err)
	}
	defer insert.Close()
	for i, friend := range friends {
		if _, err := insert.ExecContext(ctx, username, friend, i); err != nil {
			return fmt.Errorf("insert friend %q: %w", friend, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit friend sync: %w", err)
	}
	s.logger.Info("friends synced",
		logging.String(logging.FieldUsername, username),
		logging.Int("friends", len(friends)))
	return nil
}

// LastSynced reports when username last completed a sync. The second return
// is false for users the cache has never seen.
func (s *Store) LastSynced(ctx context.Context, username string) (time.Time, bool, error) {
	var stamp string
	err := s.db.QueryRowContext(ctx,
		"SELECT last_synced FROM users WHERE username = ?", username).Scan(&stamp)
	if err != nil {
		if isNoRows(err) {
			return time.Time{}, false, nil
		}
		return time.Time{}, false, fmt.Errorf("query last_synced for %s: %w", username, err)
	}
	parsed, err := time.Parse(time.RFC3339, stamp)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("parse last_synced %q: %w", stamp, err)
	}
	return parsed, true, nil
}
