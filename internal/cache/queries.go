package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// Watchlist returns the cached title set of username. A user with no cached
// watchlist yields an empty set, not an error.
func (s *Store) Watchlist(ctx context.Context, username string) (map[string]struct{}, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT f.title FROM watchlist_entries e
         JOIN films f ON f.id = e.film_id
         WHERE e.username = ?`, username)
	if err != nil {
		return nil, fmt.Errorf("query watchlist of %s: %w", username, err)
	}
	defer rows.Close()

	titles := make(map[string]struct{})
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, fmt.Errorf("scan watchlist title: %w", err)
		}
		titles[title] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate watchlist of %s: %w", username, err)
	}
	return titles, nil
}

// Friends returns the cached friend list of username in its stored order.
func (s *Store) Friends(ctx context.Context, username string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT friend FROM friend_links WHERE username = ? ORDER BY position", username)
	if err != nil {
		return nil, fmt.Errorf("query friends of %s: %w", username, err)
	}
	defer rows.Close()

	var friends []string
	for rows.Next() {
		var friend string
		if err := rows.Scan(&friend); err != nil {
			return nil, fmt.Errorf("scan friend: %w", err)
		}
		friends = append(friends, friend)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate friends of %s: %w", username, err)
	}
	return friends, nil
}

// Users returns every username with cached data, sorted alphabetically.
func (s *Store) Users(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT username FROM users ORDER BY username")
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []string
	for rows.Next() {
		var username string
		if err := rows.Scan(&username); err != nil {
			return nil, fmt.Errorf("scan username: %w", err)
		}
		users = append(users, username)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate users: %w", err)
	}
	return users, nil
}
