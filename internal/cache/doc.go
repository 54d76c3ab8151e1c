// Package cache persists scraped watchlists, friend lists, and film details
// in a local SQLite database.
//
// The database is the source of truth between syncs. Watchlist and friend
// syncs are full replacements executed in a single transaction, so readers
// never observe a half-updated list. Film rows are shared across users and
// keyed by the exact scraped title; TMDB details attach to the film row and
// survive watchlist resyncs.
package cache
