// Package syncer orchestrates a full watchlist sync session.
//
// A session fetches the user's watchlist, the selected friends' watchlists,
// persists everything through the cache, and finishes with a comparison.
// Progress and lifecycle changes are published as events on a bounded
// channel so an interactive frontend can render them without coupling to
// the sync goroutine. One session runs at a time, enforced with a file lock
// next to the cache database.
package syncer
