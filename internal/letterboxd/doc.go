// Package letterboxd scrapes public Letterboxd pages.
//
// The client walks paginated watchlist and following pages, extracting film
// titles and usernames from the HTML. It is deliberately polite: a randomized
// delay separates page requests, and an HTTP 429 response stops the walk
// cleanly with whatever was collected so far. Partial results are normal and
// are reported without an error; only context cancellation aborts a fetch.
package letterboxd
