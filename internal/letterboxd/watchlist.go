package letterboxd

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"watchmate/internal/logging"
)

var countPattern = regexp.MustCompile(`([\d,]+)`)

// Progress reports fetch advancement to a caller-supplied callback.
// Total is zero when the watchlist size probe failed.
type Progress struct {
	Fetched int
	Total   int
}

// WatchlistOptions tunes a watchlist fetch.
type WatchlistOptions struct {
	// Limit caps the number of titles collected. Zero means unlimited.
	Limit int
	// Total is a watchlist size the caller already probed. When positive,
	// the internal count request is skipped.
	Total int
	// Progress, when set, is invoked as titles accumulate.
	Progress func(Progress)
}

// FetchWatchlist walks the paginated watchlist of username and returns the
// set of film titles found. Pagination stops at the first page with no film
// entries. Rate limiting and transient page errors end the walk early and
// return the partial set without an error; only context cancellation is
// reported as an error, alongside the titles collected before it.
func (c *Client) FetchWatchlist(ctx context.Context, username string, opts WatchlistOptions) (map[string]struct{}, error) {
	titles := make(map[string]struct{})
	total := opts.Total
	if total == 0 {
		total, _ = c.WatchlistCount(ctx, username)
	}
	if opts.Limit > 0 && (total == 0 || opts.Limit < total) {
		total = opts.Limit
	}

	log := c.logger.With(logging.String(logging.FieldUsername, username))
	lastPercent := -1
	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return titles, err
		}
		url := fmt.Sprintf("%s/%s/watchlist/page/%d/", c.baseURL, username, page)
		doc, err := c.fetchDocument(ctx, url)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return titles, ctxErr
			}
			if errors.Is(err, errRateLimited) {
				log.Warn("rate limited, stopping with partial watchlist",
					logging.Int(logging.FieldPage, page),
					logging.Int("titles", len(titles)),
					logging.String(logging.FieldErrorHint, "wait a few minutes before syncing again"))
				return titles, nil
			}
			log.Warn("watchlist page failed, stopping with partial watchlist",
				logging.Int(logging.FieldPage, page),
				logging.Error(err))
			return titles, nil
		}

		found := 0
		full := false
		doc.Find("li.poster-container").EachWithBreak(func(_ int, item *goquery.Selection) bool {
			title := extractTitle(item)
			if title == "" {
				return true
			}
			found++
			if _, seen := titles[title]; !seen {
				titles[title] = struct{}{}
				lastPercent = reportProgress(opts.Progress, len(titles), total, lastPercent)
			}
			if opts.Limit > 0 && len(titles) >= opts.Limit {
				full = true
				return false
			}
			return true
		})
		if full {
			log.Info("watchlist limit reached",
				logging.Int("titles", len(titles)),
				logging.Int(logging.FieldPage, page))
			return titles, nil
		}
		if found == 0 {
			break
		}
		if err := c.pause(ctx); err != nil {
			return titles, err
		}
	}

	log.Info("watchlist fetched", logging.Int("titles", len(titles)))
	return titles, nil
}

// WatchlistCount probes the watchlist landing page for the total film count.
// The second return is false when the count could not be determined.
func (c *Client) WatchlistCount(ctx context.Context, username string) (int, bool) {
	url := fmt.Sprintf("%s/%s/watchlist/", c.baseURL, username)
	doc, err := c.fetchDocument(ctx, url)
	if err != nil {
		return 0, false
	}
	text := strings.TrimSpace(doc.Find("span.js-watchlist-count").First().Text())
	match := countPattern.FindStringSubmatch(text)
	if match == nil {
		return 0, false
	}
	count, err := strconv.Atoi(strings.ReplaceAll(match[1], ",", ""))
	if err != nil {
		return 0, false
	}
	return count, true
}

// extractTitle pulls the film name out of a poster list item, preferring the
// data-film-name attribute and falling back to the poster image alt text.
func extractTitle(item *goquery.Selection) string {
	if name, ok := item.Find("[data-film-name]").First().Attr("data-film-name"); ok {
		if name = strings.TrimSpace(name); name != "" {
			return name
		}
	}
	if alt, ok := item.Find("img").First().Attr("alt"); ok {
		return strings.TrimSpace(alt)
	}
	return ""
}

// reportProgress invokes the callback when the integer percentage advances,
// or every tenth title when no total is known.
func reportProgress(fn func(Progress), fetched, total, lastPercent int) int {
	if fn == nil {
		return lastPercent
	}
	if total > 0 {
		percent := fetched * 100 / total
		if percent != lastPercent {
			fn(Progress{Fetched: fetched, Total: total})
			return percent
		}
		return lastPercent
	}
	if fetched == 1 || fetched%10 == 0 {
		fn(Progress{Fetched: fetched})
	}
	return lastPercent
}
