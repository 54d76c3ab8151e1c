package letterboxd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"

	"watchmate/internal/config"
	"watchmate/internal/logging"
)

// errRateLimited marks an HTTP 429 response. It never escapes the package;
// fetchers translate it into a clean partial stop.
var errRateLimited = errors.New("letterboxd: rate limited")

type statusError struct {
	code int
	url  string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("letterboxd: %s returned status %d", e.url, e.code)
}

// Client fetches and parses public Letterboxd pages.
type Client struct {
	httpClient *http.Client
	baseURL    string
	userAgent  string
	delayMin   time.Duration
	delayMax   time.Duration
	logger     *slog.Logger
}

// Option adjusts client construction.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client, primarily for tests.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// New builds a client from the letterboxd section of the configuration.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = logging.NewNop()
	}
	client := &Client{
		httpClient: &http.Client{Timeout: time.Duration(cfg.Letterboxd.RequestTimeout) * time.Second},
		baseURL:    cfg.Letterboxd.BaseURL,
		userAgent:  cfg.Letterboxd.UserAgent,
		delayMin:   time.Duration(cfg.Letterboxd.PageDelayMinMS) * time.Millisecond,
		delayMax:   time.Duration(cfg.Letterboxd.PageDelayMaxMS) * time.Millisecond,
		logger:     logger.With(logging.String(logging.FieldComponent, "letterboxd")),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// fetchDocument GETs a page and parses it. A 429 response maps to
// errRateLimited; any other non-200 status maps to a statusError.
func (c *Client) fetchDocument(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("letterboxd: build request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("letterboxd: fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, errRateLimited
	case resp.StatusCode != http.StatusOK:
		return nil, &statusError{code: resp.StatusCode, url: url}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("letterboxd: parse %s: %w", url, err)
	}
	return doc, nil
}

// pause sleeps for a random duration in [delayMin, delayMax], returning early
// if the context is cancelled.
func (c *Client) pause(ctx context.Context) error {
	delay := c.delayMin
	if span := c.delayMax - c.delayMin; span > 0 {
		delay += time.Duration(rand.Int63n(int64(span)))
	}
	if delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
