// Package tmdb queries The Movie Database for film metadata and enriches
// cached watchlist titles with it.
package tmdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"watchmate/internal/config"
	"watchmate/internal/logging"
)

// ErrNoAPIKey indicates enrichment was requested without a configured key.
var ErrNoAPIKey = errors.New("tmdb: no API key configured")

// ErrNotFound indicates the search returned no candidates.
var ErrNotFound = errors.New("tmdb: no matching movie")

// Movie is a search result candidate.
type Movie struct {
	ID          int64   `json:"id"`
	Title       string  `json:"title"`
	ReleaseDate string  `json:"release_date"`
	Overview    string  `json:"overview"`
	PosterPath  string  `json:"poster_path"`
	VoteAverage float64 `json:"vote_average"`
}

// MovieDetails is the full record for a single movie, including credits.
type MovieDetails struct {
	Movie
	Runtime      int    `json:"runtime"`
	BackdropPath string `json:"backdrop_path"`
	Genres       []struct {
		Name string `json:"name"`
	} `json:"genres"`
	Credits struct {
		Crew []struct {
			Name string `json:"name"`
			Job  string `json:"job"`
		} `json:"crew"`
	} `json:"credits"`
}

// Director returns the first crew member with the Director job.
func (d *MovieDetails) Director() string {
	for _, member := range d.Credits.Crew {
		if member.Job == "Director" {
			return member.Name
		}
	}
	return ""
}

// GenreNames flattens the genre list to plain strings.
func (d *MovieDetails) GenreNames() []string {
	if len(d.Genres) == 0 {
		return nil
	}
	names := make([]string, 0, len(d.Genres))
	for _, genre := range d.Genres {
		names = append(names, genre.Name)
	}
	return names
}

// ReleaseYear extracts the year from the release date, or 0 when absent.
func (m Movie) ReleaseYear() int {
	if len(m.ReleaseDate) < 4 {
		return 0
	}
	year, err := strconv.Atoi(m.ReleaseDate[:4])
	if err != nil {
		return 0
	}
	return year
}

// Client is a minimal TMDB v3 API client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	language   string
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

// New builds a client from the tmdb section of the configuration. A client
// without an API key is still constructed; its calls fail with ErrNoAPIKey.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = logging.NewNop()
	}
	client := &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    cfg.TMDB.BaseURL,
		apiKey:     cfg.TMDB.APIKey,
		language:   cfg.TMDB.Language,
		logger:     logger.With(logging.String(logging.FieldComponent, "tmdb")),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// HasAPIKey reports whether requests can be authenticated.
func (c *Client) HasAPIKey() bool {
	return c.apiKey != ""
}

// SearchMovie returns the best search candidate for a title, optionally
// constrained to a release year. ErrNotFound is returned when nothing
// matches.
func (c *Client) SearchMovie(ctx context.Context, title string, year int) (*Movie, error) {
	if !c.HasAPIKey() {
		return nil, ErrNoAPIKey
	}
	params := url.Values{}
	params.Set("api_key", c.apiKey)
	params.Set("query", title)
	params.Set("language", c.language)
	if year > 0 {
		params.Set("year", strconv.Itoa(year))
	}

	var payload struct {
		Results []Movie `json:"results"`
	}
	if err := c.getJSON(ctx, "/search/movie", params, &payload); err != nil {
		return nil, err
	}
	if len(payload.Results) == 0 {
		return nil, ErrNotFound
	}
	// TMDB orders results by relevance; the first candidate wins.
	return &payload.Results[0], nil
}

// MovieDetails fetches the full record for a known TMDB id, with credits
// included for director extraction.
func (c *Client) MovieDetails(ctx context.Context, id int64) (*MovieDetails, error) {
	if !c.HasAPIKey() {
		return nil, ErrNoAPIKey
	}
	params := url.Values{}
	params.Set("api_key", c.apiKey)
	params.Set("language", c.language)
	params.Set("append_to_response", "credits")

	var details MovieDetails
	if err := c.getJSON(ctx, fmt.Sprintf("/movie/%d", id), params, &details); err != nil {
		return nil, err
	}
	return &details, nil
}

func (c *Client) getJSON(ctx context.Context, path string, params url.Values, dest any) error {
	endpoint := c.baseURL + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("tmdb: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("tmdb: request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("tmdb: %s returned status %d: %s", path, resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("tmdb: decode %s response: %w", path, err)
	}
	return nil
}
