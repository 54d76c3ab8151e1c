package tmdb

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"watchmate/internal/cache"
	"watchmate/internal/logging"
	"watchmate/internal/titles"
)

// Enricher looks up cached titles on TMDB and writes the details back.
type Enricher struct {
	client  *Client
	store   *cache.Store
	workers int
	logger  *slog.Logger
}

// NewEnricher wires a TMDB client to the cache. workers bounds concurrent
// API lookups; values below 1 are raised to 1.
func NewEnricher(client *Client, store *cache.Store, workers int, logger *slog.Logger) *Enricher {
	if workers < 1 {
		workers = 1
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Enricher{
		client:  client,
		store:   store,
		workers: workers,
		logger:  logger.With(logging.String(logging.FieldComponent, "enricher")),
	}
}

// EnrichTitle resolves one title and persists the result. Titles carrying a
// trailing "(YYYY)" year use it to narrow the search. The search hit is
// followed by a details call so director, genres, and runtime come along.
func (e *Enricher) EnrichTitle(ctx context.Context, title string) (*cache.FilmDetails, error) {
	query, year := titles.SplitYear(title)
	movie, err := e.client.SearchMovie(ctx, query, year)
	if err != nil {
		return nil, err
	}
	details := cache.FilmDetails{
		Title:       title,
		ReleaseYear: movie.ReleaseYear(),
		ReleaseDate: movie.ReleaseDate,
		TMDBID:      movie.ID,
		Overview:    movie.Overview,
		PosterPath:  movie.PosterPath,
		Rating:      movie.VoteAverage,
	}
	// The details record is richer but optional; a failed call leaves the
	// search fields in place.
	if full, detailErr := e.client.MovieDetails(ctx, movie.ID); detailErr == nil {
		details.Director = full.Director()
		details.Genres = full.GenreNames()
		details.RuntimeMin = full.Runtime
		details.BackdropPath = full.BackdropPath
		if full.Overview != "" {
			details.Overview = full.Overview
		}
	} else {
		e.logger.Debug("movie details unavailable, keeping search fields",
			logging.String("title", title),
			logging.Error(detailErr))
	}
	if err := e.store.SaveFilmDetails(ctx, details); err != nil {
		return nil, err
	}
	return &details, nil
}

// Summary counts the outcomes of a bulk enrichment pass.
type Summary struct {
	Enriched int
	Missing  int
	Failed   int
}

// EnrichAll enriches every cached title that has no details yet, fanning the
// lookups out across the worker pool. Titles TMDB does not know are counted
// as missing, other lookup failures as failed; neither aborts the pass.
// ErrNoAPIKey is returned up front when the client cannot authenticate.
func (e *Enricher) EnrichAll(ctx context.Context) (Summary, error) {
	if !e.client.HasAPIKey() {
		return Summary{}, ErrNoAPIKey
	}
	pending, err := e.store.UnenrichedTitles(ctx)
	if err != nil {
		return Summary{}, err
	}
	if len(pending) == 0 {
		return Summary{}, nil
	}

	var (
		mu      sync.Mutex
		summary Summary
		wg      sync.WaitGroup
	)
	jobs := make(chan string)
	for i := 0; i < e.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for title := range jobs {
				_, err := e.EnrichTitle(ctx, title)
				mu.Lock()
				switch {
				case err == nil:
					summary.Enriched++
				case errors.Is(err, ErrNotFound):
					summary.Missing++
				default:
					summary.Failed++
				}
				mu.Unlock()
				if err != nil && !errors.Is(err, ErrNotFound) {
					e.logger.Warn("enrichment failed",
						logging.String("title", title),
						logging.Error(err))
				}
			}
		}()
	}

feed:
	for _, title := range pending {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- title:
		}
	}
	close(jobs)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return summary, err
	}
	e.logger.Info("enrichment pass complete",
		logging.Int("enriched", summary.Enriched),
		logging.Int("missing", summary.Missing),
		logging.Int("failed", summary.Failed))
	return summary, nil
}
