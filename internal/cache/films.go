package cache

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"watchmate/internal/titles"
)

// FilmDetails holds TMDB enrichment data attached to a cached film.
type FilmDetails struct {
	Title        string
	ReleaseYear  int
	ReleaseDate  string
	TMDBID       int64
	Director     string
	Genres       []string
	RuntimeMin   int
	Overview     string
	PosterPath   string
	BackdropPath string
	Rating       float64
	EnrichedAt   time.Time
}

const filmDetailColumns = "title, release_year, release_date, tmdb_id, director, genres, runtime_minutes, overview, poster_path, backdrop_path, rating, enriched_at"

// SaveFilmDetails attaches TMDB details to the film with the exact title,
// creating the film row if it is not cached yet.
func (s *Store) SaveFilmDetails(ctx context.Context, details FilmDetails) error {
	enrichedAt := details.EnrichedAt
	if enrichedAt.IsZero() {
		enrichedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO films (title, normalized_title, release_year, release_date, tmdb_id, director, genres, runtime_minutes, overview, poster_path, backdrop_path, rating, enriched_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
         ON CONFLICT(title) DO UPDATE SET
             release_year = excluded.release_year,
             release_date = excluded.release_date,
             tmdb_id = excluded.tmdb_id,
             director = excluded.director,
             genres = excluded.genres,
             runtime_minutes = excluded.runtime_minutes,
             overview = excluded.overview,
             poster_path = excluded.poster_path,
             backdrop_path = excluded.backdrop_path,
             rating = excluded.rating,
             enriched_at = excluded.enriched_at`,
		details.Title,
		titles.Normalize(details.Title),
		nullableInt(details.ReleaseYear),
		nullableString(details.ReleaseDate),
		nullableInt64(details.TMDBID),
		nullableString(details.Director),
		nullableString(strings.Join(details.Genres, ", ")),
		nullableInt(details.RuntimeMin),
		nullableString(details.Overview),
		nullableString(details.PosterPath),
		nullableString(details.BackdropPath),
		nullableFloat(details.Rating),
		enrichedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("save details for %q: %w", details.Title, err)
	}
	return nil
}

// FilmDetails looks up enrichment data for a title. The exact scraped title
// is tried first; a normalized-title match is the fallback. Unknown or
// unenriched films return (nil, nil).
func (s *Store) FilmDetails(ctx context.Context, title string) (*FilmDetails, error) {
	details, err := s.queryFilmDetails(ctx,
		"SELECT "+filmDetailColumns+" FROM films WHERE title = ? AND enriched_at IS NOT NULL",
		title)
	if err != nil || details != nil {
		return details, err
	}
	return s.queryFilmDetails(ctx,
		"SELECT "+filmDetailColumns+" FROM films WHERE normalized_title = ? AND enriched_at IS NOT NULL ORDER BY id LIMIT 1",
		titles.Normalize(title))
}

func (s *Store) queryFilmDetails(ctx context.Context, query string, arg string) (*FilmDetails, error) {
	row := s.db.QueryRowContext(ctx, query, arg)
	details, err := scanFilmDetails(row.Scan)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("query film details: %w", err)
	}
	return details, nil
}

func scanFilmDetails(scan func(dest ...any) error) (*FilmDetails, error) {
	var (
		details      FilmDetails
		year         sql.NullInt64
		releaseDate  sql.NullString
		tmdbID       sql.NullInt64
		director     sql.NullString
		genres       sql.NullString
		runtime      sql.NullInt64
		overview     sql.NullString
		posterPath   sql.NullString
		backdropPath sql.NullString
		rating       sql.NullFloat64
		enrichedAt   sql.NullString
	)
	err := scan(&details.Title, &year, &releaseDate, &tmdbID, &director, &genres,
		&runtime, &overview, &posterPath, &backdropPath, &rating, &enrichedAt)
	if err != nil {
		return nil, err
	}
	details.ReleaseYear = int(year.Int64)
	details.ReleaseDate = releaseDate.String
	details.TMDBID = tmdbID.Int64
	details.Director = director.String
	if genres.Valid && genres.String != "" {
		details.Genres = strings.Split(genres.String, ", ")
	}
	details.RuntimeMin = int(runtime.Int64)
	details.Overview = overview.String
	details.PosterPath = posterPath.String
	details.BackdropPath = backdropPath.String
	details.Rating = rating.Float64
	if enrichedAt.Valid {
		if parsed, parseErr := time.Parse(time.RFC3339, enrichedAt.String); parseErr == nil {
			details.EnrichedAt = parsed
		}
	}
	return &details, nil
}

// UnenrichedTitles returns cached titles that have no TMDB details yet,
// sorted alphabetically.
func (s *Store) UnenrichedTitles(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT title FROM films WHERE enriched_at IS NULL ORDER BY title")
	if err != nil {
		return nil, fmt.Errorf("query unenriched titles: %w", err)
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, fmt.Errorf("scan title: %w", err)
		}
		result = append(result, title)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate unenriched titles: %w", err)
	}
	return result, nil
}

// Filter narrows FilteredWatchlist results. Zero values leave a dimension
// unconstrained.
type Filter struct {
	Year          int
	MinRating     float64
	Genre         string
	TitleContains string
}

// FilteredWatchlist returns the watchlist of username restricted by filter.
// Films lacking the enrichment data a constraint needs are excluded when
// that constraint is set.
func (s *Store) FilteredWatchlist(ctx context.Context, username string, filter Filter) ([]FilmDetails, error) {
	query := "SELECT " + prefixColumns("f", filmDetailColumns) + `
        FROM watchlist_entries e
        JOIN films f ON f.id = e.film_id
        WHERE e.username = ?`
	args := []any{username}
	if filter.Year > 0 {
		query += " AND f.release_year = ?"
		args = append(args, filter.Year)
	}
	if filter.MinRating > 0 {
		query += " AND f.rating >= ?"
		args = append(args, filter.MinRating)
	}
	if filter.Genre != "" {
		query += " AND f.genres LIKE ?"
		args = append(args, "%"+filter.Genre+"%")
	}
	if filter.TitleContains != "" {
		query += " AND f.title LIKE ?"
		args = append(args, "%"+filter.TitleContains+"%")
	}
	query += " ORDER BY f.title"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query filtered watchlist of %s: %w", username, err)
	}
	defer rows.Close()

	var films []FilmDetails
	for rows.Next() {
		details, err := scanFilmDetails(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan filtered film: %w", err)
		}
		films = append(films, *details)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate filtered watchlist of %s: %w", username, err)
	}
	return films, nil
}

func prefixColumns(alias, columns string) string {
	parts := strings.Split(columns, ", ")
	for i, part := range parts {
		parts[i] = alias + "." + part
	}
	return strings.Join(parts, ", ")
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableInt(value int) any {
	if value == 0 {
		return nil
	}
	return value
}

func nullableInt64(value int64) any {
	if value == 0 {
		return nil
	}
	return value
}

func nullableFloat(value float64) any {
	if value == 0 {
		return nil
	}
	return value
}
