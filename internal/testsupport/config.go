package testsupport

import (
	"path/filepath"
	"testing"

	"watchmate/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp paths per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Profile.Username = "cinephile"
	cfg.Cache.Path = filepath.Join(base, "watchmate.db")
	cfg.Logging.Dir = filepath.Join(base, "logs")
	cfg.Letterboxd.PageDelayMinMS = 1
	cfg.Letterboxd.PageDelayMaxMS = 1

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithTMDBKey sets the TMDB API key on the test config.
func WithTMDBKey(key string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.TMDB.APIKey = key
	}
}

// WithBaseURL points the Letterboxd client at a test server.
func WithBaseURL(url string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Letterboxd.BaseURL = url
	}
}
