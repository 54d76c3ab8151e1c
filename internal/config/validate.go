package config

import (
	"errors"
	"fmt"
	"net/url"
)

// Validate ensures the configuration is usable. The TMDB API key is
// deliberately not required: enrichment degrades to a no-op without one.
func (c *Config) Validate() error {
	if err := c.validateLetterboxd(); err != nil {
		return err
	}
	if err := c.validateTMDB(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateLetterboxd() error {
	parsed, err := url.Parse(c.Letterboxd.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("letterboxd.base_url %q is not an absolute URL", c.Letterboxd.BaseURL)
	}
	if c.Letterboxd.PageDelayMaxMS < c.Letterboxd.PageDelayMinMS {
		return errors.New("letterboxd.page_delay_max_ms must be >= page_delay_min_ms")
	}
	return nil
}

func (c *Config) validateTMDB() error {
	parsed, err := url.Parse(c.TMDB.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("tmdb.base_url %q is not an absolute URL", c.TMDB.BaseURL)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
