package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeProfile()
	c.normalizeLetterboxd()
	c.normalizeTMDB()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Cache.Path) == "" {
		c.Cache.Path = defaultCachePath
	}
	if c.Cache.Path, err = expandPath(c.Cache.Path); err != nil {
		return fmt.Errorf("cache.path: %w", err)
	}
	if strings.TrimSpace(c.Logging.Dir) != "" {
		if c.Logging.Dir, err = expandPath(c.Logging.Dir); err != nil {
			return fmt.Errorf("logging.dir: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeProfile() {
	c.Profile.Username = strings.TrimSpace(c.Profile.Username)
	c.Profile.Theme = strings.ToLower(strings.TrimSpace(c.Profile.Theme))
	if c.Profile.Theme == "" {
		c.Profile.Theme = defaultTheme
	}
	friends := make([]string, 0, len(c.Profile.SelectedFriends))
	for _, friend := range c.Profile.SelectedFriends {
		if friend = strings.TrimSpace(friend); friend != "" {
			friends = append(friends, friend)
		}
	}
	c.Profile.SelectedFriends = friends
}

func (c *Config) normalizeLetterboxd() {
	c.Letterboxd.BaseURL = strings.TrimRight(strings.TrimSpace(c.Letterboxd.BaseURL), "/")
	if c.Letterboxd.BaseURL == "" {
		c.Letterboxd.BaseURL = defaultBaseURL
	}
	if strings.TrimSpace(c.Letterboxd.UserAgent) == "" {
		c.Letterboxd.UserAgent = defaultUserAgent
	}
	if c.Letterboxd.RequestTimeout <= 0 {
		c.Letterboxd.RequestTimeout = defaultRequestTimeout
	}
	if c.Letterboxd.PageDelayMinMS <= 0 {
		c.Letterboxd.PageDelayMinMS = defaultPageDelayMinMS
	}
	if c.Letterboxd.PageDelayMaxMS < c.Letterboxd.PageDelayMinMS {
		c.Letterboxd.PageDelayMaxMS = c.Letterboxd.PageDelayMinMS
	}
	if c.Letterboxd.LargeThreshold <= 0 {
		c.Letterboxd.LargeThreshold = defaultLargeThreshold
	}
	if c.Letterboxd.LargeLimit <= 0 {
		c.Letterboxd.LargeLimit = defaultLargeLimit
	}
}

func (c *Config) normalizeTMDB() {
	if key, ok := os.LookupEnv("TMDB_API_KEY"); ok && strings.TrimSpace(c.TMDB.APIKey) == "" {
		c.TMDB.APIKey = strings.TrimSpace(key)
	}
	c.TMDB.BaseURL = strings.TrimRight(strings.TrimSpace(c.TMDB.BaseURL), "/")
	if c.TMDB.BaseURL == "" {
		c.TMDB.BaseURL = defaultTMDBBaseURL
	}
	if strings.TrimSpace(c.TMDB.Language) == "" {
		c.TMDB.Language = defaultTMDBLanguage
	}
	if c.TMDB.Workers <= 0 {
		c.TMDB.Workers = defaultTMDBWorkers
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNtfyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
