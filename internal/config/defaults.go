package config

const (
	defaultBaseURL        = "https://letterboxd.com"
	defaultUserAgent      = "Mozilla/5.0 (compatible; WatchmateBot/1.0; +https://github.com/watchmate/watchmate)"
	defaultRequestTimeout = 10
	defaultPageDelayMinMS = 1000
	defaultPageDelayMaxMS = 1500
	defaultLargeThreshold = 500
	defaultLargeLimit     = 500
	defaultTMDBBaseURL    = "https://api.themoviedb.org/3"
	defaultTMDBLanguage   = "en-US"
	defaultTMDBWorkers    = 4
	defaultCachePath      = "~/.local/share/watchmate/watchmate.db"
	defaultNtfyTimeout    = 10
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
	defaultLogDir         = "~/.local/share/watchmate/logs"
	defaultTheme          = "dark"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Profile: Profile{
			Theme: defaultTheme,
		},
		Letterboxd: Letterboxd{
			BaseURL:        defaultBaseURL,
			UserAgent:      defaultUserAgent,
			RequestTimeout: defaultRequestTimeout,
			PageDelayMinMS: defaultPageDelayMinMS,
			PageDelayMaxMS: defaultPageDelayMaxMS,
			LargeThreshold: defaultLargeThreshold,
			LargeLimit:     defaultLargeLimit,
		},
		TMDB: TMDB{
			BaseURL:  defaultTMDBBaseURL,
			Language: defaultTMDBLanguage,
			Workers:  defaultTMDBWorkers,
		},
		Cache: Cache{
			Path: defaultCachePath,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
			Dir:    defaultLogDir,
		},
	}
}
