package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"watchmate/internal/config"
)

func TestLoadDefaultsUsesEnvTMDBKeyAndExpandsPaths(t *testing.T) {
	t.Setenv("TMDB_API_KEY", "env-key")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantCache := filepath.Join(tempHome, ".local", "share", "watchmate", "watchmate.db")
	if cfg.Cache.Path != wantCache {
		t.Fatalf("unexpected cache path: got %q want %q", cfg.Cache.Path, wantCache)
	}
	if cfg.TMDB.APIKey != "env-key" {
		t.Fatalf("expected TMDB key from env, got %q", cfg.TMDB.APIKey)
	}
	if cfg.Letterboxd.BaseURL != "https://letterboxd.com" {
		t.Fatalf("unexpected base url: %q", cfg.Letterboxd.BaseURL)
	}
	if cfg.Letterboxd.LargeThreshold != 500 || cfg.Letterboxd.LargeLimit != 500 {
		t.Fatalf("unexpected large-watchlist defaults: %d/%d", cfg.Letterboxd.LargeThreshold, cfg.Letterboxd.LargeLimit)
	}
	if cfg.Letterboxd.PageDelayMinMS != 1000 || cfg.Letterboxd.PageDelayMaxMS != 1500 {
		t.Fatalf("unexpected politeness delay defaults: %d/%d", cfg.Letterboxd.PageDelayMinMS, cfg.Letterboxd.PageDelayMaxMS)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults: %s/%s", cfg.Logging.Format, cfg.Logging.Level)
	}
}

func TestLoadParsesFileAndNormalizes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	contents := strings.Join([]string{
		`[profile]`,
		`username = "  cinephile42  "`,
		`remember = true`,
		`selected_friends = ["alice", "  ", "bob"]`,
		``,
		`[letterboxd]`,
		`base_url = "https://letterboxd.example/"`,
		`page_delay_min_ms = 200`,
		``,
		`[cache]`,
		`path = "` + filepath.Join(dir, "cache.db") + `"`,
	}, "\n")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected config at %q to be used, got %q exists=%v", path, resolved, exists)
	}
	if cfg.Profile.Username != "cinephile42" {
		t.Fatalf("expected trimmed username, got %q", cfg.Profile.Username)
	}
	if len(cfg.Profile.SelectedFriends) != 2 {
		t.Fatalf("expected blank friend entries dropped, got %v", cfg.Profile.SelectedFriends)
	}
	if cfg.Letterboxd.BaseURL != "https://letterboxd.example" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Letterboxd.BaseURL)
	}
	// Max delay below min gets clamped up to min.
	if cfg.Letterboxd.PageDelayMaxMS != 1500 && cfg.Letterboxd.PageDelayMaxMS < cfg.Letterboxd.PageDelayMinMS {
		t.Fatalf("expected max delay >= min delay, got %d < %d", cfg.Letterboxd.PageDelayMaxMS, cfg.Letterboxd.PageDelayMinMS)
	}
}

func TestLoadRejectsInvalidLogFormat(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte("[logging]\nformat = \"xml\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected error for unsupported log format")
	}
}

func TestSaveRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.toml")

	cfg := config.Default()
	cfg.Profile.Username = "cinephile42"
	cfg.Profile.Remember = true
	cfg.Profile.SelectedFriends = []string{"alice", "bob"}
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save returned error: %v", err)
	}

	loaded, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected saved config to exist")
	}
	if loaded.Profile.Username != "cinephile42" || !loaded.Profile.Remember {
		t.Fatalf("unexpected profile after round trip: %+v", loaded.Profile)
	}
	if len(loaded.Profile.SelectedFriends) != 2 {
		t.Fatalf("unexpected friends after round trip: %v", loaded.Profile.SelectedFriends)
	}
}

func TestCreateSampleWritesParseableConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	if _, _, _, err := config.Load(path); err != nil {
		t.Fatalf("sample config failed to load: %v", err)
	}
}
