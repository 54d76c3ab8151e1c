// Package config loads, validates, and persists watchmate configuration.
//
// Configuration lives in a TOML file (default ~/.config/watchmate/config.toml,
// with ./watchmate.toml as a project-local fallback). Load applies repository
// defaults, decodes the file over them, expands ~ in paths, and validates the
// result. Save writes the current configuration back for the explicit
// remember-user and friend-selection actions.
package config
