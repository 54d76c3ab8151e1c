// Package logging assembles the structured slog loggers shared by watchmate
// components.
//
// It owns the console and JSON handlers, centralizes level and output
// plumbing, and defines the standardized attribute keys (component, username,
// session_id, event_type) so every component emits records with the same
// shape. A no-op logger is provided for tests and wiring code that cannot
// fail.
package logging
