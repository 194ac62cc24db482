// Package logging assembles the structured slog loggers used across the
// recognition core.
//
// It owns the console/JSON handler selection, centralizes level and output
// plumbing, and exposes typed attribute helpers so pipeline and provider
// code tag log lines consistently (component, recognition ID, stage). A
// no-op logger is provided for tests and wiring code that cannot fail.
package logging
