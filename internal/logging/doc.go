// Package logging builds the slog loggers used across pairkeep and provides
// typed attribute helpers plus context-derived structured fields.
package logging
