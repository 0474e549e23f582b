// Package logging assembles the structured slog loggers used across
// flacfixer components.
//
// It owns the configurable console/JSON handlers and centralizes level and
// output plumbing so the rewrite engine, runner, and ledger emit log lines
// with the same shape. The package also provides a no-op logger for tests
// and wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup.
package logging
