// Package logging assembles structured slog loggers and formatting helpers used
// across m4b-tools commands.
//
// It owns the configurable console/JSON handlers, tees output into an
// optional JSON log file, stamps every record with the invocation's run ID,
// and exposes context-aware helpers so pipeline code can tag log lines with
// the active operation and file. The package also provides a no-op logger
// for tests and wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so every component
// emits records with the same shape.
package logging
