// Package logging builds the slog loggers used by the digidub commands and
// the matching engine.
//
// Console output is either a human readable layout or JSON. When a log
// directory is configured, every record is also appended as JSON to a
// size-rotated file. Engine packages never construct loggers themselves:
// they accept an injected *slog.Logger and fall back to NewNop.
package logging
