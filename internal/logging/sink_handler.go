package logging

import (
	"context"
	"log/slog"
)

// sinkHandler writes each record to the console and, when a log directory is
// configured, to the rotated JSON file. Each sink filters on its own level.
type sinkHandler struct {
	console slog.Handler
	file    slog.Handler
}

// newSinkHandler returns console alone when there is no file sink.
func newSinkHandler(console, file slog.Handler) slog.Handler {
	switch {
	case console == nil && file == nil:
		return NoopHandler{}
	case file == nil:
		return console
	case console == nil:
		return file
	}
	return &sinkHandler{console: console, file: file}
}

func (h *sinkHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.console.Enabled(ctx, level) || h.file.Enabled(ctx, level)
}

func (h *sinkHandler) Handle(ctx context.Context, record slog.Record) error {
	var consoleErr error
	if h.console.Enabled(ctx, record.Level) {
		// The console handler may consume attributes; the file gets the original.
		consoleErr = h.console.Handle(ctx, record.Clone())
	}
	if h.file.Enabled(ctx, record.Level) {
		if err := h.file.Handle(ctx, record); err != nil {
			return err
		}
	}
	return consoleErr
}

func (h *sinkHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &sinkHandler{console: h.console.WithAttrs(attrs), file: h.file.WithAttrs(attrs)}
}

func (h *sinkHandler) WithGroup(name string) slog.Handler {
	return &sinkHandler{console: h.console.WithGroup(name), file: h.file.WithGroup(name)}
}
