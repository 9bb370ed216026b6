package peapodlog

import (
	"context"
	"log/slog"
)

// multiHandlerSlice fans a record out to every handler in the slice,
// used when both a log file and syslog are configured simultaneously.
type multiHandlerSlice []slog.Handler

func multiHandler(handlers []slog.Handler) slog.Handler {
	return multiHandlerSlice(handlers)
}

func (m multiHandlerSlice) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m multiHandlerSlice) Handle(ctx context.Context, r slog.Record) error {
	var firstErr error
	for _, h := range m {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (m multiHandlerSlice) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make(multiHandlerSlice, len(m))
	for i, h := range m {
		out[i] = h.WithAttrs(attrs)
	}
	return out
}

func (m multiHandlerSlice) WithGroup(name string) slog.Handler {
	out := make(multiHandlerSlice, len(m))
	for i, h := range m {
		out[i] = h.WithGroup(name)
	}
	return out
}
