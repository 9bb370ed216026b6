//go:build linux || darwin

package peapodlog

import (
	"context"
	"fmt"
	"log/slog"
	"log/syslog"
)

// syslogHandler fans slog records out to a log/syslog.Writer, mapping
// slog levels to syslog priorities. Used with --syslog (spec §6).
type syslogHandler struct {
	w     *syslog.Writer
	level slog.Level
	attrs []slog.Attr
}

func newSyslogHandler(level slog.Level) (slog.Handler, func() error, error) {
	w, err := syslog.New(syslog.LOG_DAEMON|syslog.LOG_INFO, "peapod")
	if err != nil {
		return nil, nil, err
	}
	h := &syslogHandler{w: w, level: level}
	return h, w.Close, nil
}

func (h *syslogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *syslogHandler) Handle(_ context.Context, r slog.Record) error {
	msg := r.Message
	for _, a := range h.attrs {
		msg += fmt.Sprintf(" %s=%v", a.Key, a.Value)
	}
	r.Attrs(func(a slog.Attr) bool {
		msg += fmt.Sprintf(" %s=%v", a.Key, a.Value)
		return true
	})

	switch {
	case r.Level >= slog.LevelError:
		return h.w.Err(msg)
	case r.Level >= slog.LevelWarn:
		return h.w.Warning(msg)
	case r.Level >= slog.LevelInfo:
		return h.w.Info(msg)
	default:
		return h.w.Debug(msg)
	}
}

func (h *syslogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	n := *h
	n.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &n
}

func (h *syslogHandler) WithGroup(string) slog.Handler { return h }
