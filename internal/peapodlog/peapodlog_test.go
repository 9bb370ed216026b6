package peapodlog

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/kangtastic/peapod/internal"
)

func TestLevelFor(t *testing.T) {
	cases := []struct {
		verbosity int
		want      slog.Level
	}{
		{0, slog.LevelWarn},
		{1, slog.LevelInfo},
		{2, slog.LevelDebug},
		{3, internal.LevelTrace},
		{5, internal.LevelTrace},
	}
	for _, c := range cases {
		if got := LevelFor(c.verbosity); got != c.want {
			t.Errorf("LevelFor(%d) = %v, want %v", c.verbosity, got, c.want)
		}
	}
}

func TestConsoleHandlerNoColor(t *testing.T) {
	var buf bytes.Buffer
	h := newConsoleHandler(&buf, slog.LevelInfo, false)
	logger := slog.New(h)
	logger.Info("hello", "key", "value")

	out := buf.String()
	if strings.Contains(out, "\x1b[") {
		t.Errorf("expected no ANSI codes, got %q", out)
	}
	if !strings.Contains(out, "hello") || !strings.Contains(out, "key=value") {
		t.Errorf("unexpected output: %q", out)
	}
}

func TestConsoleHandlerColor(t *testing.T) {
	var buf bytes.Buffer
	h := newConsoleHandler(&buf, slog.LevelInfo, true)
	logger := slog.New(h)
	logger.Warn("careful")

	if !strings.Contains(buf.String(), "\x1b[") {
		t.Error("expected ANSI color codes when color is enabled")
	}
}
