//go:build !linux && !darwin

package peapodlog

import (
	"errors"
	"log/slog"
)

func newSyslogHandler(level slog.Level) (slog.Handler, func() error, error) {
	return nil, nil, errors.New("peapodlog: syslog is not supported on this platform")
}
