package main

import (
	"log/slog"

	"github.com/kangtastic/peapod/internal/peapodlog"
)

func newLogger(logFile string, syslog bool, verbosity int, noColor, daemon bool) (*slog.Logger, func() error, error) {
	return peapodlog.New(peapodlog.Options{
		LogFilePath: logFile,
		Syslog:      syslog,
		Verbosity:   verbosity,
		NoColor:     noColor,
		Daemon:      daemon,
	})
}
