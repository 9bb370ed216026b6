//go:build !unix

// Package proxy implements the event loop of spec §4.6. Raw AF_PACKET
// sockets and epoll are POSIX facilities; this file is the stand-in on
// platforms without them, mirroring internal/rawsock and
// internal/pidfile's own unix-only/stub split.
package proxy

import (
	"errors"
	"log/slog"
	"runtime"

	"github.com/kangtastic/peapod/internal/ifacetable"
)

type Options struct {
	Oneshot     bool
	QuietScript bool
	Logger      *slog.Logger
}

type BuildRecords func() (*ifacetable.Table, error)

func OpenSockets(table *ifacetable.Table) (int, error) {
	return 0, errors.New("proxy: not supported on " + runtime.GOOS)
}

func Loop(opts Options, buildTable BuildRecords) error {
	return errors.New("proxy: not supported on " + runtime.GOOS)
}
