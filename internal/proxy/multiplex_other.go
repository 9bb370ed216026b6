//go:build unix && !linux

package proxy

import (
	"fmt"
	"runtime"
)

// pollMultiplexer is the non-Linux unix stand-in; epoll(7) is
// Linux-specific and this program has no BSD kqueue or other platform
// backend, so newMultiplexer always reports a startup failure (spec
// §2 Init's "register all sockets with the multiplexer" is a hard
// precondition for Run).
type pollMultiplexer struct{}

func newMultiplexer() (multiplexer, error) {
	return nil, fmt.Errorf("proxy: no multiplexer implementation for %s", runtime.GOOS)
}

func (m *pollMultiplexer) WakeWriteFD() int { return -1 }
func (m *pollMultiplexer) Register(fd int) error {
	return fmt.Errorf("proxy: unsupported")
}
func (m *pollMultiplexer) Wait() ([]Event, bool, error) {
	return nil, false, fmt.Errorf("proxy: unsupported")
}
func (m *pollMultiplexer) Close() error { return nil }
