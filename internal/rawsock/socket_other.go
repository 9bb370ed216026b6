//go:build !linux

package rawsock

import (
	"fmt"
	"runtime"

	"github.com/kangtastic/peapod/internal/pkt"
)

// Open always fails on non-Linux platforms: AF_PACKET, classic BPF
// attach, and PACKET_AUXDATA are Linux-specific facilities this proxy
// depends on for its entire raw socket layer (spec §4.2).
func Open(name string, index int, promiscuous bool) (*Socket, error) {
	return nil, fmt.Errorf("rawsock: raw AF_PACKET sockets are not supported on %s", runtime.GOOS)
}

func (s *Socket) Close() error { return nil }

func (s *Socket) Recv(buf *pkt.Buffer) (RecvResult, error) {
	return RecvResult{}, fmt.Errorf("rawsock: not supported on %s", runtime.GOOS)
}

func (s *Socket) Send(frame []byte) error {
	return fmt.Errorf("rawsock: not supported on %s", runtime.GOOS)
}

func (s *Socket) SetHWAddr(addr [6]byte) error {
	return fmt.Errorf("rawsock: not supported on %s", runtime.GOOS)
}

func MTU(name string) (int, error) {
	return 0, fmt.Errorf("rawsock: not supported on %s", runtime.GOOS)
}
