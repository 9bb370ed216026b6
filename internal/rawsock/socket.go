// Package rawsock implements the raw link-layer socket primitives of
// spec §4.2: socket creation and binding, BPF attach, multicast/
// promiscuous membership, auxiliary-data receive for VLAN recovery, and
// MAC-address mutation via the classic down/set/up ioctl cycle.
package rawsock

import (
	"errors"
	"time"

	"github.com/kangtastic/peapod/internal/pkt"
)

// Group addresses joined as multicast memberships unless the interface
// is promiscuous (spec §4.2 item 4).
var GroupAddrs = [3][6]byte{
	{0x01, 0x80, 0xC2, 0x00, 0x00, 0x00},
	{0x01, 0x80, 0xC2, 0x00, 0x00, 0x03},
	{0x01, 0x80, 0xC2, 0x00, 0x00, 0x0E},
}

// minFrameLen is the minimum Ethernet frame length excluding FCS (spec
// §4.2: "length < 60 ... yields a distinguished 'runt' result").
const minFrameLen = 60

// ErrRunt is returned by Recv when the received frame is shorter than
// the Ethernet minimum; the caller must drop the frame.
var ErrRunt = errors.New("rawsock: runt frame")

// ErrGiant is returned by Recv when auxiliary data reports a true
// length exceeding the PDU buffer's capacity; the caller must drop the
// frame.
var ErrGiant = errors.New("rawsock: giant frame")

// RecvResult is everything Recv fills in on a successful, non-dropped
// receive: enough to populate a fresh pkt.View.
type RecvResult struct {
	Dest, Source [6]byte
	Length       int
	VLANPresent  bool
	TCI          pkt.TCI
	Timestamp    time.Time
	BodyLen      int // length of the EAPOL PDU itself, excluding EtherType
}

// Socket is one interface's raw AF_PACKET socket. The zero value is not
// usable; construct with Open.
type Socket struct {
	fd    int
	name  string
	index int
}

// Name returns the bound interface's name.
func (s *Socket) Name() string { return s.name }

// Index returns the bound interface's kernel index.
func (s *Socket) Index() int { return s.index }

// Fd returns the underlying socket file descriptor, for registration
// with the event loop's epoll instance.
func (s *Socket) Fd() int { return s.fd }
