// Package pkt holds the in-memory representation of an EAPOL frame (the
// packet view) and the single scratch buffer a proxy session reuses for
// every frame it relays. See spec §3 and §4.1.
package pkt

import "github.com/kangtastic/peapod/internal"

const (
	ethAddrLen = 6
	vlanTagLen = 4 // TPID (2) + TCI (2)
	etherTypeLen = 2
)

// HeaderReserve is the number of scratch bytes reserved at the front of a
// Buffer for the destination/source MAC pair and an optional 802.1Q tag,
// reconstructed on demand immediately before a frame is sent. Bytes
// [HeaderReserve:HeaderReserve+2) hold the EAPOL EtherType, and the PDU
// follows.
const HeaderReserve = 2*ethAddrLen + vlanTagLen // 16

// Buffer is the single scratch region a proxy session allocates once, sized
// for the largest configured interface MTU, and reuses for every frame it
// relays. It is logically partitioned as described in spec §4.1:
//
//	[0..12)  scratch for reconstructed destination+source MAC
//	[12..16) scratch for reconstructed 802.1Q tag (TPID 0x8100 + TCI)
//	[16..18) EAPOL EtherType 0x888E
//	[18..)   EAPOL PDU (version, type, body length, body)
//
// The MAC pair and any VLAN tag are written into bytes [0:16) by FrameStart
// immediately before a send (the MAC pair at [0:12) and the tag at [12:16)
// for a tagged frame, the MAC pair alone at [4:16) for an untagged one), so
// the same PDU bytes can be shipped to every egress interface with only the
// header prefix changing per interface.
type Buffer struct {
	mtu int
	buf []byte
}

// NewBuffer allocates a Buffer sized for the given interface MTU.
func NewBuffer(mtu int) *Buffer {
	return &Buffer{mtu: mtu, buf: make([]byte, HeaderReserve+etherTypeLen+mtu)}
}

// MTU returns the MTU the Buffer was sized for.
func (b *Buffer) MTU() int { return b.mtu }

// PDU returns the region starting at the EAPOL EtherType field (offset 16),
// sized mtu+2, that a receive fills with EtherType+PDU bytes straight off
// the wire.
func (b *Buffer) PDU() []byte { return b.buf[HeaderReserve : HeaderReserve+etherTypeLen+b.mtu] }

// EtherType returns the 2-byte EtherType field of the last received frame.
func (b *Buffer) EtherType() []byte { return b.buf[HeaderReserve : HeaderReserve+etherTypeLen] }

// Body returns the EAPOL PDU bytes (version, type, body length, body)
// following the EtherType field, limited to n bytes.
func (b *Buffer) Body(n int) []byte {
	start := HeaderReserve + etherTypeLen
	if n < 0 {
		n = 0
	}
	if start+n > len(b.buf) {
		n = len(b.buf) - start
	}
	return b.buf[start : start+n]
}

// FrameStart writes the destination/source MAC pair, and an optional
// 802.1Q tag, into the HeaderReserve bytes immediately preceding the PDU
// region, then returns a single contiguous slice of v.Length()
// (or v.OriginalLength() when useOriginal is true) bytes suitable for one
// atomic write to a raw socket. See spec §4.1's "frame_start" contract.
//
// When a tag must be written, the MAC pair occupies [0:12) and the tag
// [12:16), filling the 16-byte prefix; when it must not, the MAC pair is shifted 4 bytes later,
// to [4:16), so the bytes immediately preceding the EtherType field are
// contiguous without the tag. This lets a single Buffer support both
// framings without reallocating or moving the PDU.
func (b *Buffer) FrameStart(v *View, useOriginal bool) []byte {
	vlanPresent := v.VLANPresent
	tci := v.TCI
	length := v.Length
	if useOriginal {
		vlanPresent = v.VLANPresentOriginal
		tci = v.TCIOriginal
		length = v.OriginalLength
	}

	if vlanPresent {
		internal.SetDestHWAddr(b.buf[0:6], v.Dest)
		internal.SetSrcHWAddr(b.buf[0:12], v.Source)
		putUint16BE(b.buf[12:14], tpid8021Q)
		putUint16BE(b.buf[14:16], tci.Encode())
		return b.buf[0:length]
	}

	const shift = 4
	internal.SetDestHWAddr(b.buf[shift:shift+6], v.Dest)
	internal.SetSrcHWAddr(b.buf[shift:shift+12], v.Source)
	return b.buf[shift : shift+length]
}

const tpid8021Q = 0x8100

func putUint16BE(dst []byte, v uint16) {
	dst[0] = byte(v >> 8)
	dst[1] = byte(v)
}
