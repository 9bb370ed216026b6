package pkt

import (
	"bytes"
	"testing"
)

func newView(dst, src [6]byte) View {
	return View{Dest: dst, Source: src}
}

func TestFrameStartUntagged(t *testing.T) {
	buf := NewBuffer(1500)
	body := []byte{0x02, 0x01, 0x00, 0x00} // EAPOL v2 Start, empty body
	copy(buf.PDU(), append([]byte{0x88, 0x8e}, body...))

	v := newView([6]byte{0x01, 0x80, 0xc2, 0, 0, 0x03}, [6]byte{0, 0x11, 0x22, 0x33, 0x44, 0x55})
	v.Length = 18
	v.OriginalLength = 18

	got := buf.FrameStart(&v, false)
	want := []byte{
		0x01, 0x80, 0xc2, 0, 0, 0x03, // dest
		0x00, 0x11, 0x22, 0x33, 0x44, 0x55, // src
		0x88, 0x8e, // ethertype
		0x02, 0x01, 0x00, 0x00, // body
	}
	if !bytes.Equal(got, want) {
		t.Errorf("got % x want % x", got, want)
	}
}

func TestFrameStartTagged(t *testing.T) {
	buf := NewBuffer(1500)
	body := []byte{0x02, 0x01, 0x00, 0x00}
	copy(buf.PDU(), append([]byte{0x88, 0x8e}, body...))

	v := newView([6]byte{1, 2, 3, 4, 5, 6}, [6]byte{6, 5, 4, 3, 2, 1})
	v.VLANPresent = true
	v.TCI = TCI{PCP: 5, DEI: 0, VID: 10}
	v.Length = 22

	got := buf.FrameStart(&v, false)
	want := []byte{
		1, 2, 3, 4, 5, 6,
		6, 5, 4, 3, 2, 1,
		0x81, 0x00, // TPID
		0xa0, 0x0a, // TCI: pcp=5 dei=0 vid=10
		0x88, 0x8e,
		0x02, 0x01, 0x00, 0x00,
	}
	if !bytes.Equal(got, want) {
		t.Errorf("got % x want % x", got, want)
	}
}

func TestTCIEncodeDecode(t *testing.T) {
	tci := TCI{PCP: 7, DEI: 1, VID: 4094}
	enc := tci.Encode()
	if got := DecodeTCI(enc); got != tci {
		t.Errorf("round-trip mismatch: got %+v want %+v", got, tci)
	}
}

func TestResetForEgressRestoresOriginal(t *testing.T) {
	v := View{
		OriginalLength:      18,
		VLANPresentOriginal: false,
		TCIOriginal:         TCI{},
		Length:              22,
		VLANPresent:         true,
		TCI:                 TCI{PCP: 5, VID: 10},
	}
	v2 := v.ResetForEgress(InterfaceRef{Name: "b", MTU: 1500})
	if v2.Length != 18 || v2.VLANPresent || v2.TCI != (TCI{}) {
		t.Errorf("expected restored original fields, got %+v", v2)
	}
	if v2.Current.Name != "b" {
		t.Errorf("expected Current set to egress interface")
	}
}
