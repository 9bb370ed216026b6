package pkt

import (
	"time"

	"github.com/kangtastic/peapod/internal/eapol"
)

// TCI is the three-field decomposition of an 802.1Q Tag Control
// Information value: Priority Code Point, Drop Eligible Indicator, and
// VLAN Identifier. See spec GLOSSARY.
type TCI struct {
	PCP uint8  // 0..7
	DEI uint8  // 0..1
	VID uint16 // 0..4094
}

// Encode packs the three fields back into the 16-bit wire representation:
// PCP in bits 15..13, DEI in bit 12, VID in bits 11..0.
func (t TCI) Encode() uint16 {
	return uint16(t.PCP&0x7)<<13 | uint16(t.DEI&0x1)<<12 | t.VID&0x0FFF
}

// DecodeTCI unpacks a 16-bit wire TCI value into its three fields.
func DecodeTCI(v uint16) TCI {
	return TCI{
		PCP: uint8(v >> 13 & 0x7),
		DEI: uint8(v >> 12 & 0x1),
		VID: v & 0x0FFF,
	}
}

// InterfaceRef is a lightweight, value-typed reference to a configured
// interface, carrying just enough to log and to populate script
// environment variables without the packet view needing to hold a pointer
// into the interface table.
type InterfaceRef struct {
	Name string
	MTU  int
}

// View is constructed once per received frame and may be copied by value
// and mutated per egress interface: the egress rewrite stage recomputes
// the Current* fields from the Original* fields on a fresh copy, as
// required by spec §3 ("the record is copied by value before egress
// mutation"). Because View holds no heap references of its own (only
// fixed-size arrays and value types), a plain Go struct assignment
// performs that copy.
type View struct {
	Timestamp time.Time

	Ingress InterfaceRef
	Current InterfaceRef

	Dest, Source [6]byte

	Length, OriginalLength int

	VLANPresent, VLANPresentOriginal bool
	TCI, TCIOriginal                 TCI

	EAPOLType eapol.Type

	HasEAPCode bool
	EAPCode    eapol.Code
	EAPID      uint8

	HasEAPReqRespType bool
	EAPReqRespType    uint8
}

// ResetForEgress returns a copy of v with Current set to iface and the
// current/mutable fields (Length, VLANPresent, TCI) restored to their
// original, as-received values. Callers then apply that egress
// interface's 802.1Q rewrite directive to the copy. See spec §4.4.
func (v View) ResetForEgress(iface InterfaceRef) View {
	v.Current = iface
	v.Length = v.OriginalLength
	v.VLANPresent = v.VLANPresentOriginal
	v.TCI = v.TCIOriginal
	return v
}

// ApplyClassification copies a classifier result into the view's
// Type/Code/ID fields.
func (v *View) ApplyClassification(r eapol.Result) {
	v.EAPOLType = r.Type.Type
	v.HasEAPCode = r.HasEAP
	v.EAPCode = r.EAP.Code
	v.EAPID = r.EAP.ID
	v.HasEAPReqRespType = r.EAP.HasReqRespType
	v.EAPReqRespType = r.EAP.ReqRespType
}
