// Package eapol decodes IEEE 802.1X EAPOL frames: the EAPOL header, and,
// for EAPOL-EAP packets, the EAP header it encapsulates. See spec §4.3.
package eapol

import (
	"encoding/binary"
	"errors"
	"strconv"

	"github.com/kangtastic/peapod/ethernet"
)

// EtherType is the Ethernet EtherType value (0x888E) that identifies an
// EAPOL frame, reusing the teacher's own EtherType table rather than
// restating the constant.
const EtherType = uint16(ethernet.TypeIEEE802_1X)

// Type is the one-byte Packet Type field of the EAPOL header.
type Type uint8

// Recognised EAPOL Packet Types (IEEE 802.1X-2010 §11.3.2), values 0..8.
const (
	TypeEAP                  Type = 0
	TypeStart                Type = 1
	TypeLogoff               Type = 2
	TypeKey                  Type = 3
	TypeEncapsulatedASFAlert Type = 4
	TypeMKA                  Type = 5
	TypeAnnouncementGeneric  Type = 6
	TypeAnnouncementSpecific Type = 7
	TypeAnnouncementReq      Type = 8
)

// NumTypes is one past the highest recognised Packet Type; filter masks
// and action tables are indexed [0, NumTypes).
const NumTypes = 9

var typeNames = [NumTypes]string{
	TypeEAP:                  "EAP-Packet",
	TypeStart:                "EAPOL-Start",
	TypeLogoff:               "EAPOL-Logoff",
	TypeKey:                  "EAPOL-Key",
	TypeEncapsulatedASFAlert: "EAPOL-Encapsulated-ASF-Alert",
	TypeMKA:                  "EAPOL-MKA",
	TypeAnnouncementGeneric:  "EAPOL-Announcement (Generic)",
	TypeAnnouncementSpecific: "EAPOL-Announcement (Specific)",
	TypeAnnouncementReq:      "EAPOL-Announcement-Req",
}

// String renders the Packet Type by name, or its numeric value if
// unrecognised; unknown types are still proxied unless filtered.
func (t Type) String() string {
	if int(t) < len(typeNames) && typeNames[t] != "" {
		return typeNames[t]
	}
	return "EAPOL-Type(" + strconv.Itoa(int(t)) + ")"
}

// Code is the one-byte Code field of an EAP header.
type Code uint8

// Recognised EAP Codes.
const (
	CodeRequest  Code = 1
	CodeResponse Code = 2
	CodeSuccess  Code = 3
	CodeFailure  Code = 4
)

// NumCodes is one past the highest recognised EAP Code; index 0 is
// unused, matching the action-table/filter-mask layout of spec §3.
const NumCodes = 5

var codeNames = [NumCodes]string{
	CodeRequest:  "Request",
	CodeResponse: "Response",
	CodeSuccess:  "Success",
	CodeFailure:  "Failure",
}

// String renders the EAP Code by name, or its numeric value if
// unrecognised.
func (c Code) String() string {
	if int(c) < len(codeNames) && codeNames[c] != "" {
		return codeNames[c]
	}
	return "EAP-Code(" + strconv.Itoa(int(c)) + ")"
}

var (
	// ErrShortHeader is returned when a PDU is too short to contain an
	// EAPOL header (protocol version, packet type, body length).
	ErrShortHeader = errors.New("eapol: PDU shorter than header")
	// ErrShortEAP is returned when an EAPOL-EAP body is too short to
	// contain an EAP header (code, identifier, length).
	ErrShortEAP = errors.New("eapol: EAP body shorter than header")
)

const headerLen = 4

// Header is the fixed EAPOL header: protocol version, packet type, and
// the length of the body that follows.
type Header struct {
	Version    uint8
	Type       Type
	BodyLength uint16
}

// ParseHeader decodes the 4-byte EAPOL header from pdu and returns it
// along with the remaining body bytes.
func ParseHeader(pdu []byte) (Header, []byte, error) {
	if len(pdu) < headerLen {
		return Header{}, nil, ErrShortHeader
	}
	h := Header{
		Version:    pdu[0],
		Type:       Type(pdu[1]),
		BodyLength: binary.BigEndian.Uint16(pdu[2:4]),
	}
	return h, pdu[headerLen:], nil
}

const eapHeaderLen = 4

// EAP is the decoded EAP header carried inside an EAPOL-EAP packet's
// body. ReqRespType is only meaningful when Code is CodeRequest or
// CodeResponse, which is why HasReqRespType is reported separately: a
// Request/Response shorter than 5 bytes still decodes (Length may be the
// full, undelivered story), it just carries no Type octet.
type EAP struct {
	Code           Code
	ID             uint8
	Length         uint16
	ReqRespType    uint8
	HasReqRespType bool
}

// ParseEAP decodes an EAP header from an EAPOL-EAP packet's body.
func ParseEAP(body []byte) (EAP, error) {
	if len(body) < eapHeaderLen {
		return EAP{}, ErrShortEAP
	}
	e := EAP{
		Code:   Code(body[0]),
		ID:     body[1],
		Length: binary.BigEndian.Uint16(body[2:4]),
	}
	if (e.Code == CodeRequest || e.Code == CodeResponse) && len(body) >= eapHeaderLen+1 {
		e.ReqRespType = body[eapHeaderLen]
		e.HasReqRespType = true
	}
	return e, nil
}
