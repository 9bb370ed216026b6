package config

import "github.com/kangtastic/peapod/internal/eapol"

// typeTokens maps the nine EAPOL Packet Type grammar tokens to their
// numeric values (spec §6.1).
var typeTokens = map[string]eapol.Type{
	"eap":                   eapol.TypeEAP,
	"start":                 eapol.TypeStart,
	"logoff":                eapol.TypeLogoff,
	"key":                   eapol.TypeKey,
	"encap-asf-alert":       eapol.TypeEncapsulatedASFAlert,
	"mka":                   eapol.TypeMKA,
	"announcement-generic":  eapol.TypeAnnouncementGeneric,
	"announcement-specific": eapol.TypeAnnouncementSpecific,
	"announcement-req":      eapol.TypeAnnouncementReq,
}

// codeTokens maps the four EAP Code grammar tokens to their numeric
// values.
var codeTokens = map[string]eapol.Code{
	"request":  eapol.CodeRequest,
	"response": eapol.CodeResponse,
	"success":  eapol.CodeSuccess,
	"failure":  eapol.CodeFailure,
}

// TCISpec is the parsed `dot1q { ... }` block: each field is either
// unset (preserve original) or carries an explicit value.
type TCISpec struct {
	HasPriority bool
	Priority    int
	HasDrop     bool
	Drop        int
	HasID       bool
	ID          int
}

// EgressSpec is the parsed `egress { ... }` block of one interface.
type EgressSpec struct {
	Strip  bool // `no dot1q;`
	HasTCI bool // `dot1q { ... };`
	TCI    TCISpec
	Filter FilterSpec
	ByType map[eapol.Type]string
	ByCode map[eapol.Code]string
}

// IngressSpec is the parsed `ingress { ... }` block of one interface.
type IngressSpec struct {
	Filter FilterSpec
	ByType map[eapol.Type]string
	ByCode map[eapol.Code]string
}

// FilterSpec is the parsed `filter LIST;` directive: the set of Types
// and Codes to drop.
type FilterSpec struct {
	Types map[eapol.Type]bool
	Codes map[eapol.Code]bool
}

// IfaceSpec is one parsed `iface NAME { ... };` block: a named
// interface declaration, not yet resolved against the host's actual
// interfaces (see Resolve).
type IfaceSpec struct {
	Name        string
	Line        int
	Promiscuous bool

	HasSetMAC  bool
	SetMAC     [6]byte
	SetMACLine int

	HasSetMACFrom  bool
	SetMACFrom     string
	SetMACFromLine int

	Ingress *IngressSpec
	Egress  *EgressSpec
}

// Config is the complete parsed configuration: an ordered sequence of
// interface declarations, matching spec §3's data model before
// resolution against the live network stack.
type Config struct {
	Ifaces []IfaceSpec
}
