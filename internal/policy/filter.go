// Package policy implements the filter/action/rewrite engine evaluated
// against ingress and egress interfaces: filter masks, action tables, and
// 802.1Q TCI rewrite directives. See spec §4.4.
package policy

import (
	"github.com/kangtastic/peapod/internal/eapol"
	"github.com/kangtastic/peapod/internal/pkt"
)

// FilterMask holds the two bitsets of spec §3: one indexed by EAPOL
// Packet Type (0..8), one by EAP Code (1..4, index 0 unused).
type FilterMask struct {
	Types [eapol.NumTypes]bool
	Codes [eapol.NumCodes]bool
}

// Drop reports whether v's classification matches the mask: its Type bit
// is set, or its Type is EAPOL-EAP and its Code bit is set.
func (m *FilterMask) Drop(v *pkt.View) bool {
	if m == nil {
		return false
	}
	if int(v.EAPOLType) < len(m.Types) && m.Types[v.EAPOLType] {
		return true
	}
	if v.EAPOLType == eapol.TypeEAP && v.HasEAPCode &&
		int(v.EAPCode) < len(m.Codes) && m.Codes[v.EAPCode] {
		return true
	}
	return false
}

// ActionTable holds the two arrays of spec §3: script paths selected by
// EAPOL Packet Type or by EAP Code, index 0 unused for the latter.
type ActionTable struct {
	ByType [eapol.NumTypes]string
	ByCode [eapol.NumCodes]string
}

// Select returns the script path chosen for v's classification: by Type
// first, then by Code if the Type is EAPOL-EAP and no Type entry matched.
// An empty string means no script is selected. See spec §4.4.
func (a *ActionTable) Select(v *pkt.View) string {
	if a == nil {
		return ""
	}
	if int(v.EAPOLType) < len(a.ByType) && a.ByType[v.EAPOLType] != "" {
		return a.ByType[v.EAPOLType]
	}
	if v.EAPOLType == eapol.TypeEAP && v.HasEAPCode &&
		int(v.EAPCode) < len(a.ByCode) && a.ByCode[v.EAPCode] != "" {
		return a.ByCode[v.EAPCode]
	}
	return ""
}

// IngressPolicy is the optional per-interface ingress policy of spec §3.
type IngressPolicy struct {
	Filter *FilterMask
	Action *ActionTable
}

// EgressPolicy is the optional per-interface egress policy of spec §3.
type EgressPolicy struct {
	TCI    *TCIDirective
	Filter *FilterMask
	Action *ActionTable
}
