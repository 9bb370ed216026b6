package policy

import "github.com/kangtastic/peapod/internal/pkt"

// FieldOverride is an optional concrete value for one TCI field of a
// rewrite directive: "untouched" (Set == false, preserve the source
// value, or zero if none was present) versus an explicit numeric value.
type FieldOverride struct {
	Set   bool
	Value uint16
}

// TCIDirective is the per-egress-interface 802.1Q directive of spec §3.
// A nil *TCIDirective means "no directive": originals are preserved
// as-is. When Strip is set, the three field overrides are ignored. The
// config resolver builds Strip from `no dot1q;` and the overrides from
// `dot1q { ... };`, and keeps only Strip when an egress block has both.
type TCIDirective struct {
	Strip bool
	PCP   FieldOverride
	DEI   FieldOverride
	VID   FieldOverride
}

// Rewrite applies an egress interface's TCI directive to v, which must
// already have been reset to its as-received originals (see
// pkt.View.ResetForEgress). It implements spec §4.4's 802.1Q rewrite:
//
//   - strip: remove any tag.
//   - rewrite(pcp?, dei?, vid?): assign each overridden field, otherwise
//     preserve the original value (zero if no original tag was present).
//   - no directive: preserve originals untouched.
//
// Length is adjusted by ±4 if tag presence changes relative to the
// original.
func Rewrite(v *pkt.View, d *TCIDirective) {
	switch {
	case d == nil:
		// No directive: v already carries the as-received originals.
	case d.Strip:
		v.VLANPresent = false
		v.TCI = pkt.TCI{}
	default:
		v.VLANPresent = true
		tci := v.TCI // originals, from ResetForEgress
		if d.PCP.Set {
			tci.PCP = uint8(d.PCP.Value)
		}
		if d.DEI.Set {
			tci.DEI = uint8(d.DEI.Value)
		}
		if d.VID.Set {
			tci.VID = d.VID.Value
		}
		v.TCI = tci
	}

	switch {
	case v.VLANPresent && !v.VLANPresentOriginal:
		v.Length = v.OriginalLength + 4
	case !v.VLANPresent && v.VLANPresentOriginal:
		v.Length = v.OriginalLength - 4
	default:
		v.Length = v.OriginalLength
	}
}
