package policy

import (
	"testing"

	"github.com/kangtastic/peapod/internal/eapol"
	"github.com/kangtastic/peapod/internal/pkt"
)

func TestFilterMaskDrop(t *testing.T) {
	t.Run("logoff dropped, start passes", func(t *testing.T) {
		var m FilterMask
		m.Types[eapol.TypeLogoff] = true

		logoff := &pkt.View{EAPOLType: eapol.TypeLogoff}
		start := &pkt.View{EAPOLType: eapol.TypeStart}

		if !m.Drop(logoff) {
			t.Error("expected logoff to be dropped")
		}
		if m.Drop(start) {
			t.Error("expected start to pass")
		}
	})

	t.Run("code bit only applies to EAPOL-EAP", func(t *testing.T) {
		var m FilterMask
		m.Codes[eapol.CodeSuccess] = true

		success := &pkt.View{EAPOLType: eapol.TypeEAP, HasEAPCode: true, EAPCode: eapol.CodeSuccess}
		if !m.Drop(success) {
			t.Error("expected EAP success to be dropped")
		}

		nonEAP := &pkt.View{EAPOLType: eapol.TypeStart}
		if m.Drop(nonEAP) {
			t.Error("code bit should not affect non-EAP types")
		}
	})

	t.Run("nil mask never drops", func(t *testing.T) {
		var m *FilterMask
		if m.Drop(&pkt.View{EAPOLType: eapol.TypeLogoff}) {
			t.Error("nil mask should never drop")
		}
	})
}

func TestActionTableSelect(t *testing.T) {
	var a ActionTable
	a.ByCode[eapol.CodeSuccess] = "/opt/s.sh"

	v := &pkt.View{EAPOLType: eapol.TypeEAP, HasEAPCode: true, EAPCode: eapol.CodeSuccess}
	if got := a.Select(v); got != "/opt/s.sh" {
		t.Errorf("got %q", got)
	}

	a.ByType[eapol.TypeEAP] = "/opt/byType.sh"
	if got := a.Select(v); got != "/opt/byType.sh" {
		t.Errorf("type entry should take priority, got %q", got)
	}
}

func untagged() pkt.View {
	return pkt.View{OriginalLength: 18}
}

func tagged() pkt.View {
	return pkt.View{
		OriginalLength:      22,
		VLANPresentOriginal: true,
		TCIOriginal:         pkt.TCI{PCP: 3, DEI: 0, VID: 100},
	}
}

func TestRewritePreserveWithNoDirective(t *testing.T) {
	v := tagged().ResetForEgress(pkt.InterfaceRef{Name: "b"})
	Rewrite(&v, nil)
	if !v.VLANPresent || v.TCI != (pkt.TCI{PCP: 3, VID: 100}) || v.Length != 22 {
		t.Errorf("expected original tag preserved, got %+v", v)
	}
}

func TestRewriteStrip(t *testing.T) {
	t.Run("tagged input becomes untagged", func(t *testing.T) {
		v := tagged().ResetForEgress(pkt.InterfaceRef{})
		Rewrite(&v, &TCIDirective{Strip: true})
		if v.VLANPresent || v.Length != 18 {
			t.Errorf("expected strip to untag and shrink by 4, got %+v", v)
		}
	})
	t.Run("untagged input stays untagged", func(t *testing.T) {
		v := untagged().ResetForEgress(pkt.InterfaceRef{})
		Rewrite(&v, &TCIDirective{Strip: true})
		if v.VLANPresent || v.Length != 18 {
			t.Errorf("expected no-op strip on untagged, got %+v", v)
		}
	})
}

func TestRewritePointwise(t *testing.T) {
	t.Run("tagged input gets pcp override", func(t *testing.T) {
		v := tagged().ResetForEgress(pkt.InterfaceRef{})
		Rewrite(&v, &TCIDirective{PCP: FieldOverride{Set: true, Value: 7}})
		want := pkt.TCI{PCP: 7, DEI: 0, VID: 100}
		if !v.VLANPresent || v.TCI != want || v.Length != 22 {
			t.Errorf("got %+v", v)
		}
	})

	t.Run("untagged input gets tagged with zero defaults", func(t *testing.T) {
		v := untagged().ResetForEgress(pkt.InterfaceRef{})
		Rewrite(&v, &TCIDirective{PCP: FieldOverride{Set: true, Value: 7}})
		want := pkt.TCI{PCP: 7, DEI: 0, VID: 0}
		if !v.VLANPresent || v.TCI != want || v.Length != 22 {
			t.Errorf("got %+v", v)
		}
	})
}
