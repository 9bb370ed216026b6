//go:build linux

package rawsock

import "testing"

func TestEapolFilterMatchesEtherType(t *testing.T) {
	prog := eapolFilter()
	if len(prog) != 4 {
		t.Fatalf("got %d instructions, want 4", len(prog))
	}
	if prog[0].K != 12 {
		t.Errorf("expected load offset 12, got %d", prog[0].K)
	}
	if prog[1].K != eapolEtherType {
		t.Errorf("expected compare against 0x888e, got %#x", prog[1].K)
	}
}

func TestHtons(t *testing.T) {
	if got := htons(0x888E); got != 0x8E88 {
		t.Errorf("htons(0x888e) = %#x, want 0x8e88", got)
	}
}
