package config

import "testing"

func TestParseBareTwoInterfaces(t *testing.T) {
	src := []byte(`
		iface a { };
		iface b { };
	`)
	cfg, err := Parse(src)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("unexpected validate error: %v", err)
	}
	if len(cfg.Ifaces) != 2 {
		t.Fatalf("got %d ifaces", len(cfg.Ifaces))
	}
}

func TestRejectsFewerThanTwoIfaces(t *testing.T) {
	cfg, err := Parse([]byte(`iface a { };`))
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if err := Validate(cfg); err == nil {
		t.Error("expected rejection of single-interface config")
	}
}

func TestRejectsDuplicateSetMAC(t *testing.T) {
	src := []byte(`
		iface a {
			set-mac "00:11:22:33:44:55";
			set-mac "00:11:22:33:44:66";
		};
		iface b { };
	`)
	if _, err := Parse(src); err == nil {
		t.Error("expected rejection of duplicate set-mac")
	}
}

func TestRejectsSetMACFromSelf(t *testing.T) {
	src := []byte(`
		iface a { set-mac-from a; };
		iface b { };
	`)
	cfg, err := Parse(src)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if err := Validate(cfg); err == nil {
		t.Error("expected rejection of set-mac-from self-reference")
	}
}

func TestRejectsSetMACFromUndefined(t *testing.T) {
	src := []byte(`
		iface a { set-mac-from ghost; };
		iface b { };
	`)
	cfg, err := Parse(src)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if err := Validate(cfg); err == nil {
		t.Error("expected rejection of set-mac-from undefined interface")
	}
}

func TestRejectsOutOfRangeDot1q(t *testing.T) {
	cases := []string{
		`iface a { egress { dot1q { priority 8; }; }; }; iface b { };`,
		`iface a { egress { dot1q { drop-eligible 2; }; }; }; iface b { };`,
		`iface a { egress { dot1q { id 4095; }; }; }; iface b { };`,
	}
	for _, src := range cases {
		cfg, err := Parse([]byte(src))
		if err != nil {
			t.Fatalf("unexpected parse error for %q: %v", src, err)
		}
		if err := Validate(cfg); err == nil {
			t.Errorf("expected range rejection for %q", src)
		}
	}
}

func TestResolveBuildsTable(t *testing.T) {
	src := []byte(`
		iface a {
			ingress { filter logoff; };
		};
		iface b {
			set-mac-from a;
			egress { dot1q { priority 7; }; };
		};
	`)
	cfg, err := Parse(src)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}

	indices := map[string]int{"a": 1, "b": 2}
	resolver := func(name string) (int, int, error) { return indices[name], 1500, nil }

	tbl, err := Resolve(cfg, resolver)
	if err != nil {
		t.Fatalf("unexpected resolve error: %v", err)
	}
	if tbl.Len() != 2 {
		t.Fatalf("got %d records", tbl.Len())
	}
	b, ok := tbl.ByName("b")
	if !ok {
		t.Fatal("expected record b")
	}
	if b.LearnMACFrom != 1 {
		t.Errorf("expected b.LearnMACFrom == 1 (index of a), got %d", b.LearnMACFrom)
	}
}
