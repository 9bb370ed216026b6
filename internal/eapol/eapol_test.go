package eapol

import "testing"

func TestParseHeader(t *testing.T) {
	t.Run("start frame", func(t *testing.T) {
		pdu := []byte{0x02, 0x01, 0x00, 0x00}
		h, body, err := ParseHeader(pdu)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if h.Version != 2 || h.Type != TypeStart || h.BodyLength != 0 {
			t.Errorf("got %+v", h)
		}
		if len(body) != 0 {
			t.Errorf("expected empty body, got %d bytes", len(body))
		}
	})

	t.Run("too short", func(t *testing.T) {
		_, _, err := ParseHeader([]byte{0x02, 0x01, 0x00})
		if err != ErrShortHeader {
			t.Errorf("expected ErrShortHeader, got %v", err)
		}
	})
}

func TestParseEAP(t *testing.T) {
	t.Run("response identity", func(t *testing.T) {
		body := []byte{byte(CodeResponse), 152, 0x00, 0x06, 0x01, 'u', 's', 'r'}
		e, err := ParseEAP(body)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if e.Code != CodeResponse || e.ID != 152 || !e.HasReqRespType || e.ReqRespType != 1 {
			t.Errorf("got %+v", e)
		}
	})

	t.Run("success has no req/resp type", func(t *testing.T) {
		body := []byte{byte(CodeSuccess), 7, 0x00, 0x04}
		e, err := ParseEAP(body)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if e.HasReqRespType {
			t.Errorf("success code should not carry a req/resp type")
		}
	})

	t.Run("too short", func(t *testing.T) {
		_, err := ParseEAP([]byte{0x01, 0x02})
		if err != ErrShortEAP {
			t.Errorf("expected ErrShortEAP, got %v", err)
		}
	})
}

func TestTypeString(t *testing.T) {
	if TypeLogoff.String() != "EAPOL-Logoff" {
		t.Errorf("got %q", TypeLogoff.String())
	}
	if Type(200).String() != "EAPOL-Type(200)" {
		t.Errorf("got %q", Type(200).String())
	}
}
