package script

import (
	"strings"
	"testing"
	"time"

	"github.com/kangtastic/peapod/internal/eapol"
	"github.com/kangtastic/peapod/internal/pkt"
)

func lookup(env []string, key string) (string, bool) {
	for _, kv := range env {
		if v, ok := strings.CutPrefix(kv, key+"="); ok {
			return v, true
		}
	}
	return "", false
}

func TestBuildEnvEAPResponseIdentity(t *testing.T) {
	v := &pkt.View{
		Timestamp:         time.Unix(1700000000, 0),
		Ingress:           pkt.InterfaceRef{Name: "ifA", MTU: 1500},
		Current:           pkt.InterfaceRef{Name: "ifA", MTU: 1500},
		EAPOLType:         eapol.TypeEAP,
		HasEAPCode:        true,
		EAPCode:           eapol.CodeResponse,
		EAPID:             152,
		HasEAPReqRespType: true,
		EAPReqRespType:    1,
	}
	result := eapol.Result{
		Type:   eapol.Header{Type: eapol.TypeEAP},
		HasEAP: true,
		EAP:    eapol.EAP{Code: eapol.CodeResponse, ID: 152, ReqRespType: 1, HasReqRespType: true},
	}

	frame := []byte{0xde, 0xad, 0xbe, 0xef}
	env := BuildEnv(v, result, frame, frame)

	want := map[string]string{
		"PKT_TYPE":         "0",
		"PKT_CODE":         "2",
		"PKT_ID":           "152",
		"PKT_REQRESP_TYPE": "1",
		"PKT_REQRESP_DESC": "Identity",
		"PKT_IFACE_ORIG":   "ifA",
	}
	for k, v := range want {
		got, ok := lookup(env, k)
		if !ok || got != v {
			t.Errorf("%s = %q, ok=%v; want %q", k, got, ok, v)
		}
	}

	pktB64, ok := lookup(env, "PKT")
	if !ok {
		t.Fatal("expected PKT to be set")
	}
	if pktB64 == "" {
		t.Error("expected non-empty base64 PKT")
	}
}

func TestBuildEnvOmitsEAPFieldsForNonEAP(t *testing.T) {
	v := &pkt.View{EAPOLType: eapol.TypeStart}
	env := BuildEnv(v, eapol.Result{}, nil, nil)
	if _, ok := lookup(env, "PKT_CODE"); ok {
		t.Error("expected no PKT_CODE for non-EAP packet type")
	}
}
