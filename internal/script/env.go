// Package script implements the external script invocation of spec §4.5:
// building the fixed PKT_* environment from a classified packet and
// running the script as an isolated child process whose outcome never
// affects the proxy.
package script

import (
	"encoding/base64"
	"fmt"
	"strconv"

	"github.com/kangtastic/peapod/internal/eapol"
	"github.com/kangtastic/peapod/internal/pkt"
)

// DefaultPATH is the safe default PATH installed in every script's
// clean environment.
const DefaultPATH = "/usr/bin:/bin:/usr/sbin:/sbin"

// BuildEnv renders the fixed PKT_* variable set of spec §4.5 for a
// classified view v, given the original and current frame bytes
// produced by pkt.Buffer.FrameStart(v, true) and
// pkt.Buffer.FrameStart(v, false) respectively.
func BuildEnv(v *pkt.View, result eapol.Result, origFrame, curFrame []byte) []string {
	env := []string{
		"PATH=" + DefaultPATH,
		"PKT_TIME=" + formatTimestamp(v),
		"PKT_DEST=" + macString(v.Dest),
		"PKT_SOURCE=" + macString(v.Source),
		"PKT_TYPE=" + strconv.Itoa(int(v.EAPOLType)),
		"PKT_TYPE_DESC=" + v.EAPOLType.String(),
		"PKT_LENGTH_ORIG=" + strconv.Itoa(v.OriginalLength),
		"PKT_ORIG=" + base64.StdEncoding.EncodeToString(origFrame),
		"PKT_IFACE_ORIG=" + v.Ingress.Name,
		"PKT_IFACE_MTU_ORIG=" + strconv.Itoa(v.Ingress.MTU),
		"PKT_LENGTH=" + strconv.Itoa(v.Length),
		"PKT=" + base64.StdEncoding.EncodeToString(curFrame),
		"PKT_IFACE=" + v.Current.Name,
		"PKT_IFACE_MTU=" + strconv.Itoa(v.Current.MTU),
	}

	if v.EAPOLType == eapol.TypeEAP && v.HasEAPCode {
		env = append(env,
			"PKT_CODE="+strconv.Itoa(int(v.EAPCode)),
			"PKT_CODE_DESC="+v.EAPCode.String(),
			"PKT_ID="+strconv.Itoa(int(v.EAPID)),
		)
		if v.HasEAPReqRespType {
			env = append(env,
				"PKT_REQRESP_TYPE="+strconv.Itoa(int(v.EAPReqRespType)),
				"PKT_REQRESP_DESC="+reqRespDesc(result),
			)
		}
	}

	if v.VLANPresentOriginal {
		env = append(env, "PKT_DOT1Q_TCI_ORIG="+tciHex(v.TCIOriginal))
	}
	if v.VLANPresent {
		env = append(env, "PKT_DOT1Q_TCI="+tciHex(v.TCI))
	}

	return env
}

func formatTimestamp(v *pkt.View) string {
	return fmt.Sprintf("%d.%06d", v.Timestamp.Unix(), v.Timestamp.Nanosecond()/1000)
}

func macString(addr [6]byte) string {
	const hex = "0123456789abcdef"
	b := make([]byte, 0, 17)
	for i, o := range addr {
		if i > 0 {
			b = append(b, ':')
		}
		b = append(b, hex[o>>4], hex[o&0xf])
	}
	return string(b)
}

func tciHex(t pkt.TCI) string {
	return fmt.Sprintf("%04x", t.Encode())
}

// reqRespDesc renders a short text description of an EAP Request/
// Response Type octet. The EAP type-name table is deliberately small:
// only Identity (1) and Nak (3) are common enough across deployments to
// name; anything else is rendered numerically, matching the
// classifier's own unknown-value fallback style.
func reqRespDesc(r eapol.Result) string {
	switch r.EAP.ReqRespType {
	case 1:
		return "Identity"
	case 3:
		return "Nak"
	default:
		return strconv.Itoa(int(r.EAP.ReqRespType))
	}
}
