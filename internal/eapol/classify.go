package eapol

import "strconv"

// Result is the classifier's complete output for one PDU: enough to
// evaluate filters/actions and to populate script environment variables,
// without coupling this package to the packet view's representation.
type Result struct {
	Type Header

	HasEAP bool
	EAP    EAP
}

// Classify parses the EAPOL header and, for EAPOL-EAP packets, the EAP
// header nested in its body. It never fails on a well-formed EAPOL
// header even if the EAP sub-header is absent or malformed: in that case
// HasEAP is false and the EAPOL Type is still usable for filtering.
func Classify(pdu []byte) (Result, error) {
	hdr, body, err := ParseHeader(pdu)
	if err != nil {
		return Result{}, err
	}
	res := Result{Type: hdr}
	if hdr.Type == TypeEAP {
		if eap, err := ParseEAP(body); err == nil {
			res.HasEAP = true
			res.EAP = eap
		}
	}
	return res, nil
}

// Describe renders a short human-readable description of the classified
// packet suitable for a log line, e.g. "EAPOL-Start" or
// "EAP-Packet Response(type=1) id=152".
func (r Result) Describe() string {
	s := r.Type.Type.String()
	if r.HasEAP {
		s += " " + r.EAP.Code.String()
		if r.EAP.HasReqRespType {
			s += "(type=" + strconv.Itoa(int(r.EAP.ReqRespType)) + ")"
		}
		s += " id=" + strconv.Itoa(int(r.EAP.ID))
	}
	return s
}
