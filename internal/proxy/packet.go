//go:build unix

package proxy

import (
	"log/slog"
	"time"

	"github.com/kangtastic/peapod/internal"
	"github.com/kangtastic/peapod/internal/eapol"
	"github.com/kangtastic/peapod/internal/ifacetable"
	"github.com/kangtastic/peapod/internal/pkt"
	"github.com/kangtastic/peapod/internal/policy"
	"github.com/kangtastic/peapod/internal/script"
)

// Sender is the narrow surface processPacket needs to transmit a frame
// and run a script, independent of the concrete socket/script runner
// implementations, so the orchestration logic can be exercised without
// real sockets or subprocesses.
type Sender interface {
	Send(rec *ifacetable.Record, frame []byte) error
	RunScript(path string, env []string, logger *slog.Logger)
}

// processPacket implements spec §4.4/§4.6's single-packet
// orchestration: classify, evaluate one-shot MAC learning, evaluate
// ingress filter/action, then for every other configured interface
// evaluate the 802.1Q rewrite/filter/action and send. Returns the
// number of interfaces the frame was forwarded to (0 if dropped), and
// the set of records whose MAC was mutated this call, so the caller
// can arm the "expect an error event" flag on each (spec §4.6 step 3:
// "the mutation cycles the link").
func processPacket(
	table *ifacetable.Table,
	buf *pkt.Buffer,
	ingress *ifacetable.Record,
	res rawRecv,
	sender Sender,
	logger *slog.Logger,
) (forwarded int, mutated []*ifacetable.Record, err error) {
	classified, err := eapol.Classify(buf.Body(res.BodyLen))
	if err != nil {
		return 0, nil, err
	}

	v := &pkt.View{
		Timestamp:           res.Timestamp,
		Ingress:             pkt.InterfaceRef{Name: ingress.Name, MTU: ingress.MTU},
		Current:             pkt.InterfaceRef{Name: ingress.Name, MTU: ingress.MTU},
		Dest:                res.Dest,
		Source:              res.Source,
		Length:              res.Length,
		OriginalLength:      res.Length,
		VLANPresent:         res.VLANPresent,
		VLANPresentOriginal: res.VLANPresent,
		TCI:                 res.TCI,
		TCIOriginal:         res.TCI,
	}
	v.ApplyClassification(classified)

	ingress.RecvCounter++
	if ingress.RecvCounter == 1 {
		mutated = evaluateMACLearning(table, ingress, v.Source, logger)
	}

	if ingress.Ingress != nil {
		if path := ingress.Ingress.Action.Select(v); path != "" {
			runAction(v, classified, buf, path, sender, logger)
		}
		if ingress.Ingress.Filter.Drop(v) {
			logger.Info("ingress filter dropped packet", "iface", ingress.Name, "classification", classified.Describe())
			return 0, mutated, nil
		}
	}

	// The triggering frame of a MAC-learning mutation is not relayed to
	// the interface whose MAC it just changed (spec §8 scenario 5): the
	// mutation's down/up cycle made that interface's identity the frame
	// itself carried, not a frame to forward.
	justMutated := make(map[*ifacetable.Record]bool, len(mutated))
	for _, m := range mutated {
		justMutated[m] = true
	}

	for _, egress := range table.Records() {
		if egress == ingress || justMutated[egress] {
			continue
		}
		ev := v.ResetForEgress(pkt.InterfaceRef{Name: egress.Name, MTU: egress.MTU})

		var tci *policy.TCIDirective
		var filter *policy.FilterMask
		var actions *policy.ActionTable
		if egress.Egress != nil {
			tci = egress.Egress.TCI
			filter = egress.Egress.Filter
			actions = egress.Egress.Action
		}
		policy.Rewrite(&ev, tci)

		if filter.Drop(&ev) {
			logger.Info("egress filter dropped packet", "iface", egress.Name, "classification", classified.Describe())
			continue
		}

		if path := actions.Select(&ev); path != "" {
			runAction(&ev, classified, buf, path, sender, logger)
		}

		frame := buf.FrameStart(&ev, false)
		if err := sender.Send(egress, frame); err != nil {
			return forwarded, mutated, err
		}
		egress.SendCounter++
		forwarded++
	}

	return forwarded, mutated, nil
}

// rawRecv is the subset of a socket receive result processPacket needs;
// defined locally so this file doesn't import the rawsock package
// (which would couple orchestration logic to the Linux-specific socket
// implementation it doesn't otherwise need).
type rawRecv struct {
	Dest, Source [6]byte
	Length       int
	BodyLen      int
	VLANPresent  bool
	TCI          pkt.TCI
	Timestamp    time.Time
}

// evaluateMACLearning runs on ingress's first-ever received frame
// (spec §4.6 step 3): every other interface whose learn-mac-from
// targets ingress has its field cleared (one-shot, regardless of
// outcome) and its MAC set to src. The frame itself is not consumed;
// the caller continues normal processing on it either way. Returns
// the learners whose mutation succeeded, so the caller can arm their
// "expect an error event" flag (the mutation cycles the link).
func evaluateMACLearning(table *ifacetable.Table, ingress *ifacetable.Record, src [6]byte, logger *slog.Logger) []*ifacetable.Record {
	learners := table.Learners(ingress.Index)
	if len(learners) == 0 {
		return nil
	}
	var mutated []*ifacetable.Record
	for _, learner := range learners {
		learner.MarkLearned()
		if learner.Socket == nil {
			continue
		}
		if err := learner.Socket.SetHWAddr(src); err != nil {
			logger.Error("learn-mac-from mutation failed", "iface", learner.Name, "from", ingress.Name, "err", err)
			continue
		}
		learner.StaticMAC = ifacetable.StaticMAC{Addr: src}
		logger.Info("learned MAC address", "iface", learner.Name, "from", ingress.Name, "mac", internal.SlogMAC("mac", src).Value.String())
		mutated = append(mutated, learner)
	}
	return mutated
}

// runAction renders both the original and current framing of the
// packet for the script environment. Buffer's header prefix is shared
// scratch space (spec §4.1), so FrameStart's two results cannot coexist
// in it; each is copied out immediately after the call that produces
// it, before the other overwrites the shared prefix bytes.
func runAction(v *pkt.View, classified eapol.Result, buf *pkt.Buffer, path string, sender Sender, logger *slog.Logger) {
	orig := append([]byte(nil), buf.FrameStart(v, true)...)
	cur := append([]byte(nil), buf.FrameStart(v, false)...)
	env := script.BuildEnv(v, classified, orig, cur)
	sender.RunScript(path, env, logger)
}
