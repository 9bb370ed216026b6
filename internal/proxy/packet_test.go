//go:build unix

package proxy

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/kangtastic/peapod/internal/ifacetable"
	"github.com/kangtastic/peapod/internal/pkt"
	"github.com/kangtastic/peapod/internal/policy"
	"github.com/kangtastic/peapod/internal/rawsock"
)

// fakeSocket implements ifacetable.Socket without touching the kernel.
type fakeSocket struct {
	fd      int
	sent    [][]byte
	hwAddr  [6]byte
	setErr  error
	sendErr error
}

func (f *fakeSocket) Recv(buf *pkt.Buffer) (rawsock.RecvResult, error) { return rawsock.RecvResult{}, nil }
func (f *fakeSocket) Send(frame []byte) error {
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, append([]byte(nil), frame...))
	return nil
}
func (f *fakeSocket) Close() error { return nil }
func (f *fakeSocket) SetHWAddr(addr [6]byte) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.hwAddr = addr
	return nil
}
func (f *fakeSocket) Fd() int { return f.fd }

type fakeSender struct {
	scriptRuns int
}

func (s *fakeSender) Send(rec *ifacetable.Record, frame []byte) error {
	return rec.Socket.Send(frame)
}

func (s *fakeSender) RunScript(path string, env []string, logger *slog.Logger) {
	s.scriptRuns++
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(discardWriter{}, nil))
}

type discardWriter struct{}

func (discardWriter) Write(p []byte) (int, error) { return len(p), nil }

func eapolStartFrame() []byte {
	// Version 1, Type EAPOL-Start (1), body length 0.
	return []byte{1, 1, 0, 0}
}

func newTestTable(t *testing.T) (*ifacetable.Table, *fakeSocket, *fakeSocket) {
	t.Helper()
	a := ifacetable.NewRecord("a", 1, 1500)
	a.Socket = &fakeSocket{fd: 10}
	b := ifacetable.NewRecord("b", 2, 1500)
	b.Socket = &fakeSocket{fd: 11}
	table, err := ifacetable.New([]*ifacetable.Record{a, b})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return table, a.Socket.(*fakeSocket), b.Socket.(*fakeSocket)
}

func TestProcessPacketForwardsToOtherInterfaces(t *testing.T) {
	table, _, sockB := newTestTable(t)
	a, _ := table.ByName("a")
	buf := pkt.NewBuffer(1500)
	copy(buf.Body(4), eapolStartFrame())

	sender := &fakeSender{}
	res := rawRecv{Dest: [6]byte{1}, Source: [6]byte{2}, Length: 64, BodyLen: 4, Timestamp: time.Now()}

	forwarded, mutated, err := processPacket(table, buf, a, res, sender, discardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if forwarded != 1 {
		t.Errorf("forwarded = %d, want 1", forwarded)
	}
	if len(mutated) != 0 {
		t.Errorf("unexpected mutation: %v", mutated)
	}
	if len(sockB.sent) != 1 {
		t.Errorf("expected one frame sent to b, got %d", len(sockB.sent))
	}
}

func TestProcessPacketIngressFilterDrops(t *testing.T) {
	table, _, sockB := newTestTable(t)
	a, _ := table.ByName("a")
	a.Ingress = &policy.IngressPolicy{Filter: &policy.FilterMask{}}
	a.Ingress.Filter.Types[1] = true // drop EAPOL-Start

	buf := pkt.NewBuffer(1500)
	copy(buf.Body(4), eapolStartFrame())
	sender := &fakeSender{}
	res := rawRecv{Length: 64, BodyLen: 4, Timestamp: time.Now()}

	forwarded, _, err := processPacket(table, buf, a, res, sender, discardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if forwarded != 0 {
		t.Errorf("forwarded = %d, want 0", forwarded)
	}
	if len(sockB.sent) != 0 {
		t.Errorf("expected no frame sent, got %d", len(sockB.sent))
	}
}

func TestProcessPacketLearnsMACOnlyOnFirstFrame(t *testing.T) {
	table, _, sockB := newTestTable(t)
	a, _ := table.ByName("a")
	b, _ := table.ByName("b")
	b.LearnMACFrom = a.Index

	buf := pkt.NewBuffer(1500)
	copy(buf.Body(4), eapolStartFrame())
	sender := &fakeSender{}
	src := [6]byte{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF}
	res := rawRecv{Source: src, Length: 64, BodyLen: 4, Timestamp: time.Now()}

	_, mutated, err := processPacket(table, buf, a, res, sender, discardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mutated) != 1 || mutated[0] != b {
		t.Fatalf("expected b to be mutated, got %v", mutated)
	}
	if sockB.hwAddr != src {
		t.Errorf("sockB.hwAddr = %v, want %v", sockB.hwAddr, src)
	}
	if b.HasLearnTarget() {
		t.Error("expected learn-mac-from to be consumed")
	}
	if len(sockB.sent) != 0 {
		t.Errorf("triggering frame must not be forwarded to the learner, got %d sends", len(sockB.sent))
	}

	// Second frame from a must not re-trigger learning, and must be
	// forwarded normally now that b is no longer a fresh learn target.
	_, mutated2, err := processPacket(table, buf, a, res, sender, discardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mutated2) != 0 {
		t.Errorf("expected no mutation on second frame, got %v", mutated2)
	}
	if len(sockB.sent) != 1 {
		t.Errorf("expected frame forwarded to b after learning settled, got %d sends", len(sockB.sent))
	}
}

func TestProcessPacketLearnMACFailureStillConsumesIntent(t *testing.T) {
	table, _, sockB := newTestTable(t)
	a, _ := table.ByName("a")
	b, _ := table.ByName("b")
	b.LearnMACFrom = a.Index
	sockB.setErr = errors.New("ioctl failed")

	buf := pkt.NewBuffer(1500)
	copy(buf.Body(4), eapolStartFrame())
	sender := &fakeSender{}
	res := rawRecv{Source: [6]byte{1}, Length: 64, BodyLen: 4, Timestamp: time.Now()}

	_, mutated, err := processPacket(table, buf, a, res, sender, discardLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(mutated) != 0 {
		t.Errorf("expected no successful mutation, got %v", mutated)
	}
	if b.HasLearnTarget() {
		t.Error("expected learn-mac-from to be consumed even on failure")
	}
}

func TestProcessPacketIngressActionRunsScript(t *testing.T) {
	table, _, _ := newTestTable(t)
	a, _ := table.ByName("a")
	a.Ingress = &policy.IngressPolicy{Action: &policy.ActionTable{}}
	a.Ingress.Action.ByType[1] = "/usr/local/bin/on-start"

	buf := pkt.NewBuffer(1500)
	copy(buf.Body(4), eapolStartFrame())
	sender := &fakeSender{}
	res := rawRecv{Length: 64, BodyLen: 4, Timestamp: time.Now()}

	if _, _, err := processPacket(table, buf, a, res, sender, discardLogger()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sender.scriptRuns != 1 {
		t.Errorf("scriptRuns = %d, want 1", sender.scriptRuns)
	}
}
