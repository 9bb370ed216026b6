// Package ifacetable implements the interface table of spec §3: the
// ordered collection of configured interfaces, each with its resolved
// kernel index/MTU, optional ingress/egress policy, MAC-mutation intent,
// and the counters and socket handle the event loop consults per packet.
package ifacetable

import (
	"errors"
	"fmt"

	"github.com/kangtastic/peapod/internal/pkt"
	"github.com/kangtastic/peapod/internal/policy"
	"github.com/kangtastic/peapod/internal/rawsock"
)

// StaticMAC is the "pending" MAC-mutation intent consumed exactly once
// at startup (see spec §3, `static_mac_intent`).
type StaticMAC struct {
	Addr    [6]byte
	Pending bool
}

// Socket is the surface ifacetable and the event loop need from the raw
// socket layer (component D): send/receive, MAC mutation, and the file
// descriptor the event loop multiplexes on.
type Socket interface {
	Recv(buf *pkt.Buffer) (rawsock.RecvResult, error)
	Send(frame []byte) error
	Close() error
	SetHWAddr(addr [6]byte) error
	Fd() int
}

// NoLearnTarget is the LearnMACFrom sentinel meaning "no learn-mac-from
// intent configured". The zero value of int (0) is a valid interface
// index, so callers constructing a Record must set this explicitly.
const NoLearnTarget = -1

// Record is one configured interface: spec §3's interface record.
type Record struct {
	Name  string
	Index int
	MTU   int

	Promiscuous bool

	Ingress *policy.IngressPolicy
	Egress  *policy.EgressPolicy

	StaticMAC StaticMAC

	// LearnMACFrom is the index of another record in the same Table
	// whose first received frame's source MAC becomes this record's
	// MAC, or -1 if unset. Mutually exclusive with StaticMAC.Pending.
	LearnMACFrom int

	// learned is set to true once LearnMACFrom has fired; it
	// guards the "consumed exactly once" invariant of spec §3.
	learned bool

	RecvCounter uint64
	SendCounter uint64

	Socket Socket
}

// NewRecord returns a Record with LearnMACFrom defaulted to
// NoLearnTarget; callers should use this rather than a bare struct
// literal unless they explicitly set LearnMACFrom afterward.
func NewRecord(name string, index, mtu int) *Record {
	return &Record{Name: name, Index: index, MTU: mtu, LearnMACFrom: NoLearnTarget}
}

// HasLearnTarget reports whether r carries an unconsumed learn-mac-from
// intent.
func (r *Record) HasLearnTarget() bool {
	return r.LearnMACFrom >= 0 && !r.learned
}

// MarkLearned consumes the learn-mac-from intent, preventing any later
// frame on the source interface from re-triggering it.
func (r *Record) MarkLearned() {
	r.learned = true
}

// Table is the ordered, by-name and by-index indexed collection of
// configured interfaces.
type Table struct {
	records []*Record
	byName  map[string]*Record
	byIndex map[int]*Record
}

// New validates records and builds a Table. It enforces the invariants
// of spec §3: at least two records, unique name, unique index,
// static-mac/learn-mac mutual exclusivity, and a learn-mac-from target
// that exists in the same table and is not the record itself.
func New(records []*Record) (*Table, error) {
	if len(records) < 2 {
		return nil, errors.New("ifacetable: at least two interfaces are required")
	}

	t := &Table{
		records: records,
		byName:  make(map[string]*Record, len(records)),
		byIndex: make(map[int]*Record, len(records)),
	}

	for _, r := range records {
		if _, dup := t.byName[r.Name]; dup {
			return nil, fmt.Errorf("ifacetable: duplicate interface name %q", r.Name)
		}
		if _, dup := t.byIndex[r.Index]; dup {
			return nil, fmt.Errorf("ifacetable: duplicate interface index %d for %q", r.Index, r.Name)
		}
		if r.StaticMAC.Pending && r.LearnMACFrom >= 0 {
			return nil, fmt.Errorf("ifacetable: %q: set-mac and set-mac-from are mutually exclusive", r.Name)
		}
		t.byName[r.Name] = r
		t.byIndex[r.Index] = r
	}

	for _, r := range records {
		if r.LearnMACFrom < 0 {
			continue
		}
		if r.LearnMACFrom == r.Index {
			return nil, fmt.Errorf("ifacetable: %q: set-mac-from cannot reference itself", r.Name)
		}
		if _, ok := t.byIndex[r.LearnMACFrom]; !ok {
			return nil, fmt.Errorf("ifacetable: %q: set-mac-from references undefined interface index %d", r.Name, r.LearnMACFrom)
		}
	}

	return t, nil
}

// Records returns the configured interfaces in declaration order.
func (t *Table) Records() []*Record { return t.records }

// Len reports the number of configured interfaces.
func (t *Table) Len() int { return len(t.records) }

// ByName looks up a record by its configured name.
func (t *Table) ByName(name string) (*Record, bool) {
	r, ok := t.byName[name]
	return r, ok
}

// ByIndex looks up a record by its kernel interface index.
func (t *Table) ByIndex(index int) (*Record, bool) {
	r, ok := t.byIndex[index]
	return r, ok
}

// Learners returns every record whose LearnMACFrom equals index and
// whose intent has not yet fired. Called with an interface's index when
// that interface receives its first frame, to evaluate one-shot MAC
// learning (spec §3, §8).
func (t *Table) Learners(index int) []*Record {
	var out []*Record
	for _, r := range t.records {
		if r.LearnMACFrom == index && !r.learned {
			out = append(out, r)
		}
	}
	return out
}

// Close closes every record's socket, ignoring individual errors; used
// on restart and shutdown (spec §3 "Ownership and lifecycle").
func (t *Table) Close() {
	for _, r := range t.records {
		if r.Socket != nil {
			r.Socket.Close()
		}
	}
}
