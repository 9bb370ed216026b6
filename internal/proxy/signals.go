//go:build unix

package proxy

import (
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
)

// signalRelay reproduces spec §4.6's signal contract ("a small set is
// blocked process-wide and delivered only during the multiplexer's
// signal-safe wait ... handlers increment atomic counters and do
// nothing else") within Go's limits: Go gives no way to block SIGHUP/
// SIGINT/SIGUSR1/SIGTERM process-wide and unmask them only inside
// epoll_pwait the way the original does. Instead a single relay
// goroutine (the one extra goroutine this program runs, see spec §5)
// receives every signal via os/signal.Notify, increments the matching
// counter, and writes a byte to the multiplexer's wake pipe so a
// blocked Wait() returns promptly. This is a deliberate, documented
// platform-limitation deviation, not an oversight.
type signalRelay struct {
	hup, usr1, term atomic.Uint64

	// termPending guards the "second SIGINT/SIGTERM without being
	// acted upon aborts immediately" rule (spec §4.6): set when the
	// first one arrives, cleared by AckTerm once the loop has acted
	// on it by transitioning to Exit.
	termPending atomic.Bool

	wakeFD atomic.Int64
	ch     chan os.Signal
	stop   chan struct{}
}

// newSignalRelay installs the handler and starts the relay goroutine.
// wakeFD is the write end of the multiplexer's self-pipe; pass -1 to
// disable waking (tests exercising the relay alone, or before the
// first multiplexer of a Loop's lifetime exists). setWakeFD updates it
// for each subsequent Init cycle's fresh multiplexer.
func newSignalRelay(wakeFD int) *signalRelay {
	r := &signalRelay{
		ch:   make(chan os.Signal, 8),
		stop: make(chan struct{}),
	}
	r.wakeFD.Store(int64(wakeFD))
	signal.Notify(r.ch, syscall.SIGHUP, syscall.SIGINT, syscall.SIGUSR1, syscall.SIGTERM)
	go r.run()
	return r
}

func (r *signalRelay) run() {
	for {
		select {
		case <-r.stop:
			return
		case sig := <-r.ch:
			switch sig {
			case syscall.SIGHUP:
				r.hup.Add(1)
			case syscall.SIGUSR1:
				r.usr1.Add(1)
			case syscall.SIGINT, syscall.SIGTERM:
				if !r.termPending.CompareAndSwap(false, true) {
					// Second SIGINT/SIGTERM arrived before the loop
					// acted on the first: hard abort (spec §4.6).
					os.Exit(1)
				}
				r.term.Add(1)
			}
			r.wake()
		}
	}
}

func (r *signalRelay) wake() {
	fd := r.wakeFD.Load()
	if fd < 0 {
		return
	}
	syscall.Write(int(fd), []byte{0})
}

// setWakeFD points the relay at a new multiplexer's wake pipe, for use
// across Init cycles within one Loop invocation.
func (r *signalRelay) setWakeFD(fd int) {
	r.wakeFD.Store(int64(fd))
}

// Snapshot is the counters consumed once per loop iteration (spec
// §4.6: "After the wait returns with 'interrupted', the loop consumes
// the counters").
type Snapshot struct {
	HUP, USR1, Term uint64
}

// Consume reads and zeroes the HUP/USR1 counters. The term counter is
// read but left in place; AckTerm zeroes it.
func (r *signalRelay) Consume() Snapshot {
	return Snapshot{
		HUP:  r.hup.Swap(0),
		USR1: r.usr1.Swap(0),
		Term: r.term.Load(),
	}
}

// HasTerm reports whether a SIGINT/SIGTERM is outstanding.
func (r *signalRelay) HasTerm() bool { return r.termPending.Load() }

// AckTerm marks the outstanding SIGINT/SIGTERM as acted upon, so a
// subsequent one starts a fresh "first" rather than hard-aborting.
func (r *signalRelay) AckTerm() {
	r.term.Store(0)
	r.termPending.Store(false)
}

func (r *signalRelay) Close() {
	signal.Stop(r.ch)
	close(r.stop)
}
