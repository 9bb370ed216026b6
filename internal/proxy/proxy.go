//go:build unix

// Package proxy implements the event loop of spec §4.6: blocking wait
// on all interface sockets, signal handling, per-packet orchestration,
// and the Init/Run/Cooldown/Exit restart policy.
package proxy

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/kangtastic/peapod/internal"
	"github.com/kangtastic/peapod/internal/ifacetable"
	"github.com/kangtastic/peapod/internal/pkt"
	"github.com/kangtastic/peapod/internal/rawsock"
	"github.com/kangtastic/peapod/internal/script"
)

// Options configures one run of the daemon loop.
type Options struct {
	// Oneshot replaces Cooldown with immediate Exit(failure) on any
	// runtime-transient error (spec §4.6).
	Oneshot bool
	// QuietScript suppresses the info-level log line reporting a
	// script's successful exit; failures are always logged.
	QuietScript bool
	Logger      *slog.Logger
}

// ErrInterfaceMismatch is the hard-abort condition of spec §4.6:
// fewer interfaces came up after reinitialisation than are configured
// ("inconsistency between the number of configured interfaces and the
// number ready after reinitialisation").
var ErrInterfaceMismatch = errors.New("proxy: interface count mismatch after reinit")

// OpenSockets opens one raw socket per record, in place, and applies
// any pending static MAC mutation (spec §3, §4.2 "MAC mutation").
// Returns the number of interfaces successfully opened.
func OpenSockets(table *ifacetable.Table) (ready int, err error) {
	for _, r := range table.Records() {
		sock, err := rawsock.Open(r.Name, r.Index, r.Promiscuous)
		if err != nil {
			return ready, fmt.Errorf("proxy: open %q: %w", r.Name, err)
		}
		r.Socket = sock
		if r.StaticMAC.Pending {
			if err := sock.SetHWAddr(r.StaticMAC.Addr); err != nil {
				return ready, fmt.Errorf("proxy: set-mac %q: %w", r.Name, err)
			}
			r.StaticMAC.Pending = false
		}
		ready++
	}
	return ready, nil
}

// maxMTU returns the largest MTU among table's records, so the single
// shared frame buffer (spec §4.1) can hold any of them.
func maxMTU(table *ifacetable.Table) int {
	max := 0
	for _, r := range table.Records() {
		if r.MTU > max {
			max = r.MTU
		}
	}
	return max
}

// realSender implements Sender against real sockets and real
// subprocesses (spec §4.2 send, §4.5 script runner).
type realSender struct {
	quiet bool
}

func (s *realSender) Send(rec *ifacetable.Record, frame []byte) error {
	return rec.Socket.Send(frame)
}

func (s *realSender) RunScript(path string, env []string, logger *slog.Logger) {
	out, err := script.Run(path, env)
	switch {
	case err != nil:
		logger.Error("script exec failed", "path", path, "err", err)
	case out.Signaled:
		logger.Warn("script terminated by signal", "path", path, "signal", out.Signal)
	case out.ExitCode != 0:
		logger.Warn("script exited non-zero", "path", path, "code", out.ExitCode)
	case !s.quiet:
		logger.Info("script exited", "path", path, "code", out.ExitCode)
	}
}

// BuildRecords constructs a fresh, unopened set of interface records
// for one Init cycle. Loop calls it once per Init, never re-reading
// the config file itself (spec §4.6 Cooldown: "transition back to
// Init without re-reading the config file" — the caller is expected
// to close over an already-parsed config.Config).
type BuildRecords func() (*ifacetable.Table, error)

// Loop runs Init → Run, transitioning through Cooldown on non-fatal
// runtime errors and restarting from Init until Exit (clean
// termination on SIGINT/SIGTERM) or a fatal error. buildTable builds
// the interface table from the already-parsed config; Loop itself
// opens the sockets, registers them with the multiplexer, allocates
// the frame buffer, and owns Run/Cooldown/Exit.
func Loop(opts Options, buildTable BuildRecords) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sender := &realSender{quiet: opts.QuietScript}
	relay := newSignalRelay(-1)
	defer relay.Close()

	for {
		table, err := buildTable()
		if err != nil {
			return fmt.Errorf("proxy: init: %w", err)
		}

		ready, openErr := OpenSockets(table)
		if openErr != nil {
			table.Close()
			return fmt.Errorf("proxy: init: %w", openErr)
		}
		if ready != table.Len() {
			table.Close()
			return ErrInterfaceMismatch
		}

		mux, err := newMultiplexer()
		if err != nil {
			table.Close()
			return fmt.Errorf("proxy: init: %w", err)
		}
		for _, r := range table.Records() {
			if err := mux.Register(r.Socket.Fd()); err != nil {
				mux.Close()
				table.Close()
				return fmt.Errorf("proxy: init: %w", err)
			}
		}
		relay.setWakeFD(mux.WakeWriteFD())

		buf := pkt.NewBuffer(maxMTU(table))

		cooldown, runErr := run(table, mux, relay, buf, opts, sender, logger)

		mux.Close()
		table.Close()

		if runErr != nil {
			return runErr
		}
		if !cooldown {
			return nil
		}
		if opts.Oneshot {
			return errors.New("proxy: runtime error in oneshot mode")
		}

		logger.Error("entering cooldown before reinit", "seconds", internal.CooldownInterval.Seconds())
		internal.SleepInterruptible(internal.CooldownInterval, relay.HasTerm)
		if relay.HasTerm() {
			relay.AckTerm()
			logger.Info("terminating during cooldown")
			return nil
		}
		logger.Info("reinitialising")
	}
}

// run implements the Run state: block in the multiplexer, dispatch
// one packet at a time, and report whether the loop should transition
// to Cooldown (true) or Exit cleanly (false), or a fatal error.
func run(
	table *ifacetable.Table,
	mux multiplexer,
	relay *signalRelay,
	buf *pkt.Buffer,
	opts Options,
	sender Sender,
	logger *slog.Logger,
) (cooldown bool, err error) {
	bySocketFD := make(map[int]*ifacetable.Record, table.Len())
	for _, r := range table.Records() {
		bySocketFD[r.Socket.Fd()] = r
	}
	expectErr := make(map[int]bool, table.Len())

	for {
		events, interrupted, err := mux.Wait()
		if err != nil {
			return cooldownOrFatal(opts, err)
		}
		if interrupted {
			snap := relay.Consume()
			if snap.HUP > 0 {
				logger.Info("received SIGHUP", "count", snap.HUP)
			}
			if snap.USR1 > 0 {
				logger.Info("received SIGUSR1", "count", snap.USR1)
			}
			if relay.HasTerm() {
				relay.AckTerm()
				logger.Info("terminating on signal")
				return false, nil
			}
			continue
		}

		for _, ev := range events {
			rec, ok := bySocketFD[ev.Fd]
			if !ok {
				logger.Warn("spurious multiplexer event on unknown descriptor", "fd", ev.Fd)
				return cooldownOrFatal(opts, errors.New("proxy: spurious event"))
			}

			if ev.Error {
				if expectErr[ev.Fd] {
					delete(expectErr, ev.Fd)
					logger.Info("expected error event after MAC mutation", "iface", rec.Name)
				} else {
					logger.Warn("spurious error event", "iface", rec.Name)
				}
				return cooldownOrFatal(opts, fmt.Errorf("proxy: error event on %q", rec.Name))
			}

			res, recvErr := rec.Socket.Recv(buf)
			if recvErr != nil {
				if errors.Is(recvErr, rawsock.ErrRunt) || errors.Is(recvErr, rawsock.ErrGiant) {
					logger.Warn("dropped malformed frame", "iface", rec.Name, "err", recvErr)
					continue
				}
				return cooldownOrFatal(opts, recvErr)
			}

			rr := rawRecv{
				Dest:        res.Dest,
				Source:      res.Source,
				Length:      res.Length,
				BodyLen:     res.BodyLen,
				VLANPresent: res.VLANPresent,
				TCI:         res.TCI,
				Timestamp:   res.Timestamp,
			}
			_, mutated, procErr := processPacket(table, buf, rec, rr, sender, logger)
			if procErr != nil {
				return cooldownOrFatal(opts, procErr)
			}
			for _, m := range mutated {
				expectErr[m.Socket.Fd()] = true
			}
		}
	}
}

// cooldownOrFatal implements the oneshot variant of spec §4.6: "a
// oneshot mode replaces Cooldown with immediate Exit(failure)".
func cooldownOrFatal(opts Options, err error) (bool, error) {
	if opts.Oneshot {
		return false, err
	}
	return true, nil
}
