package proxy

// Event is one ready socket reported by a multiplexer Wait call.
type Event struct {
	Fd    int
	Error bool // EPOLLERR/EPOLLHUP or platform equivalent
}

// multiplexer is the narrow surface the event loop needs from the
// platform's readiness-notification facility (spec §4.6: "register all
// sockets with the multiplexer", "wait on all interface sockets").
type multiplexer interface {
	Register(fd int) error
	Wait() (events []Event, interrupted bool, err error)
	// WakeWriteFD returns the write end of the self-pipe the signal
	// relay uses to interrupt a blocked Wait (see signals.go), or -1
	// if unsupported.
	WakeWriteFD() int
	Close() error
}
