//go:build unix

package pidfile

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
)

// File is an open, exclusively-locked PID file. Close releases the
// lock and leaves the file in place; Remove additionally unlinks it.
type File struct {
	f    *os.File
	path string
}

// Acquire implements spec §6's PID file contract: open (creating if
// absent), take an exclusive advisory lock, read any existing content
// and check whether that PID is still live, then rewind and write our
// own PID followed by a newline, fsync, and read back to verify.
// Acquire refuses to proceed if an existing PID is still live.
func Acquire(path string) (*File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("pidfile: open %s: %w", path, err)
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		return nil, fmt.Errorf("pidfile: %s: another instance holds the lock: %w", path, err)
	}

	if existing, ok := readPID(f); ok && processAlive(existing) {
		f.Close()
		return nil, fmt.Errorf("pidfile: %s: process %d is still running", path, existing)
	}

	pid := os.Getpid()
	if err := writePID(f, pid); err != nil {
		f.Close()
		return nil, err
	}

	if got, ok := readPID(f); !ok || got != pid {
		f.Close()
		return nil, fmt.Errorf("pidfile: %s: read-back verification failed", path)
	}

	return &File{f: f, path: path}, nil
}

func readPID(f *os.File) (int, bool) {
	if _, err := f.Seek(0, 0); err != nil {
		return 0, false
	}
	buf := make([]byte, 32)
	n, err := f.Read(buf)
	if err != nil && n == 0 {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(buf[:n])))
	if err != nil {
		return 0, false
	}
	return pid, true
}

func writePID(f *os.File, pid int) error {
	if err := f.Truncate(0); err != nil {
		return fmt.Errorf("pidfile: truncate: %w", err)
	}
	if _, err := f.Seek(0, 0); err != nil {
		return fmt.Errorf("pidfile: seek: %w", err)
	}
	if _, err := fmt.Fprintf(f, "%d\n", pid); err != nil {
		return fmt.Errorf("pidfile: write: %w", err)
	}
	return f.Sync()
}

// processAlive reports whether pid names a live process, via the
// kill(pid, 0) probe.
func processAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	return unix.Kill(pid, 0) == nil
}

// Close releases the advisory lock and closes the file without
// removing it.
func (p *File) Close() error {
	return p.f.Close()
}

// Remove closes and unlinks the PID file; called on clean shutdown.
func (p *File) Remove() error {
	err := p.f.Close()
	if rmErr := os.Remove(p.path); rmErr != nil && err == nil {
		err = rmErr
	}
	return err
}
