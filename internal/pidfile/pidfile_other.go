//go:build !unix

package pidfile

import (
	"fmt"
	"runtime"
)

// File is the non-Unix stand-in; advisory file locking and liveness
// probing by PID are POSIX facilities this package depends on.
type File struct{}

func Acquire(path string) (*File, error) {
	return nil, fmt.Errorf("pidfile: not supported on %s", runtime.GOOS)
}

func (p *File) Close() error  { return nil }
func (p *File) Remove() error { return nil }
