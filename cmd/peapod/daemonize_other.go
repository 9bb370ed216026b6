//go:build !unix

package main

import (
	"fmt"
	"runtime"
)

func daemonize() error {
	return fmt.Errorf("daemonize: not supported on %s", runtime.GOOS)
}
