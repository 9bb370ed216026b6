package script

import (
	"errors"
	"os/exec"
	"syscall"
)

// Outcome reports how a script child exited. A non-zero ExitCode or
// Signaled outcome is logged by the caller as a warning; it never
// affects the proxy (spec §4.5).
type Outcome struct {
	ExitCode int
	Signaled bool
	Signal   string
}

// Run executes path with argv = [path] and the given clean environment,
// redirecting stdin/stdout/stderr to the null device and waiting
// synchronously for completion, as spec §4.5 describes. It uses
// os/exec rather than a hand-rolled fork/exec: exec.Cmd already closes
// every file descriptor above stderr (it inherits none by default) and
// replaces the child's environment wholesale when Env is set, matching
// the isolation contract without reimplementing process creation.
func Run(path string, env []string) (Outcome, error) {
	cmd := exec.Command(path)
	cmd.Env = env

	err := cmd.Run()
	if err == nil {
		return Outcome{}, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		out := Outcome{ExitCode: exitErr.ExitCode()}
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			out.Signaled = true
			out.Signal = ws.Signal().String()
		}
		return out, nil
	}
	return Outcome{}, err
}
