//go:build darwin || linux

package runner

import (
	"os/exec"
	"syscall"
)

// Children killed by a signal report 128+signum, matching shell convention.
func exitCode(exitErr *exec.ExitError) int {
	if status, ok := exitErr.Sys().(syscall.WaitStatus); ok && status.Signaled() {
		return 128 + int(status.Signal())
	}
	return exitErr.ExitCode()
}
