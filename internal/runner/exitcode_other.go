//go:build !darwin && !linux

package runner

import "os/exec"

func exitCode(exitErr *exec.ExitError) int {
	return exitErr.ExitCode()
}
