package runner

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"os/exec"
)

// ProcessSpec describes one foreground child launch.
type ProcessSpec struct {
	Command string // resolved executable path
	Args    []string
	Dir     string
	Env     []string
	Stdin   io.Reader
	Stdout  io.Writer
	Stderr  io.Writer
}

// Result is the terminal state of a spawned child.
type Result struct {
	ExitCode int
	Err      error
}

// Handle is a started child process.
type Handle interface {
	PID() int
	Signal(sig os.Signal) error
	Wait() Result
}

// Spawner abstracts child process creation for the launcher.
type Spawner interface {
	Start(spec ProcessSpec) (Handle, error)
}

// ExecSpawner starts processes on the local host.
type ExecSpawner struct{}

func (ExecSpawner) Start(spec ProcessSpec) (Handle, error) {
	cmd := exec.Command(spec.Command, spec.Args...)
	cmd.Dir = spec.Dir
	cmd.Env = spec.Env
	cmd.Stdin = spec.Stdin
	cmd.Stdout = spec.Stdout
	cmd.Stderr = spec.Stderr

	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return execHandle{cmd: cmd}, nil
}

type execHandle struct {
	cmd *exec.Cmd
}

func (h execHandle) PID() int {
	if h.cmd.Process == nil {
		return 0
	}
	return h.cmd.Process.Pid
}

func (h execHandle) Signal(sig os.Signal) error {
	if h.cmd.Process == nil {
		return errors.New("runner: process not started")
	}
	return h.cmd.Process.Signal(sig)
}

func (h execHandle) Wait() Result {
	err := h.cmd.Wait()
	if err == nil {
		return Result{ExitCode: 0}
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return Result{ExitCode: exitCode(exitErr), Err: err}
	}
	return Result{ExitCode: 1, Err: err}
}

// StartExitCode maps a Start failure to the shell convention: 127 when the
// command cannot be found, 126 when it is present but not runnable.
func StartExitCode(err error) int {
	var execErr *exec.Error
	if errors.As(err, &execErr) {
		return 127
	}
	if errors.Is(err, fs.ErrNotExist) {
		return 127
	}
	if errors.Is(err, fs.ErrPermission) {
		return 126
	}
	return 1
}
