package runner

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

var ErrCommandNotFound = errors.New("runner: command not found")

// LookPath resolves command against the PATH entries of the given environment
// snapshot rather than the live process environment, so resolution sees the
// activated PATH even when the process itself was never mutated.
func LookPath(command string, environ []string) (string, error) {
	if strings.ContainsRune(command, os.PathSeparator) {
		if err := checkExecutable(command); err != nil {
			return "", err
		}
		return command, nil
	}

	path := ""
	for i := len(environ) - 1; i >= 0; i-- {
		if strings.HasPrefix(environ[i], "PATH=") {
			path = environ[i][len("PATH="):]
			break
		}
	}
	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			dir = "."
		}
		candidate := filepath.Join(dir, command)
		if err := checkExecutable(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrCommandNotFound, command)
}

func checkExecutable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fs.ErrPermission
	}
	if info.Mode().Perm()&0o111 == 0 {
		return fs.ErrPermission
	}
	return nil
}
