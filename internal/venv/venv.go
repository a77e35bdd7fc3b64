package venv

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrNotFound        = errors.New("venv: environment directory not found")
	ErrActivateMissing = errors.New("venv: activation artifact missing")
)

// Env is a located virtual environment.
type Env struct {
	Root     string // absolute venv root
	BinDir   string // Root/bin (posix) or Root/Scripts (windows layout)
	ActivatePath string // activation artifact inside BinDir
}

// Mutation is one environment-variable change activation applies.
type Mutation struct {
	Key   string
	Value string
	Unset bool
}

// Find locates the venv under projectDir and verifies its activation
// artifact. dir may be absolute; otherwise it resolves against projectDir.
func Find(projectDir, dir string) (Env, error) {
	root := strings.TrimSpace(dir)
	if root == "" {
		root = "venv"
	}
	if !filepath.IsAbs(root) {
		root = filepath.Join(projectDir, root)
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return Env{}, err
	}

	info, err := os.Stat(root)
	if err != nil || !info.IsDir() {
		return Env{}, fmt.Errorf("%w: %s", ErrNotFound, root)
	}

	for _, layout := range []string{"bin", "Scripts"} {
		artifact := filepath.Join(root, layout, "activate")
		if _, err := os.Stat(artifact); err == nil {
			return Env{
				Root:     root,
				BinDir:   filepath.Join(root, layout),
				ActivatePath: artifact,
			}, nil
		}
	}
	return Env{}, fmt.Errorf("%w: %s", ErrActivateMissing, filepath.Join(root, "bin", "activate"))
}

// Mutations computes the activation effect against an environment snapshot
// without touching the process: set VIRTUAL_ENV, prepend BinDir to PATH,
// drop PYTHONHOME. Prepending is skipped when BinDir already leads PATH.
func (e Env) Mutations(environ []string) []Mutation {
	muts := []Mutation{{Key: "VIRTUAL_ENV", Value: e.Root}}

	path, _ := lookup(environ, "PATH")
	if !leadsPath(path, e.BinDir) {
		value := e.BinDir
		if path != "" {
			value += string(os.PathListSeparator) + path
		}
		muts = append(muts, Mutation{Key: "PATH", Value: value})
	}
	if _, ok := lookup(environ, "PYTHONHOME"); ok {
		muts = append(muts, Mutation{Key: "PYTHONHOME", Unset: true})
	}
	return muts
}

// Activate applies the activation effect to the running process. The
// mutations hold for the remainder of the session and are inherited by
// everything spawned afterwards.
func (e Env) Activate() ([]Mutation, error) {
	muts := e.Mutations(os.Environ())
	for _, m := range muts {
		if m.Unset {
			if err := os.Unsetenv(m.Key); err != nil {
				return nil, err
			}
			continue
		}
		if err := os.Setenv(m.Key, m.Value); err != nil {
			return nil, err
		}
	}
	return muts, nil
}

// ApplyMutations returns a copy of environ with muts applied, preserving the
// order of untouched entries.
func ApplyMutations(environ []string, muts []Mutation) []string {
	out := make([]string, 0, len(environ)+len(muts))
	handled := make(map[string]struct{}, len(muts))

	byKey := make(map[string]Mutation, len(muts))
	for _, m := range muts {
		byKey[m.Key] = m
	}

	for _, kv := range environ {
		key := kv
		if i := strings.IndexByte(kv, '='); i >= 0 {
			key = kv[:i]
		}
		if m, ok := byKey[key]; ok {
			handled[key] = struct{}{}
			if m.Unset {
				continue
			}
			out = append(out, m.Key+"="+m.Value)
			continue
		}
		out = append(out, kv)
	}
	for _, m := range muts {
		if _, ok := handled[m.Key]; ok || m.Unset {
			continue
		}
		out = append(out, m.Key+"="+m.Value)
	}
	return out
}

func lookup(environ []string, key string) (string, bool) {
	prefix := key + "="
	for i := len(environ) - 1; i >= 0; i-- {
		if strings.HasPrefix(environ[i], prefix) {
			return environ[i][len(prefix):], true
		}
	}
	return "", false
}

func leadsPath(path, dir string) bool {
	if path == dir {
		return true
	}
	return strings.HasPrefix(path, dir+string(os.PathListSeparator))
}
