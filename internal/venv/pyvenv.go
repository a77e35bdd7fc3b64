package venv

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
)

// PyvenvCfg is the parsed pyvenv.cfg of a virtual environment. Diagnostics
// only; a launch never depends on it.
type PyvenvCfg struct {
	Home       string
	Version    string
	Executable string
	Prompt     string
	Raw        map[string]string
}

// ReadPyvenvCfg parses <root>/pyvenv.cfg ("key = value" lines).
func ReadPyvenvCfg(root string) (PyvenvCfg, error) {
	f, err := os.Open(filepath.Join(root, "pyvenv.cfg"))
	if err != nil {
		return PyvenvCfg{}, err
	}
	defer f.Close()

	cfg := PyvenvCfg{Raw: make(map[string]string)}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)
		cfg.Raw[key] = value

		switch key {
		case "home":
			cfg.Home = value
		case "version", "version_info":
			cfg.Version = value
		case "executable":
			cfg.Executable = value
		case "prompt":
			cfg.Prompt = value
		}
	}
	if err := scanner.Err(); err != nil {
		return PyvenvCfg{}, err
	}
	return cfg, nil
}
