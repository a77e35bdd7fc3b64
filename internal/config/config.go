package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

const EnvConfigPath = "DASHCTL_CONFIG"

var ErrInvalidTheme = errors.New("config: invalid theme")

// Theme selects the dashboard color scheme passed on the child argv.
type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

// Profile is the resolved launch configuration for one dashctl invocation.
type Profile struct {
	ProjectDir    string
	VenvDir       string
	Command       string
	RunSubcommand string
	AppEntry      string
	ThemeBase     Theme
	ExtraArgs     []string
	EnvFile       string
	LogLevel      string
}

// dashctl.toml key mapping to launch profile settings.
type fileConfig struct {
	ProjectDir    string   `toml:"project_dir"`
	VenvDir       string   `toml:"venv_dir"`
	Command       string   `toml:"command"`
	RunSubcommand string   `toml:"run_subcommand"`
	AppEntry      string   `toml:"app_entry"`
	ThemeBase     string   `toml:"theme_base"`
	ExtraArgs     []string `toml:"extra_args"`
	EnvFile       string   `toml:"env_file"`
	LogLevel      string   `toml:"log_level"`
}

// DefaultProfile matches the original launch script: enter the project,
// activate "venv", run the entry through streamlit with the dark theme.
func DefaultProfile() Profile {
	return Profile{
		ProjectDir:    ".",
		VenvDir:       "venv",
		Command:       "streamlit",
		RunSubcommand: "run",
		AppEntry:      "main.py",
		ThemeBase:     ThemeDark,
		LogLevel:      "info",
	}
}

// Load reads a profile from path with default overlay: keys absent from the
// file keep their DefaultProfile values.
func Load(path string) (Profile, error) {
	cfg := DefaultProfile()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return Profile{}, fmt.Errorf("load launch profile (%s): %w", path, err)
	}

	if meta.IsDefined("project_dir") {
		cfg.ProjectDir = strings.TrimSpace(raw.ProjectDir)
	}
	if meta.IsDefined("venv_dir") {
		cfg.VenvDir = strings.TrimSpace(raw.VenvDir)
	}
	if meta.IsDefined("command") {
		cfg.Command = strings.TrimSpace(raw.Command)
	}
	if meta.IsDefined("run_subcommand") {
		cfg.RunSubcommand = strings.TrimSpace(raw.RunSubcommand)
	}
	if meta.IsDefined("app_entry") {
		cfg.AppEntry = strings.TrimSpace(raw.AppEntry)
	}
	if meta.IsDefined("theme_base") {
		cfg.ThemeBase = Theme(strings.ToLower(strings.TrimSpace(raw.ThemeBase)))
	}
	if meta.IsDefined("extra_args") {
		cfg.ExtraArgs = raw.ExtraArgs
	}
	if meta.IsDefined("env_file") {
		cfg.EnvFile = strings.TrimSpace(raw.EnvFile)
	}
	if meta.IsDefined("log_level") {
		cfg.LogLevel = strings.TrimSpace(raw.LogLevel)
	}

	if err := Validate(cfg); err != nil {
		return Profile{}, err
	}
	return cfg, nil
}

func Validate(cfg Profile) error {
	if strings.TrimSpace(cfg.ProjectDir) == "" {
		return fmt.Errorf("launch profile missing project_dir")
	}
	if strings.TrimSpace(cfg.VenvDir) == "" {
		return fmt.Errorf("launch profile missing venv_dir")
	}
	if strings.TrimSpace(cfg.Command) == "" {
		return fmt.Errorf("launch profile missing command")
	}
	if strings.TrimSpace(cfg.AppEntry) == "" {
		return fmt.Errorf("launch profile missing app_entry")
	}
	switch cfg.ThemeBase {
	case ThemeDark, ThemeLight:
	default:
		return fmt.Errorf("%w: %q (expected dark or light)", ErrInvalidTheme, cfg.ThemeBase)
	}
	return nil
}

// ResolveEnvFile returns the env_file path anchored at the project directory
// when relative; empty when no env_file is configured.
func (p Profile) ResolveEnvFile() string {
	path := strings.TrimSpace(p.EnvFile)
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(p.ProjectDir, path)
}

// Discover picks the profile path for a bare invocation. Order: the explicit
// flag value, $DASHCTL_CONFIG, ./dashctl.toml, then the user config dir.
// Empty means no profile file anywhere and defaults apply. Only probed
// candidates are skipped when absent; an explicit path is returned as-is so
// loading surfaces the missing-file error.
func Discover(explicit string) string {
	if strings.TrimSpace(explicit) != "" {
		return explicit
	}
	if env := strings.TrimSpace(os.Getenv(EnvConfigPath)); env != "" {
		return env
	}
	for _, candidate := range []string{"dashctl.toml", userConfigPath()} {
		if candidate == "" {
			continue
		}
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

func userConfigPath() string {
	if xdg := strings.TrimSpace(os.Getenv("XDG_CONFIG_HOME")); xdg != "" {
		return filepath.Join(xdg, "dashctl", "config.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "dashctl", "config.toml")
}
