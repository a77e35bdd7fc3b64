package config

import (
	"fmt"
	"os"
)

func Template() string {
	return launchTemplate
}

func WriteTemplate(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(launchTemplate), 0o600)
}

const launchTemplate = `# dashctl launch profile
project_dir = "."
venv_dir = "venv"
command = "streamlit"
run_subcommand = "run"
app_entry = "main.py"
theme_base = "dark"
extra_args = []
# env_file = ".env"
log_level = "info"
`
