package preflight

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"

	"github.com/LouisEnslin99/stock-analysis-dashboard/internal/config"
	"github.com/LouisEnslin99/stock-analysis-dashboard/internal/runner"
	"github.com/LouisEnslin99/stock-analysis-dashboard/internal/venv"
)

func checkProjectDir(p config.Profile) Result {
	dir, err := filepath.Abs(p.ProjectDir)
	if err != nil {
		return Result{Status: StatusFail, Detail: err.Error()}
	}
	info, err := os.Stat(dir)
	if err != nil {
		return Result{Status: StatusFail, Detail: fmt.Sprintf("not accessible: %s", dir)}
	}
	if !info.IsDir() {
		return Result{Status: StatusFail, Detail: fmt.Sprintf("not a directory: %s", dir)}
	}
	return Result{Status: StatusPass, Detail: dir}
}

func checkVenv(p config.Profile) Result {
	env, err := venv.Find(p.ProjectDir, p.VenvDir)
	if err != nil {
		return Result{Status: StatusFail, Detail: err.Error()}
	}
	return Result{Status: StatusPass, Detail: fmt.Sprintf("activation artifact at %s", env.ActivatePath)}
}

// The interpreter is what the activated PATH actually hands the dashboard
// command; a venv without one launches nothing useful.
func checkInterpreter(p config.Profile) Result {
	env, err := venv.Find(p.ProjectDir, p.VenvDir)
	if err != nil {
		return Result{Status: StatusFail, Detail: "venv unavailable"}
	}
	for _, name := range []string{"python", "python3", "python.exe"} {
		candidate := filepath.Join(env.BinDir, name)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return Result{Status: StatusPass, Detail: candidate}
		}
	}
	return Result{Status: StatusFail, Detail: fmt.Sprintf("no interpreter under %s", env.BinDir)}
}

func checkPyvenvCfg(p config.Profile) Result {
	env, err := venv.Find(p.ProjectDir, p.VenvDir)
	if err != nil {
		return Result{Status: StatusWarn, Detail: "venv unavailable"}
	}
	cfg, err := venv.ReadPyvenvCfg(env.Root)
	if err != nil {
		return Result{Status: StatusWarn, Detail: fmt.Sprintf("pyvenv.cfg unreadable: %v", err)}
	}
	detail := "present"
	if cfg.Version != "" {
		detail = "python " + cfg.Version
	}
	return Result{Status: StatusPass, Detail: detail}
}

func checkAppEntry(p config.Profile) Result {
	entry := p.AppEntry
	if !filepath.IsAbs(entry) {
		entry = filepath.Join(p.ProjectDir, entry)
	}
	if info, err := os.Stat(entry); err != nil || info.IsDir() {
		return Result{Status: StatusFail, Detail: fmt.Sprintf("entry point missing: %s", entry)}
	}
	return Result{Status: StatusPass, Detail: entry}
}

// checkCommand resolves the dashboard command against the PATH a launch
// would see after activation, without mutating anything.
func checkCommand(p config.Profile) Result {
	environ := os.Environ()
	if env, err := venv.Find(p.ProjectDir, p.VenvDir); err == nil {
		environ = venv.ApplyMutations(environ, env.Mutations(environ))
	}
	path, err := runner.LookPath(p.Command, environ)
	if err != nil {
		return Result{Status: StatusFail, Detail: err.Error()}
	}
	return Result{Status: StatusPass, Detail: path}
}

func checkEnvFile(p config.Profile) Result {
	path := p.ResolveEnvFile()
	if path == "" {
		return Result{Status: StatusPass, Detail: "not configured"}
	}
	if _, err := godotenv.Read(path); err != nil {
		return Result{Status: StatusFail, Detail: fmt.Sprintf("env_file unreadable: %v", err)}
	}
	return Result{Status: StatusPass, Detail: path}
}
