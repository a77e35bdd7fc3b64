package launcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/LouisEnslin99/stock-analysis-dashboard/internal/config"
	"github.com/LouisEnslin99/stock-analysis-dashboard/internal/runner"
	"github.com/LouisEnslin99/stock-analysis-dashboard/internal/venv"
)

var (
	ErrProjectDir = errors.New("launcher: project directory unavailable")
	ErrActivation = errors.New("launcher: virtual environment activation failed")
	ErrAppLaunch  = errors.New("launcher: dashboard launch failed")
)

// Config configures one Launcher instance.
type Config struct {
	Profile config.Profile
	Spawner runner.Spawner
	Logger  zerolog.Logger

	// DryRun resolves everything and reports the would-be launch without
	// mutating the process environment or spawning anything.
	DryRun bool

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

func DefaultConfig() Config {
	return Config{
		Profile: config.DefaultProfile(),
		Spawner: runner.ExecSpawner{},
		Logger:  zerolog.Nop(),
		Stdin:   os.Stdin,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
	}
}

// Result is the outcome of one launch invocation.
type Result struct {
	LaunchID  string
	ExitCode  int
	Spawned   bool
	WorkDir   string
	Argv      []string
	Mutations []venv.Mutation
}

// Launcher runs the three-step launch pipeline.
type Launcher struct {
	cfg Config
}

func New(cfg Config) *Launcher {
	if cfg.Spawner == nil {
		cfg.Spawner = runner.ExecSpawner{}
	}
	if cfg.Stdin == nil {
		cfg.Stdin = os.Stdin
	}
	if cfg.Stdout == nil {
		cfg.Stdout = os.Stdout
	}
	if cfg.Stderr == nil {
		cfg.Stderr = os.Stderr
	}
	return &Launcher{cfg: cfg}
}

// Run executes the pipeline: enter the project directory, activate the venv,
// spawn the dashboard, then block until the child exits. The returned exit
// code is the child's own when the child was started; step failures map to
// the shell convention (127 command not found, 126 not runnable, 1 else).
func (l *Launcher) Run(ctx context.Context) (Result, error) {
	profile := l.cfg.Profile
	res := Result{LaunchID: uuid.NewString()}
	logger := l.cfg.Logger.With().Str("launch_id", res.LaunchID).Logger()

	// Step 1: project directory.
	workDir, err := enterProjectDir(profile.ProjectDir, l.cfg.DryRun)
	if err != nil {
		res.ExitCode = 1
		return res, fmt.Errorf("%w: %q: %v", ErrProjectDir, profile.ProjectDir, err)
	}
	res.WorkDir = workDir
	logger.Info().Str("step", "project_dir").Str("dir", workDir).Msg("entered project directory")

	// Step 2: activation.
	env, err := venv.Find(workDir, profile.VenvDir)
	if err != nil {
		res.ExitCode = 1
		return res, fmt.Errorf("%w: %v", ErrActivation, err)
	}
	environ := os.Environ()
	if l.cfg.DryRun {
		res.Mutations = env.Mutations(environ)
	} else {
		res.Mutations, err = env.Activate()
		if err != nil {
			res.ExitCode = 1
			return res, fmt.Errorf("%w: %v", ErrActivation, err)
		}
		environ = os.Environ()
	}
	logger.Info().
		Str("step", "activate").
		Str("venv", env.Root).
		Int("mutations", len(res.Mutations)).
		Msg("virtual environment activated")

	// Step 3: spawn.
	childEnv := environ
	if l.cfg.DryRun {
		childEnv = venv.ApplyMutations(environ, res.Mutations)
	}
	envFile := strings.TrimSpace(profile.EnvFile)
	if envFile != "" && !filepath.IsAbs(envFile) {
		envFile = filepath.Join(workDir, envFile)
	}
	childEnv, err = mergeEnvFile(childEnv, envFile)
	if err != nil {
		res.ExitCode = 1
		return res, fmt.Errorf("%w: %v", ErrAppLaunch, err)
	}

	res.Argv = BuildArgv(profile)
	command, err := runner.LookPath(res.Argv[0], childEnv)
	if err != nil {
		res.ExitCode = 127
		return res, fmt.Errorf("%w: %v", ErrAppLaunch, err)
	}

	if l.cfg.DryRun {
		logger.Info().
			Str("step", "spawn").
			Str("command", command).
			Strs("argv", res.Argv).
			Msg("dry run, dashboard not spawned")
		return res, nil
	}

	handle, err := l.cfg.Spawner.Start(runner.ProcessSpec{
		Command: command,
		Args:    res.Argv[1:],
		Dir:     workDir,
		Env:     childEnv,
		Stdin:   l.cfg.Stdin,
		Stdout:  l.cfg.Stdout,
		Stderr:  l.cfg.Stderr,
	})
	if err != nil {
		res.ExitCode = runner.StartExitCode(err)
		return res, fmt.Errorf("%w: %v", ErrAppLaunch, err)
	}
	res.Spawned = true
	logger.Info().
		Str("step", "spawn").
		Str("command", command).
		Int("pid", handle.PID()).
		Msg("dashboard started")

	child := l.wait(ctx, handle, logger)
	res.ExitCode = child.ExitCode
	logger.Info().Int("exit_code", child.ExitCode).Msg("dashboard exited")
	return res, nil
}

// wait blocks until the child exits. An interrupt or a context cancellation
// is forwarded to the child once; the launcher keeps waiting so the exit
// status it reports is still the child's own.
func (l *Launcher) wait(ctx context.Context, handle runner.Handle, logger zerolog.Logger) runner.Result {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	done := make(chan runner.Result, 1)
	go func() {
		done <- handle.Wait()
	}()

	forwarded := false
	ctxDone := ctx.Done()
	for {
		select {
		case res := <-done:
			return res
		case sig := <-sigCh:
			if !forwarded {
				forwarded = true
				logger.Info().Str("signal", sig.String()).Msg("forwarding signal to dashboard")
				_ = handle.Signal(sig)
			}
		case <-ctxDone:
			ctxDone = nil
			if !forwarded {
				forwarded = true
				logger.Info().Msg("context canceled, signaling dashboard")
				_ = handle.Signal(syscall.SIGTERM)
			}
		}
	}
}

// enterProjectDir resolves and enters the project directory. Dry runs only
// verify the directory so the process working directory stays untouched.
func enterProjectDir(dir string, dryRun bool) (string, error) {
	workDir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	if dryRun {
		info, err := os.Stat(workDir)
		if err != nil {
			return "", err
		}
		if !info.IsDir() {
			return "", fmt.Errorf("not a directory: %s", workDir)
		}
		return workDir, nil
	}
	if err := os.Chdir(workDir); err != nil {
		return "", err
	}
	return workDir, nil
}

// BuildArgv assembles the child argument vector: command, run subcommand,
// entry point, the theme option, then extra args verbatim.
func BuildArgv(p config.Profile) []string {
	argv := []string{p.Command}
	if strings.TrimSpace(p.RunSubcommand) != "" {
		argv = append(argv, p.RunSubcommand)
	}
	argv = append(argv, p.AppEntry, "--theme.base", string(p.ThemeBase))
	argv = append(argv, p.ExtraArgs...)
	return argv
}

// mergeEnvFile fills in variables from an optional dotenv file. Already-set
// variables win, so the activation result is never clobbered. A configured
// but unreadable file is an error; no env_file means no merge.
func mergeEnvFile(environ []string, path string) ([]string, error) {
	if path == "" {
		return environ, nil
	}
	vars, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("env_file %q: %w", path, err)
	}

	present := make(map[string]struct{}, len(environ))
	for _, kv := range environ {
		if i := strings.IndexByte(kv, '='); i >= 0 {
			present[kv[:i]] = struct{}{}
		}
	}
	keys := make([]string, 0, len(vars))
	for key := range vars {
		if _, ok := present[key]; ok {
			continue
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		environ = append(environ, key+"="+vars[key])
	}
	return environ, nil
}
