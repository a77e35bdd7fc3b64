package launcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/LouisEnslin99/stock-analysis-dashboard/internal/config"
	"github.com/LouisEnslin99/stock-analysis-dashboard/internal/runner"
	"github.com/LouisEnslin99/stock-analysis-dashboard/internal/testutil/testlog"
)

type fakeHandle struct {
	exit    int
	block   bool
	release chan struct{}
	signals []os.Signal
}

func newFakeHandle(exit int, block bool) *fakeHandle {
	return &fakeHandle{exit: exit, block: block, release: make(chan struct{})}
}

func (h *fakeHandle) PID() int { return 4242 }

func (h *fakeHandle) Signal(sig os.Signal) error {
	h.signals = append(h.signals, sig)
	close(h.release)
	return nil
}

func (h *fakeHandle) Wait() runner.Result {
	if h.block {
		<-h.release
	}
	return runner.Result{ExitCode: h.exit}
}

type fakeSpawner struct {
	specs    []runner.ProcessSpec
	handle   *fakeHandle
	startErr error
}

func (s *fakeSpawner) Start(spec runner.ProcessSpec) (runner.Handle, error) {
	s.specs = append(s.specs, spec)
	if s.startErr != nil {
		return nil, s.startErr
	}
	return s.handle, nil
}

// buildProject lays out a launchable tree: project dir, venv with activation
// artifact, an executable dashboard command in the venv bin, and the entry.
func buildProject(t *testing.T) (string, string) {
	t.Helper()
	project := t.TempDir()
	binDir := filepath.Join(project, "venv", "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		t.Fatalf("mkdir venv: %v", err)
	}
	files := map[string]os.FileMode{
		filepath.Join(binDir, "activate"):  0o644,
		filepath.Join(binDir, "streamlit"): 0o755,
		filepath.Join(project, "main.py"):  0o644,
	}
	for path, mode := range files {
		if err := os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), mode); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	return project, binDir
}

func testConfig(t *testing.T, project string, spawner runner.Spawner) Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Profile.ProjectDir = project
	cfg.Spawner = spawner
	cfg.Logger = testlog.Start(t)
	return cfg
}

func TestRunHappyPath(t *testing.T) {
	project, binDir := buildProject(t)
	chdir(t, t.TempDir())
	t.Setenv("PATH", "/usr/bin")
	t.Setenv("PYTHONHOME", "/opt/python")
	t.Setenv("VIRTUAL_ENV", "")

	spawner := &fakeSpawner{handle: newFakeHandle(0, false)}
	res, err := New(testConfig(t, project, spawner)).Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(spawner.specs) != 1 {
		t.Fatalf("expected exactly one spawn, got %d", len(spawner.specs))
	}
	if !res.Spawned || res.ExitCode != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}

	spec := spawner.specs[0]
	if spec.Command != filepath.Join(binDir, "streamlit") {
		t.Fatalf("command not resolved through venv bin: %q", spec.Command)
	}
	if spec.Dir != project {
		t.Fatalf("unexpected spawn dir: %q", spec.Dir)
	}
	wantArgs := []string{"run", "main.py", "--theme.base", "dark"}
	if !reflect.DeepEqual(spec.Args, wantArgs) {
		t.Fatalf("unexpected args\nwant: %v\ngot:  %v", wantArgs, spec.Args)
	}

	if got, _ := os.Getwd(); got != project {
		t.Fatalf("working directory not entered: %q", got)
	}
	if got := os.Getenv("VIRTUAL_ENV"); got != filepath.Join(project, "venv") {
		t.Fatalf("activation did not stick: %q", got)
	}
	for _, kv := range spec.Env {
		if strings.HasPrefix(kv, "PYTHONHOME=") {
			t.Fatalf("PYTHONHOME leaked into child env: %q", kv)
		}
	}
}

func TestRunMissingProjectDir(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("VIRTUAL_ENV", "")

	spawner := &fakeSpawner{handle: newFakeHandle(0, false)}
	cfg := testConfig(t, filepath.Join(t.TempDir(), "absent"), spawner)

	res, err := New(cfg).Run(context.Background())
	if !errors.Is(err, ErrProjectDir) {
		t.Fatalf("expected ErrProjectDir, got %v", err)
	}
	if res.ExitCode == 0 {
		t.Fatalf("expected nonzero exit code")
	}
	if len(spawner.specs) != 0 {
		t.Fatalf("dashboard must not spawn on step 1 failure")
	}
	if os.Getenv("VIRTUAL_ENV") != "" {
		t.Fatalf("activation must not run on step 1 failure")
	}
}

func TestRunMissingActivationArtifact(t *testing.T) {
	project := t.TempDir()
	if err := os.MkdirAll(filepath.Join(project, "venv", "bin"), 0o755); err != nil {
		t.Fatalf("mkdir venv: %v", err)
	}
	chdir(t, t.TempDir())

	spawner := &fakeSpawner{handle: newFakeHandle(0, false)}
	res, err := New(testConfig(t, project, spawner)).Run(context.Background())
	if !errors.Is(err, ErrActivation) {
		t.Fatalf("expected ErrActivation, got %v", err)
	}
	if res.ExitCode == 0 {
		t.Fatalf("expected nonzero exit code")
	}
	if len(spawner.specs) != 0 {
		t.Fatalf("dashboard must not spawn on step 2 failure")
	}
}

func TestRunCommandNotFound(t *testing.T) {
	project, binDir := buildVenvOnly(t)
	chdir(t, t.TempDir())
	t.Setenv("PATH", binDir)
	t.Setenv("VIRTUAL_ENV", "")

	spawner := &fakeSpawner{handle: newFakeHandle(0, false)}
	res, err := New(testConfig(t, project, spawner)).Run(context.Background())
	if !errors.Is(err, ErrAppLaunch) {
		t.Fatalf("expected ErrAppLaunch, got %v", err)
	}
	if res.ExitCode != 127 {
		t.Fatalf("expected exit 127, got %d", res.ExitCode)
	}
	if len(spawner.specs) != 0 {
		t.Fatalf("spawn must not happen when the command is unresolvable")
	}
}

// buildVenvOnly lays out an activatable venv with no dashboard command.
func buildVenvOnly(t *testing.T) (string, string) {
	t.Helper()
	project := t.TempDir()
	binDir := filepath.Join(project, "venv", "bin")
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		t.Fatalf("mkdir venv: %v", err)
	}
	if err := os.WriteFile(filepath.Join(binDir, "activate"), []byte("# activate\n"), 0o644); err != nil {
		t.Fatalf("write activate: %v", err)
	}
	return project, binDir
}

func TestRunPropagatesChildExitCode(t *testing.T) {
	project, _ := buildProject(t)
	chdir(t, t.TempDir())
	t.Setenv("PATH", "/usr/bin")
	t.Setenv("VIRTUAL_ENV", "")

	spawner := &fakeSpawner{handle: newFakeHandle(3, false)}
	res, err := New(testConfig(t, project, spawner)).Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.ExitCode != 3 {
		t.Fatalf("expected child exit code 3, got %d", res.ExitCode)
	}
}

func TestRunStartFailure(t *testing.T) {
	project, _ := buildProject(t)
	chdir(t, t.TempDir())
	t.Setenv("PATH", "/usr/bin")
	t.Setenv("VIRTUAL_ENV", "")

	spawner := &fakeSpawner{startErr: os.ErrPermission}
	res, err := New(testConfig(t, project, spawner)).Run(context.Background())
	if !errors.Is(err, ErrAppLaunch) {
		t.Fatalf("expected ErrAppLaunch, got %v", err)
	}
	if res.ExitCode != 126 {
		t.Fatalf("expected exit 126, got %d", res.ExitCode)
	}
	if res.Spawned {
		t.Fatalf("start failure must not report a spawned child")
	}
}

func TestRunDryRunSpawnsNothing(t *testing.T) {
	project, binDir := buildProject(t)
	start := t.TempDir()
	chdir(t, start)
	t.Setenv("PATH", "/usr/bin")
	t.Setenv("PYTHONHOME", "/opt/python")

	spawner := &fakeSpawner{handle: newFakeHandle(0, false)}
	cfg := testConfig(t, project, spawner)
	cfg.DryRun = true

	res, err := New(cfg).Run(context.Background())
	if err != nil {
		t.Fatalf("dry run: %v", err)
	}
	if len(spawner.specs) != 0 || res.Spawned {
		t.Fatalf("dry run must not spawn")
	}
	if got, _ := os.Getwd(); got != start {
		t.Fatalf("dry run must not change the working directory: %q", got)
	}
	if got := os.Getenv("PYTHONHOME"); got != "/opt/python" {
		t.Fatalf("dry run must not mutate the process env: %q", got)
	}
	if len(res.Mutations) == 0 {
		t.Fatalf("dry run must still report the mutation set")
	}
	if res.Argv[0] != "streamlit" {
		t.Fatalf("unexpected argv: %v", res.Argv)
	}
	_ = binDir
}

func TestRunEnvFileFillsWithoutClobbering(t *testing.T) {
	project, _ := buildProject(t)
	envFile := filepath.Join(project, ".env")
	content := "API_TOKEN=sekret\nVIRTUAL_ENV=/should/not/win\n"
	if err := os.WriteFile(envFile, []byte(content), 0o644); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	chdir(t, t.TempDir())
	t.Setenv("PATH", "/usr/bin")
	t.Setenv("VIRTUAL_ENV", "")

	spawner := &fakeSpawner{handle: newFakeHandle(0, false)}
	cfg := testConfig(t, project, spawner)
	cfg.Profile.EnvFile = ".env"

	if _, err := New(cfg).Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}

	env := spawner.specs[0].Env
	var token, virtualEnv string
	for _, kv := range env {
		if strings.HasPrefix(kv, "API_TOKEN=") {
			token = kv
		}
		if strings.HasPrefix(kv, "VIRTUAL_ENV=") {
			virtualEnv = kv
		}
	}
	if token != "API_TOKEN=sekret" {
		t.Fatalf("env_file variable missing: %q", token)
	}
	if virtualEnv != "VIRTUAL_ENV="+filepath.Join(project, "venv") {
		t.Fatalf("activation value clobbered by env_file: %q", virtualEnv)
	}
}

func TestRunEnvFileMissingIsFatal(t *testing.T) {
	project, _ := buildProject(t)
	chdir(t, t.TempDir())
	t.Setenv("PATH", "/usr/bin")
	t.Setenv("VIRTUAL_ENV", "")

	spawner := &fakeSpawner{handle: newFakeHandle(0, false)}
	cfg := testConfig(t, project, spawner)
	cfg.Profile.EnvFile = "absent.env"

	res, err := New(cfg).Run(context.Background())
	if !errors.Is(err, ErrAppLaunch) {
		t.Fatalf("expected ErrAppLaunch, got %v", err)
	}
	if res.ExitCode == 0 || len(spawner.specs) != 0 {
		t.Fatalf("configured but missing env_file must abort before spawn")
	}
}

func TestRunContextCancelSignalsChildOnce(t *testing.T) {
	project, _ := buildProject(t)
	chdir(t, t.TempDir())
	t.Setenv("PATH", "/usr/bin")
	t.Setenv("VIRTUAL_ENV", "")

	handle := newFakeHandle(130, true)
	spawner := &fakeSpawner{handle: handle}
	cfg := testConfig(t, project, spawner)

	ctx, cancel := context.WithCancel(context.Background())
	resCh := make(chan Result, 1)
	go func() {
		res, _ := New(cfg).Run(ctx)
		resCh <- res
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case res := <-resCh:
		if res.ExitCode != 130 {
			t.Fatalf("expected the child's own exit code, got %d", res.ExitCode)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("launcher did not return after cancellation")
	}
	if len(handle.signals) != 1 {
		t.Fatalf("expected exactly one forwarded signal, got %d", len(handle.signals))
	}
}

func TestBuildArgv(t *testing.T) {
	p := config.DefaultProfile()
	p.ExtraArgs = []string{"--server.port", "8502"}

	got := BuildArgv(p)
	want := []string{"streamlit", "run", "main.py", "--theme.base", "dark", "--server.port", "8502"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected argv\nwant: %v\ngot:  %v", want, got)
	}

	p.RunSubcommand = ""
	p.ExtraArgs = nil
	got = BuildArgv(p)
	want = []string{"streamlit", "main.py", "--theme.base", "dark"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected argv without subcommand\nwant: %v\ngot:  %v", want, got)
	}
}

func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatalf("restore wd: %v", err)
		}
	})
}
