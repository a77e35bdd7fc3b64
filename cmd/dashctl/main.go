package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/LouisEnslin99/stock-analysis-dashboard/internal/config"
	"github.com/LouisEnslin99/stock-analysis-dashboard/internal/launcher"
	"github.com/LouisEnslin99/stock-analysis-dashboard/internal/logging"
	"github.com/LouisEnslin99/stock-analysis-dashboard/internal/preflight"
)

const version = "0.1.0"

func main() {
	args := os.Args[1:]
	cmd := "launch"
	if len(args) > 0 && args[0] != "" && args[0][0] != '-' {
		cmd = args[0]
		args = args[1:]
	}

	switch cmd {
	case "launch":
		os.Exit(runLaunch(args, false))
	case "env":
		os.Exit(runLaunch(args, true))
	case "doctor":
		os.Exit(runDoctor(args))
	case "version":
		fmt.Printf("dashctl %s\n", version)
	case "help":
		usage(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "dashctl: unknown command %q\n\n", cmd)
		usage(os.Stderr)
		os.Exit(2)
	}
}

func usage(out *os.File) {
	fmt.Fprint(out, `dashctl launches the stock analysis dashboard.

Usage:
  dashctl [launch] [-config path] [-dry-run]   enter the project, activate the
                                               venv, start the dashboard
  dashctl doctor [-config path]                diagnose the launch setup
  dashctl env [-config path]                   show the activation effect and
                                               the would-be command line
  dashctl version
  dashctl help
`)
}

// loadProfile resolves the launch profile: explicit path, $DASHCTL_CONFIG,
// discovered file, or pure defaults when nothing exists anywhere.
func loadProfile(explicit string) (config.Profile, string, error) {
	path := config.Discover(explicit)
	if path == "" {
		return config.DefaultProfile(), "", nil
	}
	profile, err := config.Load(path)
	if err != nil {
		return config.Profile{}, path, err
	}
	return profile, path, nil
}

func runLaunch(args []string, dryRun bool) int {
	name := "launch"
	if dryRun {
		name = "env"
	}
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	configPath := fs.String("config", "", "launch profile path")
	if !dryRun {
		fs.BoolVar(&dryRun, "dry-run", false, "resolve the launch without spawning")
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}

	profile, path, err := loadProfile(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dashctl: %v\n", err)
		return 1
	}
	logger := logging.ConfigureRuntime(profile.LogLevel)
	if path != "" {
		logger.Debug().Str("config", path).Msg("launch profile loaded")
	}

	cfg := launcher.DefaultConfig()
	cfg.Profile = profile
	cfg.DryRun = dryRun
	cfg.Logger = logger

	res, err := launcher.New(cfg).Run(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "dashctl: %v\n", err)
		if res.ExitCode == 0 {
			return 1
		}
		return res.ExitCode
	}

	if name == "env" {
		printEnv(res)
	}
	return res.ExitCode
}

// printEnv reports what a launch would do: the working directory, the
// activation mutation set, and the final command line.
func printEnv(res launcher.Result) {
	fmt.Printf("workdir  %s\n", res.WorkDir)
	for _, m := range res.Mutations {
		if m.Unset {
			fmt.Printf("unset    %s\n", m.Key)
			continue
		}
		fmt.Printf("set      %s=%s\n", m.Key, m.Value)
	}
	fmt.Printf("argv     %v\n", res.Argv)
}

func runDoctor(args []string) int {
	fs := flag.NewFlagSet("doctor", flag.ExitOnError)
	configPath := fs.String("config", "", "launch profile path")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	profile, _, err := loadProfile(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "dashctl: %v\n", err)
		return 1
	}
	logging.ConfigureRuntime(profile.LogLevel)

	report := preflight.Run(profile)
	for _, res := range report.Results {
		fmt.Printf("%-4s %-12s %s\n", res.Status, res.Name, res.Detail)
	}
	if report.Host.MemTotal > 0 {
		fmt.Printf("host memory %s free of %s\n",
			preflight.HumanBytes(report.Host.MemAvailable),
			preflight.HumanBytes(report.Host.MemTotal))
	}
	if report.Host.DiskTotal > 0 {
		fmt.Printf("host disk   %s free of %s\n",
			preflight.HumanBytes(report.Host.DiskFree),
			preflight.HumanBytes(report.Host.DiskTotal))
	}
	for _, msg := range report.Host.Errors {
		fmt.Printf("host facts unavailable: %s\n", msg)
	}

	if report.Failed() {
		return 1
	}
	return 0
}
