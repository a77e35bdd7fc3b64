package preflight

import (
	"errors"
	"fmt"
	"strings"

	"github.com/LouisEnslin99/stock-analysis-dashboard/internal/config"
)

var (
	ErrCheckExists = errors.New("preflight: check already registered")
	ErrCheckNil    = errors.New("preflight: check func is nil")
)

// Status is the verdict of one check.
type Status string

const (
	StatusPass Status = "pass"
	StatusWarn Status = "warn"
	StatusFail Status = "fail"
)

// CheckFunc inspects one aspect of a launch profile without side effects.
type CheckFunc func(p config.Profile) Result

// Result is one check verdict.
type Result struct {
	Name   string
	Status Status
	Detail string
}

// Report is the outcome of a full doctor run.
type Report struct {
	Results []Result
	Host    HostFacts
}

// Failed reports whether any check failed. Warns do not fail a report.
func (r Report) Failed() bool {
	for _, res := range r.Results {
		if res.Status == StatusFail {
			return true
		}
	}
	return false
}

// Registry stores checks by name in registration order.
type Registry struct {
	order  []string
	checks map[string]CheckFunc
}

func NewRegistry() *Registry {
	return &Registry{checks: make(map[string]CheckFunc)}
}

func (r *Registry) Register(name string, fn CheckFunc) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrCheckNil)
	}
	if fn == nil {
		return ErrCheckNil
	}
	if _, ok := r.checks[name]; ok {
		return fmt.Errorf("%w: %s", ErrCheckExists, name)
	}
	r.order = append(r.order, name)
	r.checks[name] = fn
	return nil
}

func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Run executes every registered check in order and collects host facts.
func (r *Registry) Run(p config.Profile) Report {
	report := Report{Results: make([]Result, 0, len(r.order))}
	for _, name := range r.order {
		res := r.checks[name](p)
		res.Name = name
		if res.Status == "" {
			res.Status = StatusPass
		}
		report.Results = append(report.Results, res)
	}
	report.Host = CollectHostFacts(p.ProjectDir)
	return report
}

// DefaultRegistry wires the standard launch checks in pipeline order.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	ordered := []struct {
		name string
		fn   CheckFunc
	}{
		{"project_dir", checkProjectDir},
		{"venv", checkVenv},
		{"interpreter", checkInterpreter},
		{"pyvenv_cfg", checkPyvenvCfg},
		{"app_entry", checkAppEntry},
		{"command", checkCommand},
		{"env_file", checkEnvFile},
	}
	for _, c := range ordered {
		if err := r.Register(c.name, c.fn); err != nil {
			panic(err)
		}
	}
	return r
}

// Run executes the default checks for one profile.
func Run(p config.Profile) Report {
	return DefaultRegistry().Run(p)
}
