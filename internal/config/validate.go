package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/specialistvlad/sweepgrid/internal/naming"
	"github.com/specialistvlad/sweepgrid/internal/sweep"
)

// Validate reports every problem with the sweep, joined.
func (s *Sweep) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if len(s.Datasets) == 0 {
		add("at least one dataset is required")
	}
	if len(s.Activations) == 0 {
		add("at least one activation is required")
	}
	if len(s.InitStrategies) == 0 {
		add("at least one init strategy is required")
	}

	seen := make(map[string]bool, len(s.Datasets))
	for _, ds := range s.Datasets {
		if err := checkToken(ds.Name); err != nil {
			add("dataset %q: %w", ds.Name, err)
		}
		if seen[ds.Name] {
			add("dataset %q is declared more than once", ds.Name)
		}
		seen[ds.Name] = true
		if ds.Template == "" {
			add("dataset %q: template is required", ds.Name)
		}
	}
	errs = append(errs, checkAxis("activation", s.Activations)...)
	errs = append(errs, checkAxis("init strategy", s.InitStrategies)...)

	if s.Workers < 1 {
		add("workers must be at least 1, got %d", s.Workers)
	}
	if s.RunTimeout <= 0 {
		add("run_timeout must be positive, got %s", s.RunTimeout)
	}
	if s.BuildTimeout <= 0 {
		add("build_timeout must be positive, got %s", s.BuildTimeout)
	}
	if s.Build.Compiler == "" {
		add("build.compiler must not be empty")
	}
	if s.Paths.Store == "" {
		add("paths.store must not be empty")
	}
	if len(errs) == 0 {
		errs = append(errs, checkStems(s.Space())...)
	}
	return errors.Join(errs...)
}

// checkStems rejects configurations that would share artifact names, such as
// tokens differing only by case or by where an underscore splits them.
func checkStems(space *sweep.Space) []error {
	var errs []error
	owner := make(map[string]sweep.RunConfiguration, space.Len())
	for _, cfg := range space.All() {
		stem := naming.Stem(cfg)
		if prev, ok := owner[stem]; ok {
			errs = append(errs, fmt.Errorf("configurations %s and %s share artifact name %q", prev, cfg, stem))
			continue
		}
		owner[stem] = cfg
	}
	return errs
}

func checkAxis(name string, tokens []string) []error {
	var errs []error
	seen := make(map[string]bool, len(tokens))
	for _, tok := range tokens {
		if err := checkToken(tok); err != nil {
			errs = append(errs, fmt.Errorf("%s %q: %w", name, tok, err))
		}
		if seen[tok] {
			errs = append(errs, fmt.Errorf("%s %q is listed more than once", name, tok))
		}
		seen[tok] = true
	}
	return errs
}

// checkToken rejects tokens that cannot appear in an artifact file name.
func checkToken(tok string) error {
	switch {
	case tok == "":
		return errors.New("must not be empty")
	case strings.ContainsAny(tok, `/\`):
		return errors.New("must not contain path separators")
	case strings.TrimSpace(tok) != tok:
		return errors.New("must not have surrounding whitespace")
	}
	return nil
}
