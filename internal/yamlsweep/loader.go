// Package yamlsweep loads sweep definitions written in YAML into the
// format-agnostic config.Sweep model. It accepts the same fields as the HCL
// format, with datasets given as an ordered list:
//
//	seed: 42
//	datasets:
//	  - name: xor
//	    template: src/main_xor.c
//	activations: [RELU, PRELU]
//	init_strategies: [ACT_INIT_DEFAULT]
package yamlsweep

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/specialistvlad/sweepgrid/internal/config"
	"github.com/specialistvlad/sweepgrid/internal/ctxlog"
	"gopkg.in/yaml.v3"
)

// Loader is the YAML implementation of config.Loader.
type Loader struct{}

// NewLoader creates a new YAML sweep loader.
func NewLoader() *Loader {
	return &Loader{}
}

type fileRoot struct {
	Seed           int64     `yaml:"seed"`
	Workers        int       `yaml:"workers"`
	RunTimeout     string    `yaml:"run_timeout"`
	BuildTimeout   string    `yaml:"build_timeout"`
	Datasets       []dataset `yaml:"datasets"`
	Activations    []string  `yaml:"activations"`
	InitStrategies []string  `yaml:"init_strategies"`
	Paths          paths     `yaml:"paths"`
	Build          build     `yaml:"build"`
}

type dataset struct {
	Name     string `yaml:"name"`
	Template string `yaml:"template"`
}

type paths struct {
	Root         string `yaml:"root"`
	GeneratedDir string `yaml:"generated_dir"`
	ResultsDir   string `yaml:"results_dir"`
	Store        string `yaml:"store"`
	Ledger       string `yaml:"ledger"`
}

type build struct {
	Compiler     string   `yaml:"compiler"`
	Std          string   `yaml:"std"`
	Optimization string   `yaml:"optimization"`
	IncludeDirs  []string `yaml:"include_dirs"`
	Sources      []string `yaml:"sources"`
	Libs         []string `yaml:"libs"`
}

// defaults seeds the decode target; keys absent from the document keep
// these values.
func defaults() fileRoot {
	d := config.Default()
	return fileRoot{
		Seed:         d.Seed,
		Workers:      d.Workers,
		RunTimeout:   d.RunTimeout.String(),
		BuildTimeout: d.BuildTimeout.String(),
		Paths:        paths(d.Paths),
		Build:        build(d.Build),
	}
}

// Load reads, decodes, resolves and validates the sweep file at path.
func (l *Loader) Load(ctx context.Context, path string) (*config.Sweep, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sweep file: %w", err)
	}
	s, err := l.LoadSource(ctx, data, path)
	if err != nil {
		return nil, err
	}
	s.Source = path
	return s, nil
}

// LoadSource decodes YAML source. Relative paths resolve against the
// directory of filename.
func (l *Loader) LoadSource(ctx context.Context, data []byte, filename string) (*config.Sweep, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("YAML loader started.", "file", filename)

	root := defaults()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&root); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode YAML file %s: %w", filename, err)
	}
	var extra any
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode YAML file %s: multiple documents are not supported", filename)
	}

	s, err := translate(root)
	if err != nil {
		return nil, fmt.Errorf("invalid sweep file %s: %w", filename, err)
	}
	if err := s.Resolve(filepath.Dir(filename)); err != nil {
		return nil, fmt.Errorf("failed to resolve sweep root: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid sweep file %s: %w", filename, err)
	}

	logger.Debug("YAML loading complete.", "datasets", len(s.Datasets), "activations", len(s.Activations), "init_strategies", len(s.InitStrategies))
	return s, nil
}

func translate(root fileRoot) (*config.Sweep, error) {
	runTimeout, err := time.ParseDuration(root.RunTimeout)
	if err != nil {
		return nil, fmt.Errorf("run_timeout: %w", err)
	}
	buildTimeout, err := time.ParseDuration(root.BuildTimeout)
	if err != nil {
		return nil, fmt.Errorf("build_timeout: %w", err)
	}

	s := &config.Sweep{
		Seed:           root.Seed,
		Workers:        root.Workers,
		RunTimeout:     runTimeout,
		BuildTimeout:   buildTimeout,
		Activations:    root.Activations,
		InitStrategies: root.InitStrategies,
		Paths:          config.Paths(root.Paths),
		Build:          config.Build(root.Build),
	}
	for _, ds := range root.Datasets {
		s.Datasets = append(s.Datasets, config.Dataset(ds))
	}
	return s, nil
}
