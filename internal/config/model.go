package config

import (
	"path/filepath"
	"time"

	"github.com/specialistvlad/sweepgrid/internal/naming"
	"github.com/specialistvlad/sweepgrid/internal/sweep"
)

// Sweep is the unified, format-agnostic representation of a sweep file.
type Sweep struct {
	// Source is the file the sweep was loaded from, if any.
	Source string

	Seed         int64
	Workers      int
	RunTimeout   time.Duration
	BuildTimeout time.Duration

	Datasets       []Dataset
	Activations    []string
	InitStrategies []string

	Paths Paths
	Build Build
}

// Dataset binds a dataset name to its template source file.
type Dataset struct {
	Name string
	// Template is relative to Paths.Root unless absolute.
	Template string
}

// Paths places the sweep's inputs and outputs. Everything but Root is
// relative to Root.
type Paths struct {
	Root         string
	GeneratedDir string
	ResultsDir   string
	Store        string
	// Ledger is the outcome database; empty keeps the ledger in memory.
	Ledger string
}

// Build is the fixed compiler invocation.
type Build struct {
	Compiler     string
	Std          string
	Optimization string
	IncludeDirs  []string
	Sources      []string
	Libs         []string
}

// Default returns a sweep with every optional field at its default value
// and no axes.
func Default() *Sweep {
	return &Sweep{
		Seed:         42,
		Workers:      1,
		RunTimeout:   10 * time.Minute,
		BuildTimeout: 2 * time.Minute,
		Paths: Paths{
			Root:         ".",
			GeneratedDir: "obj",
			ResultsDir:   "experiments/results",
			Store:        "experiments/ablations.csv",
		},
		Build: Build{
			Compiler:     "gcc",
			Std:          "c99",
			Optimization: "O2",
			IncludeDirs:  []string{"src"},
			Sources: []string{
				"src/utils.c",
				"src/config.c",
				"src/activations.c",
				"src/layer.c",
				"src/network.c",
				"src/data.c",
				"src/optimizer.c",
			},
			Libs: []string{"m"},
		},
	}
}

// Resolve makes Root absolute, interpreting a relative Root against baseDir
// (normally the sweep file's directory).
func (s *Sweep) Resolve(baseDir string) error {
	root := s.Paths.Root
	if !filepath.IsAbs(root) {
		root = filepath.Join(baseDir, root)
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	s.Paths.Root = abs
	return nil
}

// Space returns the sweep's configuration space.
func (s *Sweep) Space() *sweep.Space {
	names := make([]string, len(s.Datasets))
	for i, ds := range s.Datasets {
		names[i] = ds.Name
	}
	return sweep.NewSpace(names, s.Activations, s.InitStrategies, s.Seed)
}

// Layout returns the on-disk artifact layout.
func (s *Sweep) Layout() naming.Layout {
	return naming.Layout{
		Root:         s.Paths.Root,
		GeneratedDir: s.Paths.GeneratedDir,
		ResultsDir:   s.Paths.ResultsDir,
		StorePath:    s.Paths.Store,
	}
}

// Templates maps each dataset name to its absolute template path.
func (s *Sweep) Templates() map[string]string {
	layout := s.Layout()
	out := make(map[string]string, len(s.Datasets))
	for _, ds := range s.Datasets {
		out[ds.Name] = layout.Abs(ds.Template)
	}
	return out
}

// LedgerPath returns the absolute ledger path, or "" when disabled.
func (s *Sweep) LedgerPath() string {
	if s.Paths.Ledger == "" {
		return ""
	}
	return s.Layout().Abs(s.Paths.Ledger)
}
