package hclsweep

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/sweepgrid/internal/config"
	"github.com/specialistvlad/sweepgrid/internal/ctxlog"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct {
	// Environ supplies the `env` object; nil means os.Environ.
	Environ func() []string
}

// NewLoader creates a new HCL sweep loader.
func NewLoader() *Loader {
	return &Loader{}
}

// fileRoot decodes every top-level attribute and block of a sweep file.
// Optional values are pointers so absence can be told apart from zero.
type fileRoot struct {
	Seed           *int64          `hcl:"seed,optional"`
	Workers        *int            `hcl:"workers,optional"`
	RunTimeout     *string         `hcl:"run_timeout,optional"`
	BuildTimeout   *string         `hcl:"build_timeout,optional"`
	Activations    []string        `hcl:"activations,optional"`
	InitStrategies []string        `hcl:"init_strategies,optional"`
	Datasets       []*datasetBlock `hcl:"dataset,block"`
	Paths          *pathsBlock     `hcl:"paths,block"`
	Build          *buildBlock     `hcl:"build,block"`
}

type datasetBlock struct {
	Name     string `hcl:"name,label"`
	Template string `hcl:"template"`
}

type pathsBlock struct {
	Root         *string `hcl:"root,optional"`
	GeneratedDir *string `hcl:"generated_dir,optional"`
	ResultsDir   *string `hcl:"results_dir,optional"`
	Store        *string `hcl:"store,optional"`
	Ledger       *string `hcl:"ledger,optional"`
}

type buildBlock struct {
	Compiler     *string  `hcl:"compiler,optional"`
	Std          *string  `hcl:"std,optional"`
	Optimization *string  `hcl:"optimization,optional"`
	IncludeDirs  []string `hcl:"include_dirs,optional"`
	Sources      []string `hcl:"sources,optional"`
	Libs         []string `hcl:"libs,optional"`
}

// Load reads, decodes, resolves and validates the sweep file at path.
func (l *Loader) Load(ctx context.Context, path string) (*config.Sweep, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sweep file: %w", err)
	}
	s, err := l.LoadSource(ctx, src, path)
	if err != nil {
		return nil, err
	}
	s.Source = path
	return s, nil
}

// LoadSource decodes HCL source. Relative paths resolve against the
// directory of filename.
func (l *Loader) LoadSource(ctx context.Context, src []byte, filename string) (*config.Sweep, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "file", filename)

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}

	var root fileRoot
	diags = gohcl.DecodeBody(file.Body, l.evalContext(), &root)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}

	s, err := translate(&root)
	if err != nil {
		return nil, fmt.Errorf("invalid sweep file %s: %w", filename, err)
	}
	if err := s.Resolve(filepath.Dir(filename)); err != nil {
		return nil, fmt.Errorf("failed to resolve sweep root: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid sweep file %s: %w", filename, err)
	}

	logger.Debug("HCL loading complete.", "datasets", len(s.Datasets), "activations", len(s.Activations), "init_strategies", len(s.InitStrategies))
	return s, nil
}

func (l *Loader) evalContext() *hcl.EvalContext {
	environ := l.Environ
	if environ == nil {
		environ = os.Environ
	}
	return &hcl.EvalContext{Variables: envVariables(environ())}
}

// translate overlays the decoded file onto the defaults.
func translate(root *fileRoot) (*config.Sweep, error) {
	s := config.Default()

	setIf(&s.Seed, root.Seed)
	setIf(&s.Workers, root.Workers)
	if err := setDuration(&s.RunTimeout, root.RunTimeout, "run_timeout"); err != nil {
		return nil, err
	}
	if err := setDuration(&s.BuildTimeout, root.BuildTimeout, "build_timeout"); err != nil {
		return nil, err
	}

	for _, ds := range root.Datasets {
		s.Datasets = append(s.Datasets, config.Dataset{Name: ds.Name, Template: ds.Template})
	}
	s.Activations = root.Activations
	s.InitStrategies = root.InitStrategies

	if p := root.Paths; p != nil {
		setIf(&s.Paths.Root, p.Root)
		setIf(&s.Paths.GeneratedDir, p.GeneratedDir)
		setIf(&s.Paths.ResultsDir, p.ResultsDir)
		setIf(&s.Paths.Store, p.Store)
		setIf(&s.Paths.Ledger, p.Ledger)
	}
	if b := root.Build; b != nil {
		setIf(&s.Build.Compiler, b.Compiler)
		setIf(&s.Build.Std, b.Std)
		setIf(&s.Build.Optimization, b.Optimization)
		if b.IncludeDirs != nil {
			s.Build.IncludeDirs = b.IncludeDirs
		}
		if b.Sources != nil {
			s.Build.Sources = b.Sources
		}
		if b.Libs != nil {
			s.Build.Libs = b.Libs
		}
	}
	return s, nil
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *string, name string) error {
	if v == nil {
		return nil
	}
	d, err := time.ParseDuration(*v)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	*dst = d
	return nil
}
