package hclsweep

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/specialistvlad/sweepgrid/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fullSweep = `
seed          = 7
workers       = 3
run_timeout   = "90s"
build_timeout = "30s"

dataset "xor" {
  template = "src/main_xor.c"
}

dataset "spirals" {
  template = "src/main_spirals.c"
}

activations     = ["POLY_CUBIC", "PRELU"]
init_strategies = ["ACT_INIT_DEFAULT", "ACT_INIT_NOISY"]

paths {
  root          = "proj"
  generated_dir = "gen"
  ledger        = "experiments/outcomes.db"
}

build {
  compiler = env.SWEEP_CC
  libs     = ["m", "pthread"]
}
`

func TestLoadSource_Full(t *testing.T) {
	ctx, _ := testutil.Context(t)
	dir := t.TempDir()
	l := &Loader{Environ: func() []string { return []string{"SWEEP_CC=clang", "OTHER=1"} }}

	s, err := l.LoadSource(ctx, []byte(fullSweep), filepath.Join(dir, "sweep.hcl"))
	require.NoError(t, err)

	assert.Equal(t, int64(7), s.Seed)
	assert.Equal(t, 3, s.Workers)
	assert.Equal(t, 90*time.Second, s.RunTimeout)
	assert.Equal(t, 30*time.Second, s.BuildTimeout)

	require.Len(t, s.Datasets, 2)
	assert.Equal(t, "xor", s.Datasets[0].Name)
	assert.Equal(t, "src/main_spirals.c", s.Datasets[1].Template)
	assert.Equal(t, []string{"POLY_CUBIC", "PRELU"}, s.Activations)
	assert.Equal(t, []string{"ACT_INIT_DEFAULT", "ACT_INIT_NOISY"}, s.InitStrategies)

	assert.Equal(t, filepath.Join(dir, "proj"), s.Paths.Root)
	assert.Equal(t, "gen", s.Paths.GeneratedDir)
	assert.Equal(t, "experiments/results", s.Paths.ResultsDir)
	assert.Equal(t, "experiments/ablations.csv", s.Paths.Store)
	assert.Equal(t, filepath.Join(dir, "proj", "experiments", "outcomes.db"), s.LedgerPath())

	assert.Equal(t, "clang", s.Build.Compiler)
	assert.Equal(t, "c99", s.Build.Std)
	assert.Equal(t, []string{"m", "pthread"}, s.Build.Libs)
	assert.Len(t, s.Build.Sources, 7)

	assert.Equal(t, 8, s.Space().Len())
}

func TestLoadSource_Defaults(t *testing.T) {
	ctx, _ := testutil.Context(t)
	src := `
dataset "xor" { template = "src/main_xor.c" }
activations     = ["RELU"]
init_strategies = ["ACT_INIT_DEFAULT"]
`
	s, err := NewLoader().LoadSource(ctx, []byte(src), "/work/sweep.hcl")
	require.NoError(t, err)

	assert.Equal(t, int64(42), s.Seed)
	assert.Equal(t, 1, s.Workers)
	assert.Equal(t, 10*time.Minute, s.RunTimeout)
	assert.Equal(t, 2*time.Minute, s.BuildTimeout)
	assert.Equal(t, "/work", s.Paths.Root)
	assert.Equal(t, "gcc", s.Build.Compiler)
	assert.Equal(t, []string{"src"}, s.Build.IncludeDirs)
	assert.Empty(t, s.LedgerPath())
}

func TestLoadSource_Errors(t *testing.T) {
	testCases := []struct {
		name string
		src  string
		want string
	}{
		{"syntax", `dataset "xor" {`, "failed to parse HCL file"},
		{"unknown attribute", `colour = "blue"`, "failed to decode HCL file"},
		{"bad duration", `
dataset "xor" { template = "a.c" }
activations = ["RELU"]
init_strategies = ["D"]
run_timeout = "soon"`, "run_timeout"},
		{"missing env", `
dataset "xor" { template = "a.c" }
activations = ["RELU"]
init_strategies = ["D"]
build { compiler = env.NOPE }`, "failed to decode HCL file"},
		{"validation", `
dataset "xor" { template = "a.c" }
activations = ["RELU"]`, "at least one init strategy"},
		{"zero workers", `
dataset "xor" { template = "a.c" }
activations = ["RELU"]
init_strategies = ["D"]
workers = 0`, "workers must be at least 1"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx, _ := testutil.Context(t)
			l := &Loader{Environ: func() []string { return nil }}
			_, err := l.LoadSource(ctx, []byte(tc.src), "/work/sweep.hcl")
			assert.ErrorContains(t, err, tc.want)
		})
	}
}

func TestLoad_FromFile(t *testing.T) {
	ctx, _ := testutil.Context(t)
	path := testutil.WriteFile(t, t.TempDir(), "sweep.hcl", `
dataset "xor" { template = "src/main_xor.c" }
activations     = ["RELU"]
init_strategies = ["ACT_INIT_DEFAULT"]
`)
	s, err := NewLoader().Load(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, path, s.Source)
	assert.Equal(t, filepath.Dir(path), s.Paths.Root)
}

func TestLoad_MissingFile(t *testing.T) {
	ctx, _ := testutil.Context(t)
	_, err := NewLoader().Load(ctx, filepath.Join(t.TempDir(), "nope.hcl"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestEnvVariables_SkipsInvalidEntries(t *testing.T) {
	vars := envVariables([]string{"GOOD=yes", "NOEQUALS", "=empty", "BAD=\xff"})
	env := vars["env"]
	assert.True(t, env.Type().HasAttribute("GOOD"))
	assert.False(t, env.Type().HasAttribute("BAD"))
	assert.Equal(t, "yes", env.GetAttr("GOOD").AsString())

	empty := envVariables(nil)["env"]
	assert.Empty(t, empty.Type().AttributeTypes())
}
