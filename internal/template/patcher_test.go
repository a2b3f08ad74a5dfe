package template

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/specialistvlad/sweepgrid/internal/outcome"
	"github.com/specialistvlad/sweepgrid/internal/sweep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const xorTemplate = `#include "network.h"

int main()
{
    srand_seed(42); // Seed 0
     int arch[] = {2, 4, 1};
     ActType acts[] = {FIXED_SIG, FIXED_SIG};
     Network net = init_net(2, arch, 3, acts);

    char logf[256];
    sprintf(logf, "experiments/results/xor_poly_%d.csv", 42);
    return 0;
}
`

const mnistTemplate = `int main()
{
    srand_seed(42);
    int arch[] = {784, 256, 128, 10};
    ActType acts[] = {POLY_CUBIC, POLY_CUBIC, POLY_CUBIC};
    ActInitStrategy act_strats[] = {ACT_INIT_DEFAULT, ACT_INIT_DEFAULT, ACT_INIT_IDENTITY};
    char logf[256];
    sprintf(logf, "experiments/results/mnist_poly_%d.csv", 42);
}
`

func cfg(act, strat string) sweep.RunConfiguration {
	return sweep.RunConfiguration{Dataset: "xor", Activation: act, InitStrategy: strat, Seed: 42}
}

func TestPatch_InsertsStrategiesWhenAbsent(t *testing.T) {
	v, err := Patch(xorTemplate, cfg("PRELU", "ACT_INIT_NOISY"), "experiments/results/xor_prelu_act_init_noisy_results_42.csv")
	require.NoError(t, err)

	assert.Equal(t, []int{2, 4, 1}, v.Arch)
	assert.Equal(t, 1, v.HiddenLayers())
	assert.Contains(t, v.Source, "     ActType acts[] = {PRELU, FIXED_SIG};\n     ActInitStrategy act_strats[] = {ACT_INIT_NOISY, ACT_INIT_IDENTITY};\n")
	assert.Contains(t, v.Source, `sprintf(logf, "experiments/results/xor_prelu_act_init_noisy_results_42.csv", 42);`)
	assert.NotContains(t, v.Source, "xor_poly_%d")
}

func TestPatch_ReplacesExistingStrategies(t *testing.T) {
	c := cfg("SWISH", "ACT_INIT_RANDOM_SMALL")
	c.Dataset = "mnist"
	v, err := Patch(mnistTemplate, c, "out.csv")
	require.NoError(t, err)

	assert.Equal(t, 2, v.HiddenLayers())
	assert.Contains(t, v.Source, "ActType acts[] = {SWISH, SWISH, FIXED_SIG};")
	assert.Contains(t, v.Source, "ActInitStrategy act_strats[] = {ACT_INIT_RANDOM_SMALL, ACT_INIT_RANDOM_SMALL, ACT_INIT_IDENTITY};")
	assert.Equal(t, 1, strings.Count(v.Source, "act_strats[]"))
}

func TestPatch_HiddenEntriesIndependentOfActivation(t *testing.T) {
	for _, act := range []string{"POLY_CUBIC", "PRELU", "SWISH", "PIECEWISE", "FIXED_RELU"} {
		v, err := Patch(mnistTemplate, cfg(act, "ACT_INIT_DEFAULT"), "out.csv")
		require.NoError(t, err)
		require.Len(t, v.Activations, 3)
		assert.Equal(t, []string{act, act, TerminalActivation}, v.Activations)
		assert.Equal(t, []string{"ACT_INIT_DEFAULT", "ACT_INIT_DEFAULT", OutputInitStrategy}, v.InitStrategies)
	}
}

func TestPatch_Idempotent(t *testing.T) {
	c := cfg("PRELU", "ACT_INIT_DEFAULT")
	first, err := Patch(xorTemplate, c, "a/b.csv")
	require.NoError(t, err)
	second, err := Patch(xorTemplate, c, "a/b.csv")
	require.NoError(t, err)
	assert.Equal(t, first.Source, second.Source)

	// Re-patching a patched variant is a fixed point.
	again, err := Patch(first.Source, c, "a/b.csv")
	require.NoError(t, err)
	assert.Equal(t, first.Source, again.Source)
}

func TestPatch_SeedAndEscaping(t *testing.T) {
	c := cfg("PRELU", "ACT_INIT_DEFAULT")
	c.Seed = 7
	v, err := Patch(xorTemplate, c, `C:\runs\50%"x".csv`)
	require.NoError(t, err)

	assert.Contains(t, v.Source, "srand_seed(7);")
	assert.Contains(t, v.Source, `sprintf(logf, "C:\\runs\\50%%\"x\".csv", 7);`)
}

func TestPatch_StructuralErrors(t *testing.T) {
	testCases := []struct {
		name   string
		src    string
		slot   string
		reason string
	}{
		{
			name:   "missing architecture",
			src:    strings.Replace(xorTemplate, "int arch[] = {2, 4, 1};", "", 1),
			slot:   SlotArch,
			reason: "not found",
		},
		{
			name:   "architecture with one width",
			src:    strings.Replace(xorTemplate, "{2, 4, 1}", "{2}", 1),
			slot:   SlotArch,
			reason: "at least",
		},
		{
			name:   "non numeric width",
			src:    strings.Replace(xorTemplate, "{2, 4, 1}", "{2, N, 1}", 1),
			slot:   SlotArch,
			reason: "positive integer",
		},
		{
			name:   "missing activations",
			src:    strings.Replace(xorTemplate, "ActType acts[] = {FIXED_SIG, FIXED_SIG};", "", 1),
			slot:   SlotActs,
			reason: "not found",
		},
		{
			name:   "duplicate activations",
			src:    strings.Replace(xorTemplate, "ActType acts[] = {FIXED_SIG, FIXED_SIG};", "ActType acts[] = {A};\nActType acts[] = {B};", 1),
			slot:   SlotActs,
			reason: "declared 2 times",
		},
		{
			name:   "malformed strategies",
			src:    strings.Replace(mnistTemplate, "ActInitStrategy act_strats[] = {ACT_INIT_DEFAULT, ACT_INIT_DEFAULT, ACT_INIT_IDENTITY};", "ActInitStrategy act_strats[] = make();", 1),
			slot:   SlotStrats,
			reason: "malformed",
		},
		{
			name:   "missing log path",
			src:    strings.Replace(xorTemplate, `sprintf(logf, "experiments/results/xor_poly_%d.csv", 42);`, "", 1),
			slot:   SlotLogPath,
			reason: "not found",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Patch(tc.src, cfg("PRELU", "ACT_INIT_DEFAULT"), "out.csv")
			require.Error(t, err)

			var perr *outcome.StructuralParseError
			require.True(t, errors.As(err, &perr), "expected StructuralParseError, got %T", err)
			assert.Equal(t, tc.slot, perr.Slot)
			assert.Contains(t, perr.Reason, tc.reason)
		})
	}
}

func TestPatchFile(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "main_xor.c")
	require.NoError(t, os.WriteFile(good, []byte(xorTemplate), 0o644))

	v, err := PatchFile(good, cfg("PRELU", "ACT_INIT_DEFAULT"), "out.csv")
	require.NoError(t, err)
	assert.Contains(t, v.Source, "PRELU")

	broken := filepath.Join(dir, "main_broken.c")
	require.NoError(t, os.WriteFile(broken, []byte("int main() { return 0; }"), 0o644))
	_, err = PatchFile(broken, cfg("PRELU", "ACT_INIT_DEFAULT"), "out.csv")
	var perr *outcome.StructuralParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, broken, perr.Template)

	_, err = PatchFile(filepath.Join(dir, "missing.c"), cfg("PRELU", "ACT_INIT_DEFAULT"), "out.csv")
	assert.ErrorIs(t, err, os.ErrNotExist)
}
