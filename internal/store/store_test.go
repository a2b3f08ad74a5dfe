package store

import (
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/specialistvlad/sweepgrid/internal/outcome"
	"github.com/specialistvlad/sweepgrid/internal/sweep"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const headerLine = "dataset,act_hidden,act_init,seed,final_loss,final_acc,logfile\n"

func TestOpen_WritesHeaderOnce(t *testing.T) {
	path := filepath.Join(t.TempDir(), "experiments", "ablations.csv")

	_, err := Open(context.Background(), path)
	require.NoError(t, err)
	_, err = Open(context.Background(), path)
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, headerLine, string(raw))

	rows, err := ReadRows(path)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestAppend_RowFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ablations.csv")
	s, err := Open(context.Background(), path)
	require.NoError(t, err)

	cfg := sweep.RunConfiguration{Dataset: "xor", Activation: "PRELU", InitStrategy: "ACT_INIT_DEFAULT", Seed: 42}
	res := &sweep.RunResult{FinalLoss: 0.3, FinalAcc: 0.85, LogPath: "/work/experiments/results/xor_prelu_act_init_default_results_42.csv"}
	require.NoError(t, s.Append(context.Background(), RowFor(cfg, res)))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, headerLine+"xor,PRELU,ACT_INIT_DEFAULT,42,0.3,0.85,/work/experiments/results/xor_prelu_act_init_default_results_42.csv\n", string(raw))
}

func TestAppend_RecreatesHeaderWhenFileVanishes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ablations.csv")
	s, err := Open(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, os.Remove(path))

	require.NoError(t, s.Append(context.Background(), Row{Dataset: "xor", ActHidden: "A", ActInit: "I", Seed: 1, LogFile: "l"}))
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), headerLine))
}

func TestAppend_DuplicatesAccumulate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ablations.csv")
	row := Row{Dataset: "xor", ActHidden: "PRELU", ActInit: "ACT_INIT_DEFAULT", Seed: 42, FinalLoss: 0.3, FinalAcc: 0.85, LogFile: "x.csv"}

	for range 2 {
		s, err := Open(context.Background(), path)
		require.NoError(t, err)
		require.NoError(t, s.Append(context.Background(), row))
	}

	rows, err := ReadRows(path)
	require.NoError(t, err)
	assert.Equal(t, []Row{row, row}, rows)
}

func TestAppend_ConcurrentRowsNeverInterleave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ablations.csv")
	s, err := Open(context.Background(), path)
	require.NoError(t, err)

	const writers = 32
	longPath := strings.Repeat("very/long/path/", 200)
	var wg sync.WaitGroup
	for i := range writers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			row := Row{
				Dataset:   fmt.Sprintf("ds%d", i),
				ActHidden: "PRELU",
				ActInit:   "ACT_INIT_DEFAULT",
				Seed:      42,
				FinalLoss: float64(i) / 100,
				FinalAcc:  0.5,
				LogFile:   longPath + fmt.Sprint(i),
			}
			assert.NoError(t, s.Append(context.Background(), row))
		}()
	}
	wg.Wait()

	rows, err := ReadRows(path)
	require.NoError(t, err)
	require.Len(t, rows, writers)

	seen := make(map[string]bool)
	for _, r := range rows {
		assert.True(t, strings.HasPrefix(r.LogFile, longPath))
		seen[r.Dataset] = true
	}
	assert.Len(t, seen, writers)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 1, strings.Count(string(raw), "dataset,act_hidden"))
}

func TestAppend_TwoStoresSameFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ablations.csv")
	a, err := Open(context.Background(), path)
	require.NoError(t, err)
	b, err := Open(context.Background(), path)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for _, s := range []*CSVStore{a, b} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Append(context.Background(), Row{Dataset: "xor", ActHidden: "A", ActInit: "I", Seed: 1, LogFile: strings.Repeat("x", 8192)}))
		}()
	}
	wg.Wait()

	rows, err := ReadRows(path)
	require.NoError(t, err)
	assert.Len(t, rows, 2)
}

func TestOpen_FailureIsStoreError(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	_, err := Open(context.Background(), filepath.Join(blocker, "ablations.csv"))
	var storeErr *outcome.StoreError
	require.True(t, errors.As(err, &storeErr))
	assert.Equal(t, outcome.StoreFailed, outcome.Classify(err))
}

func TestReadRows_RejectsForeignHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "other.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b,c,d,e,f,g\n"), 0o644))
	_, err := ReadRows(path)
	assert.ErrorContains(t, err, "unexpected header")
}

func TestBest(t *testing.T) {
	rows := []Row{
		{Dataset: "xor", ActHidden: "PRELU", ActInit: "D", Seed: 42, FinalAcc: 0.70, LogFile: "first"},
		{Dataset: "xor", ActHidden: "PRELU", ActInit: "D", Seed: 42, FinalAcc: 0.90, LogFile: "second"},
		{Dataset: "xor", ActHidden: "PRELU", ActInit: "D", Seed: 42, FinalAcc: 0.80, LogFile: "third"},
		{Dataset: "mnist", ActHidden: "SWISH", ActInit: "D", Seed: 42, FinalAcc: math.NaN(), LogFile: "nan"},
		{Dataset: "mnist", ActHidden: "SWISH", ActInit: "D", Seed: 42, FinalAcc: 0.1, LogFile: "real"},
		{Dataset: "xor", ActHidden: "RELU", ActInit: "D", Seed: 42, FinalAcc: 0.5, LogFile: "only"},
	}

	best := Best(rows)
	require.Len(t, best, 3)
	assert.Equal(t, "real", best[0].LogFile)
	assert.Equal(t, "second", best[1].LogFile)
	assert.Equal(t, "only", best[2].LogFile)
}
