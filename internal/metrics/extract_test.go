package metrics

import (
	"errors"
	"math"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/specialistvlad/sweepgrid/internal/outcome"
	"github.com/specialistvlad/sweepgrid/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_FinalEpoch(t *testing.T) {
	path := testutil.WriteFile(t, t.TempDir(), "xor_prelu_act_init_default_results_42.csv", testutil.ThreeRowLog)

	res, err := Extract(path)
	require.NoError(t, err)
	assert.Equal(t, 2, res.FinalEpoch)
	assert.Equal(t, 0.3, res.FinalLoss)
	assert.Equal(t, 0.85, res.FinalAcc)
	assert.Equal(t, 1, res.ParamColumns)
	assert.Equal(t, path, res.LogPath)
}

func TestParse_ColumnsByName(t *testing.T) {
	// Parameter columns before the metrics and padded fields, as long as the
	// names resolve.
	log := "p0, p1, epoch, acc, loss\n1,2,0,0.10,0.90\n1,2,1, 0.55 , 0.45\n"
	res, err := Parse(strings.NewReader(log))
	require.NoError(t, err)
	assert.Equal(t, 1, res.FinalEpoch)
	assert.Equal(t, 0.45, res.FinalLoss)
	assert.Equal(t, 0.55, res.FinalAcc)
	assert.Equal(t, 2, res.ParamColumns)
}

func TestParse_ManyEpochsTakesLast(t *testing.T) {
	var b strings.Builder
	b.WriteString("epoch,loss,acc,p0,p1,p2\n")
	for e := 0; e < 100; e++ {
		b.WriteString(strings.Join([]string{strconv.Itoa(e), "0.5", "0.5", "1", "1", "1"}, ","))
		b.WriteString("\n")
	}
	b.WriteString("100,0.012345,0.990000,1,1,1\n\n")

	res, err := Parse(strings.NewReader(b.String()))
	require.NoError(t, err)
	assert.Equal(t, 100, res.FinalEpoch)
	assert.Equal(t, 0.012345, res.FinalLoss)
	assert.Equal(t, 0.99, res.FinalAcc)
}

func TestParse_TornFinalRowKeepsLastCompleteRow(t *testing.T) {
	testCases := []struct {
		name string
		log  string
	}{
		{name: "short record", log: "epoch,loss,acc\n0,0.9,0.4\n1,0.5,0.7\n2,0.3"},
		{name: "unbalanced quote", log: "epoch,loss,acc\n0,0.9,0.4\n1,0.5,0.7\n2,\"0.3"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := Parse(strings.NewReader(tc.log))
			require.NoError(t, err)
			assert.Equal(t, 1, res.FinalEpoch)
			assert.Equal(t, 0.5, res.FinalLoss)
			assert.Equal(t, 0.7, res.FinalAcc)
		})
	}
}

func TestParse_NegativeNaN(t *testing.T) {
	res, err := Parse(strings.NewReader("epoch,loss,acc\n0,-nan,0.500000\n"))
	require.NoError(t, err)
	assert.True(t, math.IsNaN(res.FinalLoss))
	assert.Equal(t, 0.5, res.FinalAcc)
}

func TestExtract_NoMetrics(t *testing.T) {
	dir := t.TempDir()
	testCases := []struct {
		name    string
		content *string
		reason  string
	}{
		{name: "absent", content: nil, reason: "log absent"},
		{name: "empty", content: ptr(""), reason: "empty"},
		{name: "header only", content: ptr("epoch,loss,acc,p0\n"), reason: "no data rows"},
		{name: "missing acc column", content: ptr("epoch,loss\n0,0.5\n"), reason: `missing column "acc"`},
		{name: "missing loss column", content: ptr("epoch,acc,p0\n0,0.5,1\n"), reason: `missing column "loss"`},
		{name: "only row short", content: ptr("epoch,loss,acc\n0,0.5\n"), reason: `no "acc" field`},
		{name: "non numeric", content: ptr("epoch,loss,acc\n0,abc,0.5\n"), reason: "loss is not numeric"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(dir, strings.ReplaceAll(tc.name, " ", "_")+".csv")
			if tc.content != nil {
				testutil.WriteFile(t, dir, filepath.Base(path), *tc.content)
			}

			res, err := Extract(path)
			assert.Nil(t, res)

			var missing *outcome.MetricsMissing
			require.True(t, errors.As(err, &missing), "expected MetricsMissing, got %v", err)
			assert.Equal(t, path, missing.Path)
			assert.Contains(t, missing.Reason, tc.reason)
			assert.Equal(t, outcome.SkippedMetrics, outcome.Classify(err))
		})
	}
}

func ptr(s string) *string { return &s }
