// Package metrics reads a run's per-epoch log and extracts its terminal
// metrics.
//
// The log is a header-first CSV. Columns are located by name because the
// number of trailing activation-parameter columns varies with the activation
// kind. The log is appended once per epoch, so the last data row is the final
// epoch.
package metrics

import (
	"encoding/csv"
	"errors"
	"io"
	"io/fs"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/specialistvlad/sweepgrid/internal/outcome"
	"github.com/specialistvlad/sweepgrid/internal/sweep"
)

// Required column names.
const (
	ColumnEpoch = "epoch"
	ColumnLoss  = "loss"
	ColumnAcc   = "acc"
)

// Extract returns the final-epoch metrics recorded in the log at path. Any
// reason the log cannot yield them is reported as *outcome.MetricsMissing.
func Extract(path string) (*sweep.RunResult, error) {
	f, err := os.Open(path)
	if err != nil {
		reason := "log unreadable"
		if errors.Is(err, fs.ErrNotExist) {
			reason = "log absent"
		}
		return nil, &outcome.MetricsMissing{Path: path, Reason: reason, Err: err}
	}
	defer f.Close()

	res, err := Parse(f)
	if err != nil {
		var missing *outcome.MetricsMissing
		if errors.As(err, &missing) {
			missing.Path = path
		}
		return nil, err
	}
	res.LogPath = path
	return res, nil
}

// Parse extracts the final-epoch metrics from a log stream.
func Parse(r io.Reader) (*sweep.RunResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, missing("log is empty", nil)
	}
	if err != nil {
		return nil, missing("malformed header", err)
	}

	cols := make(map[string]int, len(header))
	params := 0
	for i, name := range header {
		name = strings.TrimSpace(name)
		if _, dup := cols[name]; !dup {
			cols[name] = i
		}
		switch name {
		case ColumnEpoch, ColumnLoss, ColumnAcc:
		default:
			params++
		}
	}
	for _, required := range []string{ColumnEpoch, ColumnLoss, ColumnAcc} {
		if _, ok := cols[required]; !ok {
			return nil, missing("missing column "+strconv.Quote(required), nil)
		}
	}

	need := max(cols[ColumnEpoch], cols[ColumnLoss], cols[ColumnAcc]) + 1

	// A run killed mid-write can leave a torn final line, either unbalanced
	// quotes or a record cut short. Once a complete row has been seen, torn
	// records never replace it.
	var last []string
	complete := false
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) && complete {
				continue
			}
			return nil, missing("malformed row", err)
		}
		if isBlank(rec) {
			continue
		}
		if len(rec) < need {
			if !complete {
				last = rec
			}
			continue
		}
		last = rec
		complete = true
	}
	if last == nil {
		return nil, missing("no data rows after header", nil)
	}

	field := func(name string) (string, error) {
		i := cols[name]
		if i >= len(last) {
			return "", missing("final row has no "+strconv.Quote(name)+" field", nil)
		}
		return strings.TrimSpace(last[i]), nil
	}

	epochStr, err := field(ColumnEpoch)
	if err != nil {
		return nil, err
	}
	lossStr, err := field(ColumnLoss)
	if err != nil {
		return nil, err
	}
	accStr, err := field(ColumnAcc)
	if err != nil {
		return nil, err
	}

	epoch, err := strconv.Atoi(epochStr)
	if err != nil {
		return nil, missing("final epoch is not an integer", err)
	}
	loss, err := parseMetric(lossStr)
	if err != nil {
		return nil, missing("final loss is not numeric", err)
	}
	acc, err := parseMetric(accStr)
	if err != nil {
		return nil, missing("final acc is not numeric", err)
	}

	return &sweep.RunResult{FinalEpoch: epoch, FinalLoss: loss, FinalAcc: acc, ParamColumns: params}, nil
}

// parseMetric parses a printf-formatted float. C runtimes print a NaN with
// its sign bit set as "-nan", which strconv rejects.
func parseMetric(s string) (float64, error) {
	if strings.EqualFold(strings.TrimLeft(s, "+-"), "nan") {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}

func missing(reason string, err error) *outcome.MetricsMissing {
	return &outcome.MetricsMissing{Reason: reason, Err: err}
}

func isBlank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
