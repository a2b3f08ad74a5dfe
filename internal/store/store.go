// Package store implements the aggregate results table: an append-only CSV
// file with a fixed header, one row per successfully completed configuration.
//
// The store is the only mutable resource shared by sweep workers. It has an
// exclusive-write contract: appends are serialized by an in-process mutex and,
// on unix, an advisory file lock, and each row reaches the file in a single
// write on an append-only handle. A row is therefore either fully present or
// absent, never interleaved with another.
//
// The store never rewrites or deduplicates prior rows. Re-running a sweep
// accumulates duplicate keys; consumers that want one row per key reduce with
// Best.
package store

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/specialistvlad/sweepgrid/internal/ctxlog"
	"github.com/specialistvlad/sweepgrid/internal/outcome"
	"github.com/specialistvlad/sweepgrid/internal/sweep"
)

// Header is the fixed column order of the table.
var Header = []string{"dataset", "act_hidden", "act_init", "seed", "final_loss", "final_acc", "logfile"}

// Row is one result line.
type Row struct {
	Dataset   string
	ActHidden string
	ActInit   string
	Seed      int64
	FinalLoss float64
	FinalAcc  float64
	LogFile   string
}

// RowFor builds the row for a configuration's terminal metrics.
func RowFor(cfg sweep.RunConfiguration, res *sweep.RunResult) Row {
	return Row{
		Dataset:   cfg.Dataset,
		ActHidden: cfg.Activation,
		ActInit:   cfg.InitStrategy,
		Seed:      cfg.Seed,
		FinalLoss: res.FinalLoss,
		FinalAcc:  res.FinalAcc,
		LogFile:   res.LogPath,
	}
}

// Key identifies a configuration within the table.
type Key struct {
	Dataset   string
	ActHidden string
	ActInit   string
	Seed      int64
}

// Key returns the row's configuration key.
func (r Row) Key() Key {
	return Key{Dataset: r.Dataset, ActHidden: r.ActHidden, ActInit: r.ActInit, Seed: r.Seed}
}

func (r Row) record() []string {
	return []string{
		r.Dataset,
		r.ActHidden,
		r.ActInit,
		strconv.FormatInt(r.Seed, 10),
		strconv.FormatFloat(r.FinalLoss, 'g', -1, 64),
		strconv.FormatFloat(r.FinalAcc, 'g', -1, 64),
		r.LogFile,
	}
}

// CSVStore is the file-backed aggregate store.
type CSVStore struct {
	path string
	mu   sync.Mutex
}

// Open prepares the store at path, creating parent directories. If the file
// does not exist yet (or is empty) the header is written now, so a sweep in
// which nothing succeeds still leaves a well-formed, header-only table.
func Open(ctx context.Context, path string) (*CSVStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, &outcome.StoreError{Path: path, Err: err}
	}
	s := &CSVStore{path: path}
	if err := s.write(nil); err != nil {
		return nil, err
	}
	ctxlog.FromContext(ctx).Debug("Aggregate store ready.", "path", path)
	return s, nil
}

// Path returns the store's file path.
func (s *CSVStore) Path() string { return s.path }

// Append adds one row. Failures are *outcome.StoreError.
func (s *CSVStore) Append(ctx context.Context, row Row) error {
	if err := s.write(row.record()); err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Debug("Result row appended.", "path", s.path, "dataset", row.Dataset, "act_hidden", row.ActHidden, "act_init", row.ActInit)
	return nil
}

// write appends record (and the header when the file is empty) in a single
// write call. A nil record only ensures the header.
func (s *CSVStore) write(record []string) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(s.path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return &outcome.StoreError{Path: s.path, Err: err}
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = &outcome.StoreError{Path: s.path, Err: cerr}
		}
	}()

	if err := lockFile(f); err != nil {
		return &outcome.StoreError{Path: s.path, Err: fmt.Errorf("locking: %w", err)}
	}
	defer unlockFile(f)

	info, err := f.Stat()
	if err != nil {
		return &outcome.StoreError{Path: s.path, Err: err}
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if info.Size() == 0 {
		_ = w.Write(Header)
	}
	if record != nil {
		_ = w.Write(record)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return &outcome.StoreError{Path: s.path, Err: err}
	}
	if buf.Len() == 0 {
		return nil
	}

	if _, err := f.Write(buf.Bytes()); err != nil {
		return &outcome.StoreError{Path: s.path, Err: err}
	}
	return nil
}

// ReadRows parses every data row of the table at path. The header must match
// Header exactly.
func ReadRows(path string) ([]Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parseRows(f)
}

func parseRows(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(Header)

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	for i, name := range Header {
		if header[i] != name {
			return nil, fmt.Errorf("unexpected header column %d: got %q, want %q", i, header[i], name)
		}
	}

	var rows []Row
	for {
		rec, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		row, err := parseRecord(rec)
		if err != nil {
			line, _ := reader.FieldPos(0)
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rows = append(rows, row)
	}
}

func parseRecord(rec []string) (Row, error) {
	seed, err := strconv.ParseInt(rec[3], 10, 64)
	if err != nil {
		return Row{}, fmt.Errorf("seed: %w", err)
	}
	loss, err := strconv.ParseFloat(rec[4], 64)
	if err != nil {
		return Row{}, fmt.Errorf("final_loss: %w", err)
	}
	acc, err := strconv.ParseFloat(rec[5], 64)
	if err != nil {
		return Row{}, fmt.Errorf("final_acc: %w", err)
	}
	return Row{Dataset: rec[0], ActHidden: rec[1], ActInit: rec[2], Seed: seed, FinalLoss: loss, FinalAcc: acc, LogFile: rec[6]}, nil
}
