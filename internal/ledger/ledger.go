// Package ledger records the terminal outcome of every configuration in a
// sweep, including skips, so operators can ask why a configuration produced
// no row in the aggregate store.
//
// The ledger is auxiliary. The CSV store remains the system of record, and
// callers treat ledger write failures as warnings.
package ledger

import (
	"context"
	"time"

	"github.com/specialistvlad/sweepgrid/internal/outcome"
	"github.com/specialistvlad/sweepgrid/internal/sweep"
)

// Ledger stores outcome entries keyed by sweep.
type Ledger interface {
	Record(ctx context.Context, e Entry) error
	// Entries returns a sweep's entries in recording order.
	Entries(ctx context.Context, sweepID string) ([]Entry, error)
	Close() error
}

// Entry is one configuration's outcome within a sweep.
type Entry struct {
	SweepID string
	Config  sweep.RunConfiguration
	Kind    outcome.Kind
	Reason  string

	// HasMetrics is false for configurations that never produced a result.
	HasMetrics bool
	FinalLoss  float64
	FinalAcc   float64

	LogPath    string
	Duration   time.Duration
	FinishedAt time.Time
}

// EntryFor builds the entry for a finished outcome.
func EntryFor(sweepID string, o outcome.Outcome, finishedAt time.Time) Entry {
	e := Entry{
		SweepID:    sweepID,
		Config:     o.Config,
		Kind:       o.Kind,
		LogPath:    o.Artifacts.Log,
		Duration:   o.Duration,
		FinishedAt: finishedAt.UTC(),
	}
	if o.Err != nil {
		e.Reason = o.Err.Error()
	}
	if o.Result != nil {
		e.HasMetrics = true
		e.FinalLoss = o.Result.FinalLoss
		e.FinalAcc = o.Result.FinalAcc
		e.LogPath = o.Result.LogPath
	}
	return e
}
