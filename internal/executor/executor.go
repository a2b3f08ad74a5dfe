package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/specialistvlad/sweepgrid/internal/ctxlog"
	"github.com/specialistvlad/sweepgrid/internal/ledger"
	"github.com/specialistvlad/sweepgrid/internal/naming"
	"github.com/specialistvlad/sweepgrid/internal/outcome"
	"github.com/specialistvlad/sweepgrid/internal/store"
	"github.com/specialistvlad/sweepgrid/internal/sweep"
	"golang.org/x/sync/errgroup"
)

// Builder compiles one generated source into an executable.
type Builder interface {
	Build(ctx context.Context, source, exe string) error
}

// Runner executes one built variant to completion.
type Runner interface {
	Run(ctx context.Context, exe string) error
}

// Store receives the rows of successful configurations.
type Store interface {
	Append(ctx context.Context, row store.Row) error
}

// Options configures an Executor.
type Options struct {
	// SweepID labels logs and ledger entries; a UUID is generated when empty.
	SweepID string
	Space   *sweep.Space
	// Templates maps each dataset to its template source path.
	Templates map[string]string
	Layout    naming.Layout

	Builder Builder
	Runner  Runner
	Store   Store
	// Ledger is optional.
	Ledger ledger.Ledger

	// Workers bounds the number of configurations in flight; values below
	// one mean one.
	Workers int
}

// Executor runs one sweep.
type Executor struct {
	opts     Options
	progress progress
}

// New validates opts and creates an executor.
func New(opts Options) (*Executor, error) {
	var errs []error
	if opts.Space == nil {
		errs = append(errs, errors.New("space is required"))
	}
	if opts.Builder == nil {
		errs = append(errs, errors.New("builder is required"))
	}
	if opts.Runner == nil {
		errs = append(errs, errors.New("runner is required"))
	}
	if opts.Store == nil {
		errs = append(errs, errors.New("store is required"))
	}
	if opts.Space != nil {
		for _, ds := range opts.Space.Axes()[0].Values {
			if _, ok := opts.Templates[ds]; !ok {
				errs = append(errs, fmt.Errorf("dataset %q has no template", ds))
			}
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("invalid executor options: %w", err)
	}

	if opts.SweepID == "" {
		opts.SweepID = uuid.NewString()
	}
	opts.Workers = max(opts.Workers, 1)
	e := &Executor{opts: opts}
	e.progress.total.Store(int64(opts.Space.Len()))
	return e, nil
}

// SweepID returns the identifier of this sweep.
func (e *Executor) SweepID() string { return e.opts.SweepID }

// Progress returns a snapshot of the sweep's counters. It is safe to call
// concurrently with Run.
func (e *Executor) Progress() Progress { return e.progress.snapshot() }

// Run attempts every configuration of the space and returns the report.
//
// Run returns a nil error when every configuration was attempted, whatever
// their outcomes. If ctx is cancelled, unfinished configurations are marked
// Cancelled and the context's error is returned alongside the report. A
// store failure stops the sweep and is returned as *outcome.StoreError.
func (e *Executor) Run(ctx context.Context) (*Report, error) {
	ctx, logger := ctxlog.With(ctx, "sweepID", e.opts.SweepID)
	start := time.Now()
	space := e.opts.Space

	outcomes := make([]outcome.Outcome, space.Len())
	for i, cfg := range space.All() {
		outcomes[i] = outcome.Outcome{Index: i, Config: cfg, Kind: outcome.Pending, Artifacts: e.artifacts(cfg)}
	}

	logger.Info("🚀 Sweep started.", "configurations", len(outcomes), "workers", e.opts.Workers)

	g, gctx := errgroup.WithContext(ctx)
	jobs := make(chan int)

	g.Go(func() error {
		defer close(jobs)
		for i := range outcomes {
			select {
			case jobs <- i:
				e.progress.dispatched.Add(1)
			case <-gctx.Done():
				return nil
			}
		}
		return nil
	})

	logger.Debug("Starting worker pool.", "workers", e.opts.Workers)
	for w := range e.opts.Workers {
		g.Go(func() error {
			return e.worker(gctx, w, jobs, outcomes)
		})
	}

	err := g.Wait()

	for i := range outcomes {
		if outcomes[i].Kind == outcome.Pending {
			outcomes[i].Kind = outcome.Cancelled
			outcomes[i].Err = gctx.Err()
			e.finish(ctx, outcomes[i])
		}
	}

	report := &Report{SweepID: e.opts.SweepID, Outcomes: outcomes, Duration: time.Since(start)}
	logger.Info("🏁 Sweep finished.", report.LogAttrs()...)

	if err != nil {
		logger.Error("Sweep aborted by store failure.", "error", err)
		return report, err
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return report, ctxErr
	}
	return report, nil
}

func (e *Executor) artifacts(cfg sweep.RunConfiguration) outcome.Artifacts {
	l := e.opts.Layout
	return outcome.Artifacts{
		Source:     l.SourcePath(cfg),
		Executable: l.ExecutablePath(cfg),
		Log:        l.Abs(l.LogPath(cfg)),
	}
}
