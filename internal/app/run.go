package app

import (
	"context"
	"fmt"

	"github.com/specialistvlad/sweepgrid/internal/builder"
	"github.com/specialistvlad/sweepgrid/internal/ctxlog"
	"github.com/specialistvlad/sweepgrid/internal/executor"
	"github.com/specialistvlad/sweepgrid/internal/ledger"
	"github.com/specialistvlad/sweepgrid/internal/runner"
	"github.com/specialistvlad/sweepgrid/internal/store"
)

// Run executes the sweep. ctx should descend from Context so it carries the
// app's logger; cancelling it stops the sweep.
//
// The returned error is non-nil only when the sweep could not start, was
// cancelled, or lost a result to a store failure. Per-configuration skips are
// reported on the Report.
func (app *App) Run(ctx context.Context) (*executor.Report, error) {
	if ctxlog.FromContext(ctx) != app.logger {
		ctx = ctxlog.WithLogger(ctx, app.logger)
	}
	app.logger.Debug("App.Run method started.")

	app.healthCheckServer()
	defer app.closeHealthCheckServer()

	s := app.sweep
	layout := s.Layout()

	csvStore, err := store.Open(ctx, layout.Abs(layout.StorePath))
	if err != nil {
		return nil, fmt.Errorf("failed to open aggregate store: %w", err)
	}

	led := app.openLedger(ctx)
	defer func() {
		if err := led.Close(); err != nil {
			app.logger.Warn("Failed to close outcome ledger.", "error", err)
		}
	}()

	exec, err := executor.New(executor.Options{
		Space:     s.Space(),
		Templates: s.Templates(),
		Layout:    layout,
		Builder: &builder.Builder{
			Compiler:     s.Build.Compiler,
			IncludeDirs:  s.Build.IncludeDirs,
			Std:          s.Build.Std,
			Optimization: s.Build.Optimization,
			Sources:      s.Build.Sources,
			Libs:         s.Build.Libs,
			Dir:          s.Paths.Root,
			Timeout:      s.BuildTimeout,
		},
		Runner:  &runner.Runner{Dir: s.Paths.Root, Timeout: s.RunTimeout},
		Store:   csvStore,
		Ledger:  led,
		Workers: s.Workers,
	})
	if err != nil {
		return nil, err
	}
	app.current.Store(exec)

	report, err := exec.Run(ctx)
	if err != nil {
		return report, fmt.Errorf("sweep %s: %w", exec.SweepID(), err)
	}
	app.logger.Debug("App.Run method finished.")
	return report, nil
}

// openLedger opens the SQLite ledger when a path is configured and an
// in-memory one otherwise. The ledger is auxiliary, so a database that
// cannot be opened degrades to memory with a warning.
func (app *App) openLedger(ctx context.Context) ledger.Ledger {
	path := app.sweep.LedgerPath()
	if path == "" {
		return ledger.NewMemory()
	}
	l, err := ledger.OpenSQLite(ctx, path)
	if err != nil {
		app.logger.Warn("Outcome ledger unavailable, keeping outcomes in memory.", "path", path, "error", err)
		return ledger.NewMemory()
	}
	return l
}
