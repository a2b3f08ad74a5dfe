package executor

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/specialistvlad/sweepgrid/internal/ctxlog"
	"github.com/specialistvlad/sweepgrid/internal/metrics"
	"github.com/specialistvlad/sweepgrid/internal/naming"
	"github.com/specialistvlad/sweepgrid/internal/outcome"
	"github.com/specialistvlad/sweepgrid/internal/store"
	"github.com/specialistvlad/sweepgrid/internal/sweep"
	"github.com/specialistvlad/sweepgrid/internal/template"
)

// process runs one configuration's pipeline and classifies how it ended.
func (e *Executor) process(ctx context.Context, workerID int, o outcome.Outcome) outcome.Outcome {
	ctx, logger := ctxlog.With(ctx, "config", naming.Stem(o.Config), "workerID", workerID)
	start := time.Now()

	res, err := e.pipeline(ctx, o.Config, o.Artifacts)
	o.Duration = time.Since(start)
	o.Kind = outcome.Classify(err)
	o.Err = err
	o.Result = res

	switch {
	case o.Kind == outcome.Succeeded:
		logger.Info("✅ Configuration succeeded.", "final_loss", res.FinalLoss, "final_acc", res.FinalAcc, "epoch", res.FinalEpoch, ctxlog.Took(o.Duration))
	case o.Kind.Skipped():
		logger.Warn("⚠️ Configuration skipped.", "kind", o.Kind.String(), "seed", o.Config.Seed, "error", err)
	case o.Kind == outcome.Cancelled:
		logger.Info("Configuration cancelled.", "error", err)
	default:
		logger.Error("Configuration failed.", "kind", o.Kind.String(), "error", err)
	}
	return o
}

// pipeline is patch, write, build, run, extract and append for one
// configuration. A row is appended only after extraction succeeded.
func (e *Executor) pipeline(ctx context.Context, cfg sweep.RunConfiguration, art outcome.Artifacts) (*sweep.RunResult, error) {
	logger := ctxlog.FromContext(ctx)
	layout := e.opts.Layout

	logger.Debug("Patching template.", "template", e.opts.Templates[cfg.Dataset])
	variant, err := template.PatchFile(e.opts.Templates[cfg.Dataset], cfg, layout.LogPath(cfg))
	if err != nil {
		return nil, err
	}
	logger.Debug("Template patched.", "hidden_layers", variant.HiddenLayers(), "source", art.Source)

	if err := writeSource(art.Source, variant.Source); err != nil {
		return nil, err
	}
	if err := prepareLog(art.Log); err != nil {
		return nil, err
	}

	if err := e.opts.Builder.Build(ctx, art.Source, art.Executable); err != nil {
		return nil, err
	}
	if err := e.opts.Runner.Run(ctx, art.Executable); err != nil {
		return nil, err
	}

	res, err := metrics.Extract(art.Log)
	if err != nil {
		return nil, err
	}

	if err := e.opts.Store.Append(ctx, store.RowFor(cfg, res)); err != nil {
		var storeErr *outcome.StoreError
		if !errors.As(err, &storeErr) {
			err = &outcome.StoreError{Err: err}
		}
		return res, err
	}
	return res, nil
}

func writeSource(path, src string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating generated source directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		return fmt.Errorf("writing generated source: %w", err)
	}
	return nil
}

// prepareLog creates the log's directory and removes a log left by an
// earlier sweep, so a run that writes nothing cannot report stale metrics.
func prepareLog(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating results directory: %w", err)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("removing stale log: %w", err)
	}
	return nil
}
