package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strconv"
	"text/tabwriter"

	"github.com/specialistvlad/sweepgrid/internal/naming"
	"github.com/specialistvlad/sweepgrid/internal/store"
)

// Plan writes the enumerated configurations and the artifact names each
// would produce, without building anything.
func (app *App) Plan(w io.Writer) error {
	space := app.sweep.Space()
	layout := app.sweep.Layout()

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tDATASET\tACTIVATION\tINIT_STRATEGY\tSEED\tSOURCE\tLOG")
	for i, cfg := range space.All() {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\t%s\n",
			i, cfg.Dataset, cfg.Activation, cfg.InitStrategy, cfg.Seed,
			relTo(layout, layout.SourcePath(cfg)), layout.LogPath(cfg))
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	app.logger.Debug("Plan printed.", "configurations", space.Len())
	return nil
}

// Clean removes every artifact the naming convention recognizes, then the
// working directories if they are empty.
func (app *App) Clean(ctx context.Context) ([]string, error) {
	removed, err := naming.Clean(ctx, app.sweep.Layout(), naming.VocabularyOf(app.sweep.Space()))
	if err != nil {
		return removed, fmt.Errorf("cleanup incomplete: %w", err)
	}
	app.logger.Info("🧹 Cleanup finished.", "removed", len(removed))
	return removed, nil
}

// Best writes the best row per configuration key from the aggregate store.
// A missing store prints only the header.
func (app *App) Best(w io.Writer) error {
	layout := app.sweep.Layout()
	rows, err := store.ReadRows(layout.Abs(layout.StorePath))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to read aggregate store: %w", err)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATASET\tACT_HIDDEN\tACT_INIT\tSEED\tFINAL_LOSS\tFINAL_ACC\tLOGFILE")
	for _, r := range store.Best(rows) {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
			r.Dataset, r.ActHidden, r.ActInit, r.Seed,
			strconv.FormatFloat(r.FinalLoss, 'g', 6, 64),
			strconv.FormatFloat(r.FinalAcc, 'g', 6, 64),
			r.LogFile)
	}
	return tw.Flush()
}

func relTo(layout naming.Layout, path string) string {
	rel, err := filepath.Rel(layout.Root, path)
	if err != nil {
		return path
	}
	return rel
}
