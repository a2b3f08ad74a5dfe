package naming

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/specialistvlad/sweepgrid/internal/ctxlog"
	"github.com/specialistvlad/sweepgrid/internal/fsutil"
)

// Clean deletes every generated source, executable and per-run log that
// decodes under the naming convention, then the aggregate store, then the
// working directories when they are left empty. It never consults the
// store's contents. Files that do not decode are left alone.
func Clean(ctx context.Context, l Layout, v Vocabulary) ([]string, error) {
	logger := ctxlog.FromContext(ctx)

	matches := func(name string) bool {
		_, kind, ok := DecodeFile(name, v)
		return ok && kind != KindUnknown
	}

	var removed []string
	var errs []error
	for _, dir := range []string{l.GeneratedDir, l.ResultsDir} {
		files, err := fsutil.FindFiles(l.Abs(dir), matches)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, f := range files {
			if err := os.Remove(f); err != nil {
				logger.Warn("Failed to remove generated file.", "path", f, "error", err)
				errs = append(errs, err)
				continue
			}
			logger.Debug("Removed generated file.", "path", f)
			removed = append(removed, f)
		}
	}

	if l.StorePath != "" {
		store := l.Abs(l.StorePath)
		switch err := os.Remove(store); {
		case err == nil:
			removed = append(removed, store)
		case !errors.Is(err, fs.ErrNotExist):
			errs = append(errs, err)
		}
	}

	for _, dir := range []string{l.GeneratedDir, l.ResultsDir} {
		abs := l.Abs(dir)
		if filepath.Clean(abs) == filepath.Clean(l.Root) {
			continue
		}
		empty, err := fsutil.IsEmptyDir(abs)
		if err != nil || !empty {
			if err == nil {
				logger.Info("Working directory not empty, keeping it.", "path", abs)
			}
			continue
		}
		if err := os.Remove(abs); err != nil {
			errs = append(errs, err)
			continue
		}
		removed = append(removed, abs)
	}

	return removed, errors.Join(errs...)
}
