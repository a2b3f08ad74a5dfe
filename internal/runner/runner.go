// Package runner executes built variants and maps their exit onto the sweep's
// failure taxonomy.
package runner

import (
	"context"
	"time"

	"github.com/specialistvlad/sweepgrid/internal/ctxlog"
	"github.com/specialistvlad/sweepgrid/internal/outcome"
	"github.com/specialistvlad/sweepgrid/internal/process"
)

// DefaultTimeout bounds a single training run when none is configured.
const DefaultTimeout = 10 * time.Minute

// Runner runs one executable per call.
type Runner struct {
	// Dir is the working directory of the run; the variant's log path and
	// data files resolve relative to it.
	Dir            string
	Timeout        time.Duration
	MaxOutputBytes int
}

// Run executes exe with no stdin and waits for it. Non-zero exit, timeout
// and cancellation are reported as *outcome.RunFailure.
func (r *Runner) Run(ctx context.Context, exe string) error {
	logger := ctxlog.FromContext(ctx)

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	logger.Debug("🏃 Running variant.", "exe", exe, "timeout", timeout)
	res, err := process.Run(ctx, process.Command{
		Path:           exe,
		Dir:            r.Dir,
		Timeout:        timeout,
		MaxOutputBytes: r.MaxOutputBytes,
	})
	if err != nil {
		return &outcome.RunFailure{
			Path:      exe,
			ExitCode:  res.ExitCode,
			TimedOut:  res.TimedOut,
			Cancelled: res.Cancelled,
			Timeout:   timeout,
			Output:    res.Output,
			Err:       err,
		}
	}
	logger.Debug("Variant finished.", "exe", exe, ctxlog.Took(res.Duration))
	return nil
}
