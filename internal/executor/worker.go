package executor

import (
	"context"
	"time"

	"github.com/specialistvlad/sweepgrid/internal/ctxlog"
	"github.com/specialistvlad/sweepgrid/internal/ledger"
	"github.com/specialistvlad/sweepgrid/internal/outcome"
)

// worker is the processing loop for a single concurrent worker. It returns
// an error only for a sweep-fatal store failure.
func (e *Executor) worker(ctx context.Context, workerID int, jobs <-chan int, outcomes []outcome.Outcome) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Worker started.", "workerID", workerID)
	defer logger.Debug("Worker finished.", "workerID", workerID)

	for i := range jobs {
		o := &outcomes[i]
		if err := ctx.Err(); err != nil {
			o.Kind = outcome.Cancelled
			o.Err = err
			e.finish(ctx, *o)
			continue
		}

		*o = e.process(ctx, workerID, *o)
		e.finish(ctx, *o)
		if o.Kind == outcome.StoreFailed {
			return o.Err
		}
	}
	return nil
}

// finish publishes a terminal outcome to the progress counters and the
// ledger. Ledger failures are logged and otherwise ignored.
func (e *Executor) finish(ctx context.Context, o outcome.Outcome) {
	e.progress.record(o.Kind)
	if e.opts.Ledger == nil {
		return
	}
	entry := ledger.EntryFor(e.opts.SweepID, o, time.Now())
	if err := e.opts.Ledger.Record(context.WithoutCancel(ctx), entry); err != nil {
		ctxlog.FromContext(ctx).Warn("Failed to record outcome in ledger.", "config", o.Config.String(), "error", err)
	}
}
