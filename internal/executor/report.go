package executor

import (
	"time"

	"github.com/specialistvlad/sweepgrid/internal/ctxlog"
	"github.com/specialistvlad/sweepgrid/internal/outcome"
)

// Report is the result of one sweep. Outcomes are in enumeration order,
// independent of completion order.
type Report struct {
	SweepID  string
	Outcomes []outcome.Outcome
	Duration time.Duration
}

// Count returns the number of outcomes of kind k.
func (r *Report) Count(k outcome.Kind) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Kind == k {
			n++
		}
	}
	return n
}

// Counts returns the number of outcomes per kind.
func (r *Report) Counts() map[outcome.Kind]int {
	counts := make(map[outcome.Kind]int)
	for _, o := range r.Outcomes {
		counts[o.Kind]++
	}
	return counts
}

// Skipped returns the outcomes that were recovered failures.
func (r *Report) Skipped() []outcome.Outcome {
	var out []outcome.Outcome
	for _, o := range r.Outcomes {
		if o.Kind.Skipped() {
			out = append(out, o)
		}
	}
	return out
}

// LogAttrs summarizes the report as slog key-value pairs.
func (r *Report) LogAttrs() []any {
	attrs := []any{
		"configurations", len(r.Outcomes),
		ctxlog.Took(r.Duration),
	}
	for k := outcome.Succeeded; k <= outcome.StoreFailed; k++ {
		if n := r.Count(k); n > 0 {
			attrs = append(attrs, k.String(), n)
		}
	}
	return attrs
}
