package executor

import (
	"sync/atomic"

	"github.com/specialistvlad/sweepgrid/internal/outcome"
)

// Progress is a point-in-time view of a running sweep.
type Progress struct {
	Total      int64 `json:"total"`
	Dispatched int64 `json:"dispatched"`
	Finished   int64 `json:"finished"`
	Succeeded  int64 `json:"succeeded"`
	Skipped    int64 `json:"skipped"`
	Cancelled  int64 `json:"cancelled"`
	Failed     int64 `json:"failed"`
}

type progress struct {
	total      atomic.Int64
	dispatched atomic.Int64
	finished   atomic.Int64
	succeeded  atomic.Int64
	skipped    atomic.Int64
	cancelled  atomic.Int64
	failed     atomic.Int64
}

func (p *progress) record(k outcome.Kind) {
	switch {
	case k == outcome.Succeeded:
		p.succeeded.Add(1)
	case k.Skipped():
		p.skipped.Add(1)
	case k == outcome.Cancelled:
		p.cancelled.Add(1)
	default:
		p.failed.Add(1)
	}
	p.finished.Add(1)
}

func (p *progress) snapshot() Progress {
	return Progress{
		Total:      p.total.Load(),
		Dispatched: p.dispatched.Load(),
		Finished:   p.finished.Load(),
		Succeeded:  p.succeeded.Load(),
		Skipped:    p.skipped.Load(),
		Cancelled:  p.cancelled.Load(),
		Failed:     p.failed.Load(),
	}
}
