// Package outcome defines the per-configuration result kinds of a sweep and
// the error taxonomy that maps onto them.
//
// Every configuration ends in exactly one Kind. Skips carry the typed error
// that caused them so callers can assert on why a configuration was skipped.
package outcome

import (
	"context"
	"errors"
	"time"

	"github.com/specialistvlad/sweepgrid/internal/sweep"
)

// Kind classifies how a configuration's pipeline ended.
type Kind int

const (
	Pending Kind = iota
	Succeeded
	SkippedParse
	SkippedBuild
	SkippedRun
	SkippedMetrics
	Cancelled
	StoreFailed
)

var kindNames = map[Kind]string{
	Pending:        "pending",
	Succeeded:      "succeeded",
	SkippedParse:   "skipped_parse",
	SkippedBuild:   "skipped_build",
	SkippedRun:     "skipped_run",
	SkippedMetrics: "skipped_metrics",
	Cancelled:      "cancelled",
	StoreFailed:    "store_failed",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "unknown"
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name == s {
			return k, true
		}
	}
	return Pending, false
}

// Skipped reports whether the kind is a locally recovered failure.
func (k Kind) Skipped() bool {
	switch k {
	case SkippedParse, SkippedBuild, SkippedRun, SkippedMetrics:
		return true
	}
	return false
}

// Artifacts are the per-configuration paths produced by the pipeline.
type Artifacts struct {
	Source     string
	Executable string
	Log        string
}

// Outcome is the terminal record of one configuration's pipeline.
type Outcome struct {
	Index     int
	Config    sweep.RunConfiguration
	Kind      Kind
	Err       error
	Result    *sweep.RunResult
	Artifacts Artifacts
	Duration  time.Duration
}

// Classify maps a pipeline error onto its Kind. A nil error is Succeeded.
func Classify(err error) Kind {
	if err == nil {
		return Succeeded
	}

	var (
		parseErr   *StructuralParseError
		buildErr   *BuildFailure
		runErr     *RunFailure
		metricsErr *MetricsMissing
		storeErr   *StoreError
	)
	switch {
	case errors.As(err, &storeErr):
		return StoreFailed
	case errors.As(err, &runErr) && runErr.Cancelled:
		return Cancelled
	case errors.Is(err, context.Canceled):
		return Cancelled
	case errors.As(err, &parseErr):
		return SkippedParse
	case errors.As(err, &buildErr):
		return SkippedBuild
	case errors.As(err, &runErr):
		return SkippedRun
	case errors.As(err, &metricsErr):
		return SkippedMetrics
	}
	// Untyped errors only come from preparing the variant on disk.
	return SkippedBuild
}
