package outcome

import (
	"fmt"
	"strings"
	"time"
)

// StructuralParseError reports a template that is missing a required slot,
// or exposes one in an ambiguous form.
type StructuralParseError struct {
	Template string
	Slot     string
	Reason   string
}

func (e *StructuralParseError) Error() string {
	if e.Template == "" {
		return fmt.Sprintf("template slot %q: %s", e.Slot, e.Reason)
	}
	return fmt.Sprintf("template %s: slot %q: %s", e.Template, e.Slot, e.Reason)
}

// BuildFailure reports a compiler invocation that did not produce an
// executable. Output carries the compiler diagnostics.
type BuildFailure struct {
	Command  string
	ExitCode int
	Output   string
	Err      error
}

func (e *BuildFailure) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "build failed (exit %d): %v", e.ExitCode, e.Err)
	if out := strings.TrimSpace(e.Output); out != "" {
		b.WriteString(": ")
		b.WriteString(out)
	}
	return b.String()
}

func (e *BuildFailure) Unwrap() error { return e.Err }

// RunFailure reports an executable that exited non-zero, timed out, or was
// killed because the sweep was cancelled.
type RunFailure struct {
	Path      string
	ExitCode  int
	TimedOut  bool
	Cancelled bool
	Timeout   time.Duration
	Output    string
	Err       error
}

func (e *RunFailure) Error() string {
	switch {
	case e.TimedOut:
		return fmt.Sprintf("run %s timed out after %s", e.Path, e.Timeout)
	case e.Cancelled:
		return fmt.Sprintf("run %s cancelled", e.Path)
	default:
		return fmt.Sprintf("run %s failed (exit %d): %v", e.Path, e.ExitCode, e.Err)
	}
}

func (e *RunFailure) Unwrap() error { return e.Err }

// MetricsMissing reports a per-run log that could not yield terminal metrics.
type MetricsMissing struct {
	Path   string
	Reason string
	Err    error
}

func (e *MetricsMissing) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("no metrics in %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("no metrics in %s: %s", e.Path, e.Reason)
}

func (e *MetricsMissing) Unwrap() error { return e.Err }

// StoreError reports a failed write to the aggregate store. It is the only
// failure that stops a sweep.
type StoreError struct {
	Path string
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("aggregate store %s: %v", e.Path, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }
