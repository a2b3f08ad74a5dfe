// Package process runs external programs as isolated child processes with a
// bounded wall-clock budget.
//
// Children start in their own process group with an empty stdin. When the
// budget expires or the caller's context is cancelled, the whole group is
// killed and reaped before Run returns, so no stray compiler or trainer
// outlives its configuration.
package process

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"sync"
	"time"

	"github.com/specialistvlad/sweepgrid/internal/ctxlog"
)

const (
	// DefaultMaxOutputBytes bounds the captured combined output.
	DefaultMaxOutputBytes = 64 * 1024
	// waitDelay bounds how long Wait blocks on pipes held open by grandchildren
	// after the group has been killed.
	waitDelay = 5 * time.Second
)

// Command describes one child process.
type Command struct {
	Path           string
	Args           []string
	Dir            string
	Timeout        time.Duration
	MaxOutputBytes int
}

// String renders the command line for diagnostics.
func (c Command) String() string {
	return strings.Join(append([]string{c.Path}, c.Args...), " ")
}

// Result describes how a child process ended.
type Result struct {
	ExitCode  int
	Output    string
	Truncated bool
	Duration  time.Duration
	TimedOut  bool
	Cancelled bool
}

// Run starts the command and waits for it. A non-nil error means the child
// did not exit zero; Result is always non-nil and says why.
func Run(ctx context.Context, cmd Command) (*Result, error) {
	logger := ctxlog.FromContext(ctx)

	runCtx := ctx
	cancel := context.CancelFunc(func() {})
	if cmd.Timeout > 0 {
		runCtx, cancel = context.WithTimeout(ctx, cmd.Timeout)
	}
	defer cancel()

	maxOutput := cmd.MaxOutputBytes
	if maxOutput <= 0 {
		maxOutput = DefaultMaxOutputBytes
	}
	out := &limitedBuffer{max: maxOutput}

	execCmd := exec.CommandContext(runCtx, cmd.Path, cmd.Args...)
	execCmd.Dir = cmd.Dir
	execCmd.Stdin = nil
	execCmd.Stdout = out
	execCmd.Stderr = out
	setupProcessGroup(execCmd)
	execCmd.Cancel = func() error { return killProcessGroup(execCmd) }
	execCmd.WaitDelay = waitDelay

	logger.Debug("Starting child process.", "command", cmd.String(), "dir", cmd.Dir, "timeout", cmd.Timeout)
	start := time.Now()
	err := execCmd.Run()

	res := &Result{
		ExitCode:  -1,
		Output:    out.String(),
		Truncated: out.truncated,
		Duration:  time.Since(start),
	}
	if execCmd.ProcessState != nil {
		res.ExitCode = execCmd.ProcessState.ExitCode()
	}
	if err == nil {
		logger.Debug("Child process exited cleanly.", "command", cmd.Path, ctxlog.Took(res.Duration))
		return res, nil
	}

	switch {
	case ctx.Err() != nil:
		res.Cancelled = true
		err = errors.Join(err, ctx.Err())
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		res.TimedOut = true
		err = errors.Join(err, context.DeadlineExceeded)
	}
	logger.Debug("Child process failed.", "command", cmd.Path, "exit_code", res.ExitCode, "timed_out", res.TimedOut, "cancelled", res.Cancelled, "error", err)
	return res, err
}

// limitedBuffer keeps the first max bytes written to it and discards the rest.
type limitedBuffer struct {
	mu        sync.Mutex
	buf       bytes.Buffer
	max       int
	truncated bool
}

func (b *limitedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if room := b.max - b.buf.Len(); room < len(p) {
		b.truncated = true
		if room > 0 {
			b.buf.Write(p[:room])
		}
		return len(p), nil
	}
	return b.buf.Write(p)
}

func (b *limitedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
