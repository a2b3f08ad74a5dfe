package builder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/specialistvlad/sweepgrid/internal/ctxlog"
	"github.com/specialistvlad/sweepgrid/internal/outcome"
	"github.com/specialistvlad/sweepgrid/internal/process"
)

// Builder holds the fixed compiler invocation shared by every configuration.
type Builder struct {
	Compiler     string
	IncludeDirs  []string
	Std          string
	Optimization string
	Sources      []string
	Libs         []string
	// Dir is the working directory of the compiler; relative paths resolve here.
	Dir     string
	Timeout time.Duration
}

// Args returns the compiler arguments for one variant.
func (b *Builder) Args(source, exe string) []string {
	args := make([]string, 0, 2*len(b.IncludeDirs)+len(b.Sources)+len(b.Libs)+5)
	for _, inc := range b.IncludeDirs {
		args = append(args, "-I", inc)
	}
	if b.Std != "" {
		args = append(args, "-std="+b.Std)
	}
	if b.Optimization != "" {
		args = append(args, "-"+b.Optimization)
	}
	args = append(args, b.Sources...)
	args = append(args, source, "-o", exe)
	for _, lib := range b.Libs {
		args = append(args, "-l"+lib)
	}
	return args
}

// Build compiles source into exe.
func (b *Builder) Build(ctx context.Context, source, exe string) error {
	logger := ctxlog.FromContext(ctx)

	if err := os.MkdirAll(filepath.Dir(exe), 0o755); err != nil {
		return &outcome.BuildFailure{Command: b.Compiler, ExitCode: -1, Err: fmt.Errorf("preparing output directory: %w", err)}
	}

	cmd := process.Command{
		Path:    b.Compiler,
		Args:    b.Args(source, exe),
		Dir:     b.Dir,
		Timeout: b.Timeout,
	}
	logger.Debug("🔨 Compiling variant.", "command", cmd.String())

	res, err := process.Run(ctx, cmd)
	if err != nil {
		failure := &outcome.BuildFailure{Command: cmd.String(), ExitCode: res.ExitCode, Output: res.Output, Err: err}
		if res.Cancelled {
			failure.Err = ctx.Err()
		}
		return failure
	}

	info, err := os.Stat(exe)
	if err != nil {
		return &outcome.BuildFailure{Command: cmd.String(), Output: res.Output, Err: fmt.Errorf("compiler exited cleanly but produced no executable: %w", err)}
	}
	logger.Debug("Variant compiled.", "exe", exe, "size", humanize.Bytes(uint64(info.Size())), ctxlog.Took(res.Duration))
	return nil
}
