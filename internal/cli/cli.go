package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/specialistvlad/sweepgrid/internal/app"
	"github.com/specialistvlad/sweepgrid/internal/executor"
	"github.com/specialistvlad/sweepgrid/internal/outcome"
	"github.com/spf13/cobra"
)

// DefaultSweepFile is used when no SWEEP_FILE argument is given.
const DefaultSweepFile = "sweep.hcl"

// Exit codes.
const (
	ExitFailure = 1
	ExitUsage   = 2
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

func usageError(err error) *ExitError {
	return &ExitError{Code: ExitUsage, Message: err.Error()}
}

func failure(err error) *ExitError {
	return &ExitError{Code: ExitFailure, Message: err.Error()}
}

// flags are the options shared by every subcommand, plus the run options.
type flags struct {
	logFormat       string
	logLevel        string
	workers         int
	runTimeout      time.Duration
	healthcheckPort int
}

func (f *flags) config(args []string) (*app.Config, error) {
	path := DefaultSweepFile
	if len(args) > 0 {
		path = args[0]
	}
	cfg, err := app.NewConfig(app.Config{
		SweepPath:       path,
		LogFormat:       strings.ToLower(f.logFormat),
		LogLevel:        strings.ToLower(f.logLevel),
		Workers:         f.workers,
		RunTimeout:      f.runTimeout,
		HealthcheckPort: f.healthcheckPort,
	})
	if err != nil {
		return nil, usageError(err)
	}
	return cfg, nil
}

// newApp builds the app for a subcommand. Log output goes to stderr so
// stdout carries only command output.
func (f *flags) newApp(cmd *cobra.Command, args []string) (*app.App, error) {
	cfg, err := f.config(args)
	if err != nil {
		return nil, err
	}
	a, err := app.NewApp(cmd.ErrOrStderr(), cfg, nil)
	if err != nil {
		return nil, failure(err)
	}
	return a, nil
}

// NewRootCommand builds the sweepgrid command tree.
func NewRootCommand() *cobra.Command {
	f := &flags{}

	root := &cobra.Command{
		Use:   "sweepgrid",
		Short: "Ablation sweep engine for compiled training programs",
		Long: `sweepgrid enumerates every combination of dataset, activation and init
strategy declared in a sweep file, patches each dataset's template program,
compiles and runs it, and appends the final metrics to an aggregate CSV.

A configuration that fails to patch, build, run or log metrics is skipped
without stopping the sweep.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&f.logFormat, "log-format", "text", "Log output format. Options: 'text' or 'json'.")
	root.PersistentFlags().StringVar(&f.logLevel, "log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return usageError(err)
	})

	runCmd := &cobra.Command{
		Use:   "run [SWEEP_FILE]",
		Short: "Run every configuration of the sweep",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := f.newApp(cmd, args)
			if err != nil {
				return err
			}
			report, err := a.Run(cmd.Context())
			if report != nil {
				printSummary(cmd.OutOrStdout(), report)
			}
			if err != nil {
				return failure(err)
			}
			return nil
		},
	}
	runCmd.Flags().IntVar(&f.workers, "workers", 0, "Number of configurations run concurrently. 0 keeps the sweep file's value.")
	runCmd.Flags().DurationVar(&f.runTimeout, "run-timeout", 0, "Wall-clock limit per training run. 0 keeps the sweep file's value.")
	runCmd.Flags().IntVar(&f.healthcheckPort, "healthcheck-port", 0, "Port for the HTTP health check server. 0 is disabled.")

	planCmd := &cobra.Command{
		Use:   "plan [SWEEP_FILE]",
		Short: "List the configurations and artifact names without running anything",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := f.newApp(cmd, args)
			if err != nil {
				return err
			}
			if err := a.Plan(cmd.OutOrStdout()); err != nil {
				return failure(err)
			}
			return nil
		},
	}

	cleanCmd := &cobra.Command{
		Use:   "clean [SWEEP_FILE]",
		Short: "Delete generated sources, executables, run logs and the aggregate store",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := f.newApp(cmd, args)
			if err != nil {
				return err
			}
			removed, err := a.Clean(cmd.Context())
			for _, p := range removed {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			if err != nil {
				return failure(err)
			}
			return nil
		},
	}

	bestCmd := &cobra.Command{
		Use:   "best [SWEEP_FILE]",
		Short: "Print the best result per configuration from the aggregate store",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := f.newApp(cmd, args)
			if err != nil {
				return err
			}
			if err := a.Best(cmd.OutOrStdout()); err != nil {
				return failure(err)
			}
			return nil
		},
	}

	root.AddCommand(runCmd, planCmd, cleanCmd, bestCmd)
	return root
}

// Execute runs the command tree with args. Every returned error is an
// *ExitError: usage mistakes carry ExitUsage and everything else ExitFailure.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	root := NewRootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr
	}
	// Errors cobra raises itself (unknown command, argument count) are usage errors.
	return usageError(err)
}

func printSummary(w io.Writer, report *executor.Report) {
	fmt.Fprintf(w, "sweep %s: %d configurations in %s\n", report.SweepID, len(report.Outcomes), report.Duration.Round(time.Millisecond))
	for k := outcome.Succeeded; k <= outcome.StoreFailed; k++ {
		if n := report.Count(k); n > 0 {
			fmt.Fprintf(w, "  %-16s %d\n", k.String(), n)
		}
	}
	for _, o := range report.Skipped() {
		fmt.Fprintf(w, "  skipped %s (%s): %v\n", o.Config, o.Kind, o.Err)
	}
}
