package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/specialistvlad/sweepgrid/internal/config"
	"github.com/specialistvlad/sweepgrid/internal/ctxlog"
	"github.com/specialistvlad/sweepgrid/internal/executor"
	"github.com/specialistvlad/sweepgrid/internal/hclsweep"
	"github.com/specialistvlad/sweepgrid/internal/yamlsweep"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	ctx        context.Context
	logger     *slog.Logger
	config     *Config
	sweep      *config.Sweep
	httpServer *http.Server
	// current is the executor of the sweep in progress, for /progress.
	current atomic.Pointer[executor.Executor]
}

// LoaderFor picks the sweep loader by file extension. YAML files use the
// YAML loader and everything else is read as HCL.
func LoaderFor(path string) config.Loader {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return yamlsweep.NewLoader()
	default:
		return hclsweep.NewLoader()
	}
}

// NewApp is the constructor for the main application. It creates the app's
// own isolated logger, loads the sweep file with loader and applies the
// config's overrides. A nil loader selects one with LoaderFor.
func NewApp(outW io.Writer, cfg *Config, loader config.Loader) (*App, error) {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	if loader == nil {
		loader = LoaderFor(cfg.SweepPath)
	}
	s, err := loader.Load(ctx, cfg.SweepPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load sweep: %w", err)
	}

	if cfg.Workers > 0 {
		s.Workers = cfg.Workers
	}
	if cfg.RunTimeout > 0 {
		s.RunTimeout = cfg.RunTimeout
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid sweep after overrides: %w", err)
	}
	logger.Debug("Sweep loaded.", "path", cfg.SweepPath, "root", s.Paths.Root, "configurations", s.Space().Len(), "workers", s.Workers)

	return &App{ctx: ctx, logger: logger, config: cfg, sweep: s}, nil
}

// Sweep returns the loaded sweep definition.
func (app *App) Sweep() *config.Sweep {
	return app.sweep
}

// Context returns the app's base context, which carries its logger.
func (app *App) Context() context.Context {
	return app.ctx
}
