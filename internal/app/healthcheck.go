package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/specialistvlad/sweepgrid/internal/executor"
)

// healthHandler reports liveness.
func (app *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	app.logger.Debug("Health check endpoint hit.", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "OK")
}

// progressHandler reports the counters of the sweep in progress.
func (app *App) progressHandler(w http.ResponseWriter, r *http.Request) {
	var p executor.Progress
	sweepID := ""
	if exec := app.current.Load(); exec != nil {
		p = exec.Progress()
		sweepID = exec.SweepID()
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(struct {
		SweepID string `json:"sweep_id,omitempty"`
		executor.Progress
	}{sweepID, p})
}

func (app *App) healthMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", app.healthHandler)
	mux.HandleFunc("/progress", app.progressHandler)
	return mux
}

// healthCheckServer initializes and runs the health check HTTP server.
func (app *App) healthCheckServer() {
	app.logger.Debug("Configuring health check server.")
	if app.config.HealthcheckPort <= 0 {
		app.logger.Debug("Health check server not started: disabled")
		return
	}

	addr := fmt.Sprintf(":%d", app.config.HealthcheckPort)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		app.logger.Error("Health check server failed to listen", "address", addr, "error", err)
		return
	}
	app.httpServer = &http.Server{
		Handler:           app.healthMux(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		app.logger.Info("🩺 Health check server starting", "address", fmt.Sprintf("http://localhost%s/health", addr))
		// Serve returns ErrServerClosed on graceful shutdown.
		if err := app.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.logger.Error("Health check server failed unexpectedly", "error", err)
		}
	}()
}

func (app *App) closeHealthCheckServer() error {
	app.logger.Debug("Closing health check server...")
	if app.httpServer == nil {
		app.logger.Debug("Health check server was not running.")
		return nil
	}

	ctx, cancel := context.WithTimeout(app.ctx, 5*time.Second)
	defer cancel()

	app.logger.Info("🩺 Shutting down health check server...")
	if err := app.httpServer.Shutdown(ctx); err != nil {
		app.logger.Error("Health check server shutdown failed", "error", err)
		return err
	}
	app.httpServer = nil
	app.logger.Debug("Health check server shut down gracefully.")
	return nil
}
