// Package app wires chatscope's long-running components together and
// manages their lifecycle: the HTTP API, background metadata work and the
// task scheduler.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/edgard/chatscope/internal/config"
)

// HTTPServer is the API server as seen by the orchestrator.
type HTTPServer interface {
	Start() error
	Shutdown(ctx context.Context) error
}

// BackgroundWaiter is implemented by components running detached goroutines
// that must finish before the process exits.
type BackgroundWaiter interface {
	Wait()
}

// App represents the main application and manages its components' lifecycle.
type App struct {
	logger     *slog.Logger
	cfg        *config.Config
	server     HTTPServer
	background BackgroundWaiter
	scheduler  *Scheduler
}

// NewApp creates a new application instance with all required dependencies.
func NewApp(
	logger *slog.Logger,
	cfg *config.Config,
	server HTTPServer,
	background BackgroundWaiter,
	scheduler *Scheduler,
) *App {
	if logger == nil {
		logger = slog.Default()
	}
	return &App{
		logger:     logger.With("component", "app_orchestrator"),
		cfg:        cfg,
		server:     server,
		background: background,
		scheduler:  scheduler,
	}
}

// Run starts all components and blocks until ctx is cancelled or one of them
// fails. In-flight requests and background metadata work are drained before
// it returns.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("Starting app orchestrator...")

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := a.server.Start(); err != nil {
			a.logger.Error("HTTP server failed", "error", err)
			return fmt.Errorf("http server failed: %w", err)
		}
		if gCtx.Err() == nil {
			a.logger.Warn("HTTP server stopped unexpectedly without context cancellation.")
			return fmt.Errorf("http server stopped unexpectedly")
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("Shutdown signal received, stopping HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gCtx), a.shutdownTimeout())
		defer cancel()
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("Error stopping HTTP server", "error", err)
		}
		if a.background != nil {
			a.background.Wait()
		}
		return nil
	})

	g.Go(func() error {
		a.logger.Info("Starting scheduler...")
		if err := a.scheduler.Start(); err != nil {
			a.logger.Error("Failed to start scheduler", "error", err)
			return fmt.Errorf("failed to start scheduler: %w", err)
		}

		<-gCtx.Done()
		a.logger.Info("Shutdown signal received, stopping scheduler...")

		if err := a.scheduler.Stop(); err != nil {
			a.logger.Error("Error stopping scheduler", "error", err)
		}

		return nil
	})

	a.logger.Info("App orchestrator running. Waiting for shutdown signal or error...")
	err := g.Wait()

	if err != nil && !errors.Is(err, context.Canceled) {
		a.logger.Error("App orchestrator stopped due to error", "error", err)
		return err
	}

	a.logger.Info("App orchestrator stopped gracefully.")
	return nil
}

func (a *App) shutdownTimeout() time.Duration {
	if a.cfg != nil && a.cfg.HTTP.ShutdownTimeout > 0 {
		return a.cfg.HTTP.ShutdownTimeout
	}
	return config.DefaultHTTPShutdownTimeout
}
