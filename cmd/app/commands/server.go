package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/stellation/cloudview/internal/app"
	"github.com/stellation/cloudview/internal/config"
	internalHTTP "github.com/stellation/cloudview/internal/http"
)

// shutdownTimeout bounds the graceful drain of in-flight requests.
const shutdownTimeout = 30 * time.Second

// RunServer starts the HTTP server with graceful shutdown support.
// Loads configuration, initializes the DI container, loads the credential
// store (seeding it on first run), and starts the Gin HTTP server plus the
// metrics server when enabled. Blocks until receiving SIGINT/SIGTERM or
// encountering a fatal error.
func RunServer(ctx context.Context, version string) error {
	// Load configuration
	cfg := config.Load()

	// Set Gin mode based on log level
	gin.SetMode(cfg.GetGinMode())

	// Create DI container
	container := app.NewContainer(cfg)

	// Get logger from container
	logger := container.Logger()
	logger.Info("starting server", slog.String("version", version))

	// Ensure cleanup on exit
	defer closeContainer(container, logger)

	// Load the credential table before accepting traffic. A missing store is
	// seeded with a bootstrap admin key; a corrupt one aborts startup.
	apiKeyUseCase, err := container.APIKeyUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize api key use case: %w", err)
	}
	if err := apiKeyUseCase.Init(ctx); err != nil {
		return fmt.Errorf("failed to initialize credential store: %w", err)
	}

	// Get HTTP server from container (this initializes all dependencies)
	server, err := container.HTTPServer()
	if err != nil {
		return fmt.Errorf("failed to initialize HTTP server: %w", err)
	}

	var metricsServer *internalHTTP.MetricsServer
	if cfg.MetricsEnabled {
		metricsServer, err = container.MetricsServer()
		if err != nil {
			return fmt.Errorf("failed to initialize metrics server: %w", err)
		}
	}

	// Setup graceful shutdown
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		if err := server.Start(groupCtx); err != nil {
			return fmt.Errorf("api server error: %w", err)
		}
		return nil
	})

	if metricsServer != nil {
		group.Go(func() error {
			if err := metricsServer.Start(groupCtx); err != nil {
				return fmt.Errorf("metrics server error: %w", err)
			}
			return nil
		})
	}

	// Wait for shutdown signal or server error, then drain.
	group.Go(func() error {
		<-groupCtx.Done()
		logger.Info("shutdown signal received")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()

		var shutdownErr error
		if err := server.Shutdown(shutdownCtx); err != nil {
			shutdownErr = fmt.Errorf("api server shutdown: %w", err)
		}
		if metricsServer != nil {
			if err := metricsServer.Shutdown(shutdownCtx); err != nil && shutdownErr == nil {
				shutdownErr = fmt.Errorf("metrics server shutdown: %w", err)
			}
		}
		return shutdownErr
	})

	return group.Wait()
}
