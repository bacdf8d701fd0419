package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"

	"github.com/KiritoEM/safeo-api/internal/app"
	"github.com/KiritoEM/safeo-api/internal/cache"
	"github.com/KiritoEM/safeo-api/internal/config"
)

// memoryCachePurgeInterval is how often expired entries are dropped from the
// in-memory cache.
const memoryCachePurgeInterval = time.Minute

// RunServer starts the HTTP server with graceful shutdown support.
// Loads configuration, initializes the DI container, and starts the Gin HTTP server.
// Blocks until receiving SIGINT/SIGTERM or encountering a fatal error. On shutdown
// signal, gracefully stops the servers within DBConnMaxLifetime timeout.
//
// The master key is resolved before any listener starts, so a missing or invalid
// key aborts startup.
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

	masterKey, err := container.MasterKey()
	if err != nil {
		return fmt.Errorf("refusing to start: %w", err)
	}
	logger.Info("master key loaded", slog.String("master_key_id", masterKey.ID))

	// Setup graceful shutdown
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Get HTTP server from container (this initializes all dependencies)
	server, err := container.HTTPServer(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize HTTP server: %w", err)
	}

	var metricsServer interface {
		Start(ctx context.Context) error
		Shutdown(ctx context.Context) error
	}
	if cfg.MetricsEnabled {
		metricsServer, err = container.MetricsServer()
		if err != nil {
			return fmt.Errorf("failed to initialize metrics server: %w", err)
		}
	}

	appCache, err := container.Cache()
	if err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}

	cleanupWorker, err := container.OutboxUseCase()
	if err != nil {
		return fmt.Errorf("failed to initialize payload cleanup worker: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := server.Start(gctx); err != nil {
			return fmt.Errorf("api server error: %w", err)
		}
		return nil
	})

	if metricsServer != nil {
		g.Go(func() error {
			if err := metricsServer.Start(gctx); err != nil {
				return fmt.Errorf("metrics server error: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		if err := cleanupWorker.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return fmt.Errorf("payload cleanup worker error: %w", err)
		}
		return nil
	})

	if memoryCache, ok := appCache.(*cache.MemoryCache); ok {
		g.Go(func() error {
			purgeMemoryCache(gctx, memoryCache, logger)
			return nil
		})
	}

	// Shut the listeners down once a signal arrives or any server fails
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down servers")

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.DBConnMaxLifetime)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("api server shutdown: %w", err)
		}
		if metricsServer != nil {
			if err := metricsServer.Shutdown(shutdownCtx); err != nil {
				return fmt.Errorf("metrics server shutdown: %w", err)
			}
		}
		return nil
	})

	return g.Wait()
}

func purgeMemoryCache(ctx context.Context, memoryCache *cache.MemoryCache, logger *slog.Logger) {
	ticker := time.NewTicker(memoryCachePurgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if purged := memoryCache.Purge(); purged > 0 {
				logger.Debug("purged expired cache entries", slog.Int("count", purged))
			}
		}
	}
}
