package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/clientdesk/internal/config"
	"github.com/JonMunkholm/clientdesk/internal/core"
	"github.com/JonMunkholm/clientdesk/internal/logging"
	"github.com/JonMunkholm/clientdesk/internal/store"
	"github.com/JonMunkholm/clientdesk/internal/web"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	// Load and validate configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Setup structured logging based on config
	logger := logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"store_driver", cfg.Store.Driver,
		"import_max_concurrent", cfg.Import.MaxConcurrent,
		"rate_limit_enabled", cfg.Rate.Enabled,
	)
	slog.Debug("configuration", "config", cfg.String())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	backend, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer backend.Close()

	if err := backend.Migrate(ctx); err != nil {
		return err
	}
	slog.Info("store ready", "driver", cfg.Store.Driver)

	// Cap concurrent batch inserts across all dialogs
	limiter := core.NewLimiter(cfg.Import.MaxConcurrent, cfg.Import.MaxWaitTime)
	sessions := web.NewSessionRegistry(core.LimitedStore{Store: backend, Limiter: limiter}, cfg.Import, logger)

	server, err := web.NewServer(cfg, sessions, backend)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		core.StartScheduler(gctx, core.Job{
			Name:     "expire-import-dialogs",
			Interval: cfg.Import.JanitorInterval,
			Run:      sessions.Sweep,
		})
		return nil
	})

	if cfg.Rate.Enabled {
		g.Go(func() error {
			core.StartScheduler(gctx, core.Job{
				Name:     "sweep-rate-limits",
				Interval: cfg.Import.JanitorInterval,
				Run:      server.SweepRateLimits,
			})
			return nil
		})
	}

	// Graceful shutdown
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}

		// Wait for in-flight imports to finish (with timeout)
		if status := limiter.Status(); status.Active > 0 {
			slog.Info("waiting for imports to complete", "active", status.Active)
			if err := limiter.WaitForDrain(shutdownCtx); err != nil {
				slog.Warn("imports did not complete in time", "error", err)
			} else {
				slog.Info("all imports completed")
			}
		}
		return nil
	})

	return g.Wait()
}
