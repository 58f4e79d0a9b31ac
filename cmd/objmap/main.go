package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/JonMunkholm/objmap/internal/audit"
	"github.com/JonMunkholm/objmap/internal/billing"
	"github.com/JonMunkholm/objmap/internal/config"
	"github.com/JonMunkholm/objmap/internal/core"
	"github.com/JonMunkholm/objmap/internal/logging"
	"github.com/JonMunkholm/objmap/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"driver", cfg.Store.Driver,
		"cache_enabled", cfg.Mapping.CacheEnabled,
		"distributed_tx", cfg.Mapping.DistributedTx,
	)

	ctx := context.Background()
	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		slog.Error("failed to open store", "driver", cfg.Store.Driver, "error", err)
		os.Exit(1)
	}
	defer closeStore()

	dir := core.NewDirectory(core.Options{
		CacheEnabled:  cfg.Mapping.CacheEnabled,
		DistributedTx: cfg.Mapping.DistributedTx,
		MaxPathDepth:  cfg.Mapping.MaxPathDepth,
		Provider:      store,
		Executor:      store,
		WarningSink:   audit.WarningPolicy(cfg.Mapping.AcceptWarnings),
		Logger:        slog.Default(),
	})
	if err := billing.Register(dir); err != nil {
		slog.Error("failed to register types", "error", err)
		os.Exit(1)
	}
	slog.Info("types registered", "types", dir.Types())

	recorder := audit.NewRecorder(audit.DefaultCapacity)
	server := web.NewServer(dir, recorder, cfg.Server)

	// Create cancellable context for background jobs
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	go dir.StartCacheFlushScheduler(jobCtx, cfg.Mapping.CacheFlushInterval)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(); err != nil {
		slog.Info("server stopped", "error", err)
	}
}
