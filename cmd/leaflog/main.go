// Package main provides the entry point for the Leaflog sync core.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/samber/do/v2"

	"github.com/leaflog/leaflog-sync/internal/config"
	"github.com/leaflog/leaflog-sync/internal/connectivity"
	"github.com/leaflog/leaflog-sync/internal/di"
	"github.com/leaflog/leaflog-sync/internal/di/providers"
	"github.com/leaflog/leaflog-sync/internal/logger"
	"github.com/leaflog/leaflog-sync/internal/service"
)

func main() {
	// Create DI container
	injector := di.NewContainer()

	// Bootstrap all services
	if err := di.Bootstrap(injector); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap: %v\n", err)
		os.Exit(1)
	}

	log := do.MustInvoke[*logger.Logger](injector)
	cfg := do.MustInvoke[*config.Config](injector)
	syncService := do.MustInvoke[*service.SyncService](injector)
	monitor := do.MustInvoke[*connectivity.Monitor](injector)
	aggHandle := do.MustInvoke[*providers.AggregatorHandle](injector)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Run the auth-change passes for the configured user, then bring the
	// shelves up. In the app these fire on every sign-in; headless runs
	// use the configured user.
	if cfg.App.UserID != "" {
		if err := syncService.OnAuthStateChanged(ctx, cfg.App.UserID); err != nil {
			log.Warn("Sync passes finished with errors", "error", err)
		}

		if err := aggHandle.Start(ctx); err != nil {
			log.Error("Failed to start shelf aggregator", "error", err)
			os.Exit(1)
		}
		log.Info("Shelf aggregator started", "user_id", cfg.App.UserID)
	} else {
		log.Info("No user configured; waiting for sign-in")
	}

	// Replay queued mutations whenever connectivity returns.
	cancelConnectivity := monitor.OnChange(func(online bool) {
		if !online {
			return
		}
		report, err := syncService.DrainQueues(ctx)
		if err != nil {
			log.Error("Queue drain failed", "error", err)
			return
		}
		log.Info("Queue drained",
			"applied", len(report.Applied),
			"failed", len(report.Failed),
		)
	})
	defer cancelConnectivity()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down gracefully...")
	cancel()

	// Shutdown all services in reverse order
	// The DI container handles shutdown order automatically
	if err := injector.Shutdown(); err != nil {
		log.Error("Shutdown error", "error", err)
	}

	// Database uses a wrapper type, so close it explicitly
	if storeHandle, err := do.Invoke[*providers.StoreHandle](injector); err == nil {
		log.Info("Closing device database...")
		if err := storeHandle.Shutdown(); err != nil {
			log.Error("Failed to close device database", "error", err)
		} else {
			log.Info("Device database closed successfully")
		}
	}

	log.Info("Goodbye")
}
