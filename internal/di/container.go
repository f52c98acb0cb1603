// Package di provides dependency injection configuration for the Leaflog sync core.
package di

import (
	"github.com/samber/do/v2"

	"github.com/leaflog/leaflog-sync/internal/cache"
	"github.com/leaflog/leaflog-sync/internal/config"
	"github.com/leaflog/leaflog-sync/internal/connectivity"
	"github.com/leaflog/leaflog-sync/internal/di/providers"
	"github.com/leaflog/leaflog-sync/internal/logger"
	"github.com/leaflog/leaflog-sync/internal/migrate"
	"github.com/leaflog/leaflog-sync/internal/queue"
	"github.com/leaflog/leaflog-sync/internal/service"
	"github.com/leaflog/leaflog-sync/internal/signal"
)

// NewContainer creates and configures the DI container with all providers.
func NewContainer() *do.RootScope {
	injector := do.New()

	// Core infrastructure
	do.Provide(injector, providers.ProvideConfig)
	do.Provide(injector, providers.ProvideLogger)

	// Storage layer
	do.Provide(injector, providers.ProvideStore)
	do.Provide(injector, providers.ProvideShelfCache)
	do.Provide(injector, providers.ProvideQueue)

	// Gateway layer
	do.Provide(injector, providers.ProvideGateway)
	do.Provide(injector, providers.ProvideMonitor)
	do.Provide(injector, providers.ProvideStaleHub)
	do.Provide(injector, providers.ProvideQueueWiring)

	// Sync passes
	do.Provide(injector, providers.ProvideMigrationRunner)
	do.Provide(injector, providers.ProvideBackfill)

	// Business services
	do.Provide(injector, providers.ProvideBookService)
	do.Provide(injector, providers.ProvideNoteService)
	do.Provide(injector, providers.ProvideSyncService)
	do.Provide(injector, providers.ProvideAggregator)

	return injector
}

// Bootstrap initializes all services and returns handles for lifecycle management.
// This triggers lazy initialization of all core services.
func Bootstrap(injector *do.RootScope) error {
	// Invoke core services to trigger initialization
	_ = do.MustInvoke[*config.Config](injector)
	_ = do.MustInvoke[*logger.Logger](injector)
	_ = do.MustInvoke[*providers.StoreHandle](injector)
	_ = do.MustInvoke[*cache.ShelfCache](injector)
	_ = do.MustInvoke[*queue.Queue](injector)
	_ = do.MustInvoke[*providers.GatewayHandle](injector)
	_ = do.MustInvoke[*connectivity.Monitor](injector)
	_ = do.MustInvoke[*signal.Hub](injector)
	_ = do.MustInvoke[*providers.QueueHandlers](injector)

	// Sync passes
	_ = do.MustInvoke[*migrate.Runner](injector)
	_ = do.MustInvoke[*migrate.Backfill](injector)

	// Business services
	_ = do.MustInvoke[*service.BookService](injector)
	_ = do.MustInvoke[*service.NoteService](injector)
	_ = do.MustInvoke[*service.SyncService](injector)
	_ = do.MustInvoke[*providers.AggregatorHandle](injector)

	return nil
}
