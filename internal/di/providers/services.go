package providers

import (
	"github.com/samber/do/v2"

	"github.com/leaflog/leaflog-sync/internal/cache"
	"github.com/leaflog/leaflog-sync/internal/config"
	"github.com/leaflog/leaflog-sync/internal/connectivity"
	"github.com/leaflog/leaflog-sync/internal/logger"
	"github.com/leaflog/leaflog-sync/internal/migrate"
	"github.com/leaflog/leaflog-sync/internal/queue"
	"github.com/leaflog/leaflog-sync/internal/service"
	"github.com/leaflog/leaflog-sync/internal/shelves"
)

// ProvideMigrationRunner provides the one-time schema migration runner.
func ProvideMigrationRunner(i do.Injector) (*migrate.Runner, error) {
	gw := do.MustInvoke[*GatewayHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return migrate.NewRunner(gw.Gateway, log.Logger), nil
}

// ProvideBackfill provides the note-date backfill pass.
func ProvideBackfill(i do.Injector) (*migrate.Backfill, error) {
	gw := do.MustInvoke[*GatewayHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return migrate.NewBackfill(gw.Gateway, log.Logger), nil
}

// ProvideBookService provides the book service.
func ProvideBookService(i do.Injector) (*service.BookService, error) {
	gw := do.MustInvoke[*GatewayHandle](i)
	q := do.MustInvoke[*queue.Queue](i)
	monitor := do.MustInvoke[*connectivity.Monitor](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewBookService(gw.Gateway, q, monitor, log.Logger), nil
}

// ProvideNoteService provides the note service.
func ProvideNoteService(i do.Injector) (*service.NoteService, error) {
	gw := do.MustInvoke[*GatewayHandle](i)
	q := do.MustInvoke[*queue.Queue](i)
	monitor := do.MustInvoke[*connectivity.Monitor](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewNoteService(gw.Gateway, q, monitor, log.Logger), nil
}

// ProvideSyncService provides the auth-change sync service.
func ProvideSyncService(i do.Injector) (*service.SyncService, error) {
	runner := do.MustInvoke[*migrate.Runner](i)
	backfill := do.MustInvoke[*migrate.Backfill](i)
	q := do.MustInvoke[*queue.Queue](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewSyncService(runner, backfill, q, log.Logger), nil
}

// AggregatorHandle wraps the shelf aggregator for lifecycle management.
type AggregatorHandle struct {
	*shelves.Aggregator
}

// Shutdown implements do.Shutdownable.
func (h *AggregatorHandle) Shutdown() error {
	h.Stop()
	return nil
}

// ProvideAggregator provides the shelf aggregator for the configured
// user. It is created but not started; the app starts it after the
// auth-change passes complete.
func ProvideAggregator(i do.Injector) (*AggregatorHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	gw := do.MustInvoke[*GatewayHandle](i)
	shelfCache := do.MustInvoke[*cache.ShelfCache](i)
	log := do.MustInvoke[*logger.Logger](i)

	agg := shelves.New(gw.Gateway, shelfCache, cfg.App.UserID, log.Logger)
	return &AggregatorHandle{Aggregator: agg}, nil
}
