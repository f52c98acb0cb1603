package providers

import (
	"github.com/samber/do/v2"

	"github.com/leaflog/leaflog-sync/internal/cache"
	"github.com/leaflog/leaflog-sync/internal/config"
	"github.com/leaflog/leaflog-sync/internal/logger"
	"github.com/leaflog/leaflog-sync/internal/queue"
	"github.com/leaflog/leaflog-sync/internal/store"
)

// StoreHandle wraps the store with shutdown capability.
type StoreHandle struct {
	*store.Store
}

// Shutdown implements do.Shutdownable.
func (h *StoreHandle) Shutdown() error {
	return h.Close()
}

// ProvideStore provides the on-device database.
func ProvideStore(i do.Injector) (*StoreHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	db, err := store.Open(cfg.Data.Path, log.Logger)
	if err != nil {
		return nil, err
	}

	log.Info("Device database initialized", "path", cfg.Data.Path)

	return &StoreHandle{Store: db}, nil
}

// ProvideShelfCache provides the local shelf cache.
func ProvideShelfCache(i do.Injector) (*cache.ShelfCache, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return cache.New(storeHandle.Store, log.Logger), nil
}

// ProvideQueue provides the offline mutation queue.
func ProvideQueue(i do.Injector) (*queue.Queue, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return queue.New(storeHandle.Store, log.Logger, cfg.Queue.MaxDrainAttempts), nil
}
