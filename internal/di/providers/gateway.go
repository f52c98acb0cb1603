package providers

import (
	"github.com/samber/do/v2"

	"github.com/leaflog/leaflog-sync/internal/config"
	"github.com/leaflog/leaflog-sync/internal/connectivity"
	"github.com/leaflog/leaflog-sync/internal/gateway"
	"github.com/leaflog/leaflog-sync/internal/gateway/local"
	"github.com/leaflog/leaflog-sync/internal/gateway/rest"
	"github.com/leaflog/leaflog-sync/internal/logger"
	"github.com/leaflog/leaflog-sync/internal/queue"
	"github.com/leaflog/leaflog-sync/internal/signal"
)

// GatewayHandle wraps the active gateway so the local variant can be
// closed on shutdown.
type GatewayHandle struct {
	gateway.Gateway
	localGw *local.Gateway
}

// Shutdown implements do.Shutdownable.
func (h *GatewayHandle) Shutdown() error {
	if h.localGw != nil {
		h.localGw.Close()
	}
	return nil
}

// ProvideGateway selects the document-store gateway: REST when a
// backend URL is configured, otherwise the on-device store.
func ProvideGateway(i do.Injector) (*GatewayHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Backend.URL != "" {
		gw := rest.New(rest.Config{
			BaseURL:      cfg.Backend.URL,
			AuthToken:    cfg.Backend.AuthToken,
			PollInterval: cfg.Backend.PollInterval,
		}, log.Logger)
		log.Info("Using hosted document store", "url", cfg.Backend.URL)
		return &GatewayHandle{Gateway: gw}, nil
	}

	storeHandle := do.MustInvoke[*StoreHandle](i)
	gw := local.New(storeHandle.Store, log.Logger)
	log.Info("Using on-device document store")
	return &GatewayHandle{Gateway: gw, localGw: gw}, nil
}

// ProvideMonitor provides the connectivity monitor. The app starts
// online; the platform layer flips the state as the network changes.
func ProvideMonitor(i do.Injector) (*connectivity.Monitor, error) {
	log := do.MustInvoke[*logger.Logger](i)
	return connectivity.NewMonitor(true, log.Logger), nil
}

// ProvideStaleHub provides the staleness signal hub.
func ProvideStaleHub(i do.Injector) (*signal.Hub, error) {
	return signal.NewHub(), nil
}

// QueueHandlers marks that the queue's drain handlers have been
// registered; the provider exists for its side effect.
type QueueHandlers struct{}

// ProvideQueueWiring registers gateway handlers for every action kind
// on the queue.
func ProvideQueueWiring(i do.Injector) (*QueueHandlers, error) {
	cfg := do.MustInvoke[*config.Config](i)
	q := do.MustInvoke[*queue.Queue](i)
	gw := do.MustInvoke[*GatewayHandle](i)

	queue.RegisterGatewayHandlers(q, gw.Gateway, func() string {
		return cfg.App.UserID
	})
	return &QueueHandlers{}, nil
}
