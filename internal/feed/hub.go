// Package feed fans live-query invalidations out to registered
// subscribers. The local document store broadcasts after every mutation
// and each subscriber re-runs its query and delivers a fresh snapshot.
package feed

import (
	"log/slog"
	"sync"

	"github.com/leaflog/leaflog-sync/internal/id"
)

// Hub tracks live-query subscribers.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]func()
	logger *slog.Logger
	closed bool
}

// NewHub creates an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		subs:   make(map[string]func()),
		logger: logger,
	}
}

// Register adds a subscriber and returns its registration ID.
// The notify callback is invoked on every Broadcast until Unregister.
func (h *Hub) Register(notify func()) (string, error) {
	subID, err := id.Generate("sub")
	if err != nil {
		return "", err
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return subID, nil // no-op registration after close
	}
	h.subs[subID] = notify
	total := len(h.subs)
	h.mu.Unlock()

	if h.logger != nil {
		h.logger.Debug("feed subscriber registered",
			slog.String("sub_id", subID),
			slog.Int("total_subscribers", total))
	}
	return subID, nil
}

// Unregister removes a subscriber. Unknown IDs are ignored, so an
// unsubscribe handle that fires after Close is harmless.
func (h *Hub) Unregister(subID string) {
	h.mu.Lock()
	_, ok := h.subs[subID]
	delete(h.subs, subID)
	total := len(h.subs)
	h.mu.Unlock()

	if ok && h.logger != nil {
		h.logger.Debug("feed subscriber unregistered",
			slog.String("sub_id", subID),
			slog.Int("total_subscribers", total))
	}
}

// Broadcast invokes every subscriber's notify callback. Callbacks run
// synchronously on the caller's goroutine; they may read from the store
// but must not mutate it, or Broadcast would recurse.
func (h *Hub) Broadcast() {
	h.mu.RLock()
	notifies := make([]func(), 0, len(h.subs))
	for _, fn := range h.subs {
		notifies = append(notifies, fn)
	}
	h.mu.RUnlock()

	for _, fn := range notifies {
		fn()
	}
}

// SubscriberCount returns the number of registered subscribers.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Close drops all subscribers and rejects future registrations.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	h.subs = make(map[string]func())
}
