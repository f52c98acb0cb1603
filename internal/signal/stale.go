// Package signal provides a session-scoped staleness hub: marking an ID
// stale triggers exactly one refetch for each consumer watching that
// ID, and the consumer clears the marker after handling it. This
// replaces ad hoc process-wide "refetch this" flags.
package signal

import "sync"

// Hub tracks staleness markers and their watchers.
type Hub struct {
	mu       sync.Mutex
	stale    map[string]bool
	nextID   int
	watchers map[string]map[int]func(id string)
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		stale:    make(map[string]bool),
		watchers: make(map[string]map[int]func(id string)),
	}
}

// Mark flags an ID as stale and notifies each current watcher once.
// The marker stays set until a consumer clears it, so a watcher
// registered later still sees the pending staleness.
func (h *Hub) Mark(id string) {
	h.mu.Lock()
	h.stale[id] = true
	fns := make([]func(string), 0, len(h.watchers[id]))
	for _, fn := range h.watchers[id] {
		fns = append(fns, fn)
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(id)
	}
}

// Clear removes the staleness marker for an ID. Consumers call this
// after handling a refetch.
func (h *Hub) Clear(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.stale, id)
}

// IsStale reports whether an ID currently carries a marker.
func (h *Hub) IsStale(id string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.stale[id]
}

// Watch registers a callback for an ID and returns a cancel func.
// If the ID is already marked stale, the callback fires immediately so
// late subscribers do not miss a pending refetch.
func (h *Hub) Watch(id string, fn func(id string)) (cancel func()) {
	h.mu.Lock()
	wid := h.nextID
	h.nextID++
	if h.watchers[id] == nil {
		h.watchers[id] = make(map[int]func(string))
	}
	h.watchers[id][wid] = fn
	pending := h.stale[id]
	h.mu.Unlock()

	if pending {
		fn(id)
	}

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.watchers[id], wid)
		if len(h.watchers[id]) == 0 {
			delete(h.watchers, id)
		}
	}
}
