// Package connectivity exposes the network-reachability signal the
// sync core consumes to decide between direct writes and offline
// enqueueing. The signal is produced outside this module (the platform
// layer observes the radio); the core only reads and reacts to it.
package connectivity

import (
	"log/slog"
	"sync"
)

// Listener is invoked on every reachability change.
type Listener func(online bool)

// Monitor holds the current reachability state and fans changes out to
// listeners.
type Monitor struct {
	mu        sync.Mutex
	online    bool
	nextID    int
	listeners map[int]Listener
	logger    *slog.Logger
}

// NewMonitor creates a monitor with the given initial state.
func NewMonitor(online bool, logger *slog.Logger) *Monitor {
	return &Monitor{
		online:    online,
		listeners: make(map[int]Listener),
		logger:    logger,
	}
}

// IsOnline reports the current reachability state.
func (m *Monitor) IsOnline() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.online
}

// Set records a reachability change and notifies listeners.
// Setting the current state again is a no-op.
func (m *Monitor) Set(online bool) {
	m.mu.Lock()
	if m.online == online {
		m.mu.Unlock()
		return
	}
	m.online = online
	listeners := make([]Listener, 0, len(m.listeners))
	for _, fn := range m.listeners {
		listeners = append(listeners, fn)
	}
	m.mu.Unlock()

	if m.logger != nil {
		m.logger.Info("connectivity changed", slog.Bool("online", online))
	}
	for _, fn := range listeners {
		fn(online)
	}
}

// OnChange registers a listener and returns a cancel func.
func (m *Monitor) OnChange(fn Listener) (cancel func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = fn

	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.listeners, id)
	}
}
