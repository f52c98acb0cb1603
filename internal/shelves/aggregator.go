// Package shelves derives the three live reading-status shelves from
// the data gateway's live queries, seeding the unread shelf from the
// device cache for instant cold-start rendering.
package shelves

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"

	"github.com/leaflog/leaflog-sync/internal/cache"
	"github.com/leaflog/leaflog-sync/internal/dates"
	"github.com/leaflog/leaflog-sync/internal/domain"
	"github.com/leaflog/leaflog-sync/internal/errors"
	"github.com/leaflog/leaflog-sync/internal/gateway"
)

// Aggregator maintains continuously-updated reading/finished/unread
// shelves for one user.
type Aggregator struct {
	gw     gateway.Gateway
	cache  *cache.ShelfCache
	logger *slog.Logger
	userID string

	mu             sync.Mutex
	reading        []*domain.Book
	finished       []*domain.Book
	unread         []*domain.Book
	cacheAttempted bool
	liveUnread     bool
	unsubs         []gateway.Unsubscribe
	started        bool

	changed chan struct{}
}

// New creates an aggregator for the given user.
func New(gw gateway.Gateway, shelfCache *cache.ShelfCache, userID string, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		gw:      gw,
		cache:   shelfCache,
		logger:  logger,
		userID:  userID,
		changed: make(chan struct{}, 1),
	}
}

// Start seeds the unread shelf from the device cache, then registers
// the three live queries. The cached shelf is surfaced immediately to
// avoid an empty-state flash and is fully replaced, without merging,
// the moment the first live unread snapshot arrives.
func (a *Aggregator) Start(ctx context.Context) error {
	if a.userID == "" {
		return errors.Unauthenticated("shelf aggregation requires a signed-in user")
	}

	a.mu.Lock()
	if a.started {
		a.mu.Unlock()
		return errors.Conflict("aggregator already started")
	}
	a.started = true
	a.mu.Unlock()

	// Seed from cache before touching the network.
	cached, ok, err := a.cache.GetUnread(a.userID)
	a.mu.Lock()
	a.cacheAttempted = true
	if err != nil {
		// Cache is a latency optimization only; a read failure just
		// means we wait for the live feed.
		a.logger.Warn("unread shelf cache read failed", slog.String("error", err.Error()))
	} else if ok {
		a.unread = cached
	}
	a.mu.Unlock()
	a.notify()

	subscriptions := []struct {
		query gateway.Query
		apply func([]*domain.Book)
	}{
		{
			query: gateway.Query{List: domain.ListReading, OrderBy: gateway.OrderByLastStarted, Descending: true},
			apply: a.applyReading,
		},
		{
			query: gateway.Query{List: domain.ListFinished, OrderBy: gateway.OrderByLastFinished, Descending: true},
			apply: a.applyFinished,
		},
		{
			query: gateway.Query{List: domain.ListUnread},
			apply: a.applyUnread,
		},
	}

	for _, sub := range subscriptions {
		unsub, err := a.gw.Subscribe(ctx, a.userID, sub.query, sub.apply)
		if err != nil {
			a.teardown()
			a.mu.Lock()
			a.started = false
			a.mu.Unlock()
			return fmt.Errorf("subscribe %s shelf: %w", sub.query.List, err)
		}
		a.mu.Lock()
		a.unsubs = append(a.unsubs, unsub)
		a.mu.Unlock()
	}

	a.logger.Info("shelf aggregator started", slog.String("user_id", a.userID))
	return nil
}

// Stop tears down the live-query registrations. Each unsubscribe
// handle is invoked exactly once; Stop is safe to call repeatedly.
func (a *Aggregator) Stop() {
	a.teardown()
	a.logger.Info("shelf aggregator stopped", slog.String("user_id", a.userID))
}

func (a *Aggregator) teardown() {
	a.mu.Lock()
	unsubs := a.unsubs
	a.unsubs = nil
	a.mu.Unlock()

	for _, unsub := range unsubs {
		unsub()
	}
}

// Shelves returns the current point-in-time view.
func (a *Aggregator) Shelves() domain.Shelves {
	a.mu.Lock()
	defer a.mu.Unlock()
	return domain.Shelves{
		Reading:  append([]*domain.Book(nil), a.reading...),
		Finished: append([]*domain.Book(nil), a.finished...),
		Unread:   append([]*domain.Book(nil), a.unread...),
		Loading:  !a.cacheAttempted && !a.liveUnread,
	}
}

// Changes signals after every shelf update. The channel is coalescing:
// a slow consumer sees at least one signal per burst of updates.
func (a *Aggregator) Changes() <-chan struct{} {
	return a.changed
}

func (a *Aggregator) notify() {
	select {
	case a.changed <- struct{}{}:
	default:
	}
}

func (a *Aggregator) applyReading(books []*domain.Book) {
	a.mu.Lock()
	a.reading = books
	a.mu.Unlock()
	a.notify()
}

func (a *Aggregator) applyFinished(books []*domain.Book) {
	a.mu.Lock()
	a.finished = books
	a.mu.Unlock()
	a.notify()
}

// applyUnread handles one live unread snapshot: normalize dates,
// persist the normalized list to the device cache, then shuffle before
// exposing it. The shuffle is deliberate randomization policy so a
// different unread book surfaces first on each snapshot, not a bug.
// Once a live snapshot has arrived the cache is never consulted again.
func (a *Aggregator) applyUnread(books []*domain.Book) {
	for _, b := range books {
		dates.NormalizeBookDates(b, a.logger)
	}

	if err := a.cache.SetUnread(a.userID, books); err != nil {
		a.logger.Warn("unread shelf cache write failed", slog.String("error", err.Error()))
	}

	shuffled := append([]*domain.Book(nil), books...)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	a.mu.Lock()
	a.unread = shuffled
	a.liveUnread = true
	a.mu.Unlock()
	a.notify()
}
