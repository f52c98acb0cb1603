// Package cache persists the last-known unread shelf on device so the
// UI can paint instantly on cold start, before the live feed connects.
package cache

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/leaflog/leaflog-sync/internal/domain"
	"github.com/leaflog/leaflog-sync/internal/store"
)

const unreadKeyPrefix = "cache:shelf:unread:"

// ShelfCache stores point-in-time shelf snapshots. It is a latency
// optimization, never a source of truth: values are always safe to
// discard or overwrite.
type ShelfCache struct {
	store  *store.Store
	logger *slog.Logger
}

// New creates a shelf cache on top of the device store.
func New(s *store.Store, logger *slog.Logger) *ShelfCache {
	return &ShelfCache{store: s, logger: logger}
}

// GetUnread returns the cached unread shelf for the user.
// The second return value is false when no snapshot has been cached yet.
func (c *ShelfCache) GetUnread(userID string) ([]*domain.Book, bool, error) {
	var books []*domain.Book
	err := c.store.Get(unreadKeyPrefix+userID, &books)
	if errors.Is(err, store.ErrKeyNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get cached unread shelf: %w", err)
	}
	return books, true, nil
}

// SetUnread overwrites the cached unread shelf for the user.
func (c *ShelfCache) SetUnread(userID string, books []*domain.Book) error {
	if err := c.store.Set(unreadKeyPrefix+userID, books); err != nil {
		return fmt.Errorf("cache unread shelf: %w", err)
	}
	if c.logger != nil {
		c.logger.Debug("unread shelf cached", "user_id", userID, "count", len(books))
	}
	return nil
}
