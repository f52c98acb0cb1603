// Package service orchestrates user-facing journal operations: input
// validation, online-versus-offline routing, and the auth-change sync
// passes.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/leaflog/leaflog-sync/internal/connectivity"
	"github.com/leaflog/leaflog-sync/internal/domain"
	domainerrors "github.com/leaflog/leaflog-sync/internal/errors"
	"github.com/leaflog/leaflog-sync/internal/gateway"
	"github.com/leaflog/leaflog-sync/internal/id"
	"github.com/leaflog/leaflog-sync/internal/queue"
)

// BookService handles book mutations, writing through to the gateway
// when the network is reachable and enqueueing otherwise.
type BookService struct {
	gw       gateway.Gateway
	queue    *queue.Queue
	monitor  *connectivity.Monitor
	validate *validator.Validate
	logger   *slog.Logger
}

// NewBookService creates a new book service.
func NewBookService(gw gateway.Gateway, q *queue.Queue, monitor *connectivity.Monitor, logger *slog.Logger) *BookService {
	return &BookService{
		gw:       gw,
		queue:    q,
		monitor:  monitor,
		validate: validator.New(),
		logger:   logger,
	}
}

// CreateBookInput is the payload for adding a book to the journal.
type CreateBookInput struct {
	Title  string `validate:"required"`
	Author string
}

// CreateBook adds a book to the user's journal on the unread shelf.
// New books are born migrated; only pre-app history carries the legacy
// shape.
func (s *BookService) CreateBook(ctx context.Context, userID string, in CreateBookInput) (*domain.Book, error) {
	if userID == "" {
		return nil, domainerrors.Unauthenticated("no signed-in user")
	}
	if err := s.validate.Struct(in); err != nil {
		return nil, domainerrors.Validation("book title is required").WithCause(err)
	}

	bookID, err := id.Generate("book")
	if err != nil {
		return nil, fmt.Errorf("generate book ID: %w", err)
	}

	book := &domain.Book{
		UserID:   userID,
		Title:    in.Title,
		Author:   in.Author,
		List:     domain.ListUnread,
		Migrated: true,
	}
	book.ID = bookID
	book.InitTimestamps()

	if s.monitor.IsOnline() {
		if err := s.gw.CreateBook(ctx, userID, book); err != nil {
			return nil, fmt.Errorf("create book: %w", err)
		}
	} else {
		entry := &domain.QueueEntry{TargetID: bookID, Book: book}
		if err := s.queue.Enqueue(ctx, domain.ActionCreateBook, entry); err != nil {
			return nil, fmt.Errorf("enqueue book create: %w", err)
		}
	}

	s.logger.Info("book created",
		slog.String("book_id", bookID),
		slog.String("user_id", userID),
		slog.Bool("online", s.monitor.IsOnline()),
	)
	return book, nil
}

// UpdateBookInput is a partial book edit. Nil fields are unchanged.
type UpdateBookInput struct {
	Title  *string
	Author *string
	List   *domain.ListStatus
}

// UpdateBook applies a partial edit to a book.
func (s *BookService) UpdateBook(ctx context.Context, userID, bookID string, in UpdateBookInput) error {
	if userID == "" {
		return domainerrors.Unauthenticated("no signed-in user")
	}
	if in.Title != nil && *in.Title == "" {
		return domainerrors.Validation("book title cannot be empty")
	}
	if in.List != nil && !in.List.Valid() {
		return domainerrors.Validationf("unknown list %q", *in.List)
	}

	if s.monitor.IsOnline() {
		patch := gateway.BookPatch{Title: in.Title, Author: in.Author, List: in.List}
		if err := s.gw.UpdateBook(ctx, userID, bookID, patch); err != nil {
			return fmt.Errorf("update book: %w", err)
		}
		return nil
	}

	payload := &domain.Book{}
	if in.Title != nil {
		payload.Title = *in.Title
	}
	if in.Author != nil {
		payload.Author = *in.Author
	}
	if in.List != nil {
		payload.List = *in.List
	}
	entry := &domain.QueueEntry{TargetID: bookID, Book: payload}
	if err := s.queue.Enqueue(ctx, domain.ActionUpdateBook, entry); err != nil {
		return fmt.Errorf("enqueue book update: %w", err)
	}
	return nil
}

// SetList moves a book between shelves, stamping the matching
// last-started/last-finished timestamp.
func (s *BookService) SetList(ctx context.Context, userID, bookID string, list domain.ListStatus) error {
	if userID == "" {
		return domainerrors.Unauthenticated("no signed-in user")
	}
	if !list.Valid() {
		return domainerrors.Validationf("unknown list %q", list)
	}

	now := time.Now()
	patch := gateway.BookPatch{List: &list}
	switch list {
	case domain.ListReading:
		patch.LastStarted = &now
		patch.SetLastStarted = true
	case domain.ListFinished:
		patch.LastFinished = &now
		patch.SetLastFinished = true
	case domain.ListUnread:
		// Shelving back to unread keeps the history timestamps.
	}

	if s.monitor.IsOnline() {
		if err := s.gw.UpdateBook(ctx, userID, bookID, patch); err != nil {
			return fmt.Errorf("move book to %s: %w", list, err)
		}
		return nil
	}

	// The queued payload carries the stamped timestamps so a drained
	// shelf move lands identically to an online one.
	payload := &domain.Book{
		List:         list,
		LastStarted:  patch.LastStarted,
		LastFinished: patch.LastFinished,
	}
	entry := &domain.QueueEntry{TargetID: bookID, Book: payload}
	if err := s.queue.Enqueue(ctx, domain.ActionUpdateBook, entry); err != nil {
		return fmt.Errorf("enqueue shelf move: %w", err)
	}
	return nil
}

// DeleteBook removes a book and all of its notes.
func (s *BookService) DeleteBook(ctx context.Context, userID, bookID string) error {
	if userID == "" {
		return domainerrors.Unauthenticated("no signed-in user")
	}

	if s.monitor.IsOnline() {
		if err := s.gw.DeleteBook(ctx, userID, bookID); err != nil {
			return fmt.Errorf("delete book: %w", err)
		}
	} else {
		entry := &domain.QueueEntry{TargetID: bookID}
		if err := s.queue.Enqueue(ctx, domain.ActionDeleteBook, entry); err != nil {
			return fmt.Errorf("enqueue book delete: %w", err)
		}
	}

	s.logger.Info("book deleted",
		slog.String("book_id", bookID),
		slog.String("user_id", userID),
		slog.Bool("online", s.monitor.IsOnline()),
	)
	return nil
}
