// Package local implements the data gateway against the on-device
// Badger store. It backs tests and offline development with the same
// contract the hosted document store provides, including live queries.
package local

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/leaflog/leaflog-sync/internal/domain"
	"github.com/leaflog/leaflog-sync/internal/errors"
	"github.com/leaflog/leaflog-sync/internal/feed"
	"github.com/leaflog/leaflog-sync/internal/gateway"
	"github.com/leaflog/leaflog-sync/internal/store"
)

const (
	bookPrefix = "doc:book:"
	notePrefix = "doc:note:"
)

// Gateway is a Badger-backed document store for books and notes.
type Gateway struct {
	store  *store.Store
	hub    *feed.Hub
	logger *slog.Logger
}

var _ gateway.Gateway = (*Gateway)(nil)

// New creates a local gateway on top of the device store.
func New(s *store.Store, logger *slog.Logger) *Gateway {
	return &Gateway{
		store:  s,
		hub:    feed.NewHub(logger),
		logger: logger,
	}
}

// Close tears down all live-query registrations.
func (g *Gateway) Close() {
	g.hub.Close()
}

func bookKey(userID, bookID string) string {
	return bookPrefix + userID + ":" + bookID
}

func noteKey(userID, bookID, noteID string) string {
	return notePrefix + userID + ":" + bookID + ":" + noteID
}

// requireUser enforces the authenticated-namespace contract shared by
// every gateway call.
func requireUser(userID string) error {
	if userID == "" {
		return errors.Unauthenticated("gateway call without a signed-in user")
	}
	return nil
}

// CreateBook stores a new book document.
func (g *Gateway) CreateBook(ctx context.Context, userID string, book *domain.Book) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	key := bookKey(userID, book.ID)
	exists, err := g.store.Exists(key)
	if err != nil {
		return fmt.Errorf("check book exists: %w", err)
	}
	if exists {
		return errors.AlreadyExists("book already exists").WithDetails(book.ID)
	}

	book.UserID = userID
	if err := g.store.Set(key, book); err != nil {
		return fmt.Errorf("create book: %w", err)
	}

	if g.logger != nil {
		g.logger.Info("book created",
			slog.String("id", book.ID),
			slog.String("title", book.Title),
			slog.String("list", string(book.List)),
		)
	}
	g.hub.Broadcast()
	return nil
}

// GetBook retrieves a single book document.
func (g *Gateway) GetBook(ctx context.Context, userID, bookID string) (*domain.Book, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var book domain.Book
	err := g.store.Get(bookKey(userID, bookID), &book)
	if errors.Is(err, store.ErrKeyNotFound) {
		return nil, errors.NotFoundf("book %s not found", bookID)
	}
	if err != nil {
		return nil, fmt.Errorf("get book: %w", err)
	}
	return &book, nil
}

// ListBooks returns every book under the user, in store key order.
// The backend makes no cross-run ordering promise and neither does this.
func (g *Gateway) ListBooks(ctx context.Context, userID string) ([]*domain.Book, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var books []*domain.Book
	err := g.store.IteratePrefix(bookPrefix+userID+":", func(_ string, val []byte) error {
		var book domain.Book
		if err := unmarshal(val, &book); err != nil {
			return err
		}
		books = append(books, &book)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return books, nil
}

// ListBooksWhere returns the books matching the query's shelf predicate,
// ordered per the query.
func (g *Gateway) ListBooksWhere(ctx context.Context, userID string, q gateway.Query) ([]*domain.Book, error) {
	all, err := g.ListBooks(ctx, userID)
	if err != nil {
		return nil, err
	}

	books := all[:0:0]
	for _, b := range all {
		if b.List == q.List {
			books = append(books, b)
		}
	}
	sortBooks(books, q)
	return books, nil
}

// UpdateBook applies a partial update to an existing book.
func (g *Gateway) UpdateBook(ctx context.Context, userID, bookID string, patch gateway.BookPatch) error {
	if err := requireUser(userID); err != nil {
		return err
	}

	book, err := g.GetBook(ctx, userID, bookID)
	if err != nil {
		return err
	}

	applyBookPatch(book, patch)
	book.Touch()

	if err := g.store.Set(bookKey(userID, bookID), book); err != nil {
		return fmt.Errorf("update book: %w", err)
	}

	if g.logger != nil {
		g.logger.Debug("book updated", slog.String("id", bookID))
	}
	g.hub.Broadcast()
	return nil
}

// DeleteBook removes a book and cascades to all of its notes.
func (g *Gateway) DeleteBook(ctx context.Context, userID, bookID string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	key := bookKey(userID, bookID)
	exists, err := g.store.Exists(key)
	if err != nil {
		return fmt.Errorf("check book exists: %w", err)
	}
	if !exists {
		return errors.NotFoundf("book %s not found", bookID)
	}

	// Cascade: collect note keys first, then delete.
	var noteKeys []string
	prefix := notePrefix + userID + ":" + bookID + ":"
	err = g.store.IteratePrefix(prefix, func(k string, _ []byte) error {
		noteKeys = append(noteKeys, k)
		return nil
	})
	if err != nil {
		return fmt.Errorf("list notes for cascade: %w", err)
	}
	for _, k := range noteKeys {
		if err := g.store.Delete(k); err != nil {
			return fmt.Errorf("cascade delete note %s: %w", k, err)
		}
	}

	if err := g.store.Delete(key); err != nil {
		return fmt.Errorf("delete book: %w", err)
	}

	if g.logger != nil {
		g.logger.Info("book deleted",
			slog.String("id", bookID),
			slog.Int("cascaded_notes", len(noteKeys)),
		)
	}
	g.hub.Broadcast()
	return nil
}

// CreateNote stores a new note under a book.
func (g *Gateway) CreateNote(ctx context.Context, userID, bookID string, note *domain.Note) error {
	if err := requireUser(userID); err != nil {
		return err
	}

	// Notes cannot outlive their book.
	if _, err := g.GetBook(ctx, userID, bookID); err != nil {
		return err
	}

	note.BookID = bookID
	if err := g.store.Set(noteKey(userID, bookID, note.ID), note); err != nil {
		return fmt.Errorf("create note: %w", err)
	}

	if g.logger != nil {
		g.logger.Debug("note created",
			slog.String("id", note.ID),
			slog.String("book_id", bookID),
			slog.String("type", string(note.Type)),
		)
	}
	return nil
}

// ListNotes returns every note under a book.
func (g *Gateway) ListNotes(ctx context.Context, userID, bookID string) ([]*domain.Note, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var notes []*domain.Note
	err := g.store.IteratePrefix(notePrefix+userID+":"+bookID+":", func(_ string, val []byte) error {
		var note domain.Note
		if err := unmarshal(val, &note); err != nil {
			return err
		}
		notes = append(notes, &note)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list notes: %w", err)
	}
	return notes, nil
}

// UpdateNote applies a partial update to an existing note.
func (g *Gateway) UpdateNote(ctx context.Context, userID, bookID, noteID string, patch gateway.NotePatch) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	key := noteKey(userID, bookID, noteID)
	var note domain.Note
	err := g.store.Get(key, &note)
	if errors.Is(err, store.ErrKeyNotFound) {
		return errors.NotFoundf("note %s not found", noteID)
	}
	if err != nil {
		return fmt.Errorf("get note: %w", err)
	}

	applyNotePatch(&note, patch)
	note.Touch()

	if err := g.store.Set(key, &note); err != nil {
		return fmt.Errorf("update note: %w", err)
	}
	return nil
}

// DeleteNote removes a single note.
func (g *Gateway) DeleteNote(ctx context.Context, userID, bookID, noteID string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	key := noteKey(userID, bookID, noteID)
	exists, err := g.store.Exists(key)
	if err != nil {
		return fmt.Errorf("check note exists: %w", err)
	}
	if !exists {
		return errors.NotFoundf("note %s not found", noteID)
	}
	if err := g.store.Delete(key); err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	return nil
}

// Subscribe registers a live book query. The current snapshot is
// delivered synchronously before Subscribe returns, then again after
// every book mutation.
func (g *Gateway) Subscribe(ctx context.Context, userID string, q gateway.Query, onSnapshot func(books []*domain.Book)) (gateway.Unsubscribe, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	deliver := func() {
		books, err := g.ListBooksWhere(ctx, userID, q)
		if err != nil {
			if g.logger != nil {
				g.logger.Error("live query refresh failed",
					slog.String("list", string(q.List)),
					slog.String("error", err.Error()))
			}
			return
		}
		onSnapshot(books)
	}

	subID, err := g.hub.Register(deliver)
	if err != nil {
		return nil, err
	}

	// Initial snapshot.
	deliver()

	return func() { g.hub.Unregister(subID) }, nil
}

func applyBookPatch(book *domain.Book, patch gateway.BookPatch) {
	if patch.Title != nil {
		book.Title = *patch.Title
	}
	if patch.Author != nil {
		book.Author = *patch.Author
	}
	if patch.List != nil {
		book.List = *patch.List
	}
	if patch.Migrated != nil {
		book.Migrated = *patch.Migrated
	}
	if patch.SetLastStarted {
		book.LastStarted = patch.LastStarted
	}
	if patch.SetLastFinished {
		book.LastFinished = patch.LastFinished
	}
	if patch.ClearLegacy {
		book.Started = nil
		book.Finished = nil
	}
}

func applyNotePatch(note *domain.Note, patch gateway.NotePatch) {
	if patch.Content != nil {
		note.Content = *patch.Content
	}
	if patch.Word != nil {
		note.Word = *patch.Word
	}
	if patch.Definition != nil {
		note.Definition = *patch.Definition
	}
	if patch.Page != nil {
		note.Page = patch.Page
	}
	if patch.Date != nil {
		note.Date = patch.Date
	}
}

// sortBooks orders books per the query. Books missing the ordering
// field sort last regardless of direction.
func sortBooks(books []*domain.Book, q gateway.Query) {
	if q.OrderBy == "" {
		return
	}
	sort.SliceStable(books, func(i, j int) bool {
		ti, iok := orderValue(books[i], q.OrderBy)
		tj, jok := orderValue(books[j], q.OrderBy)
		if iok != jok {
			return iok
		}
		if !iok {
			return strings.Compare(books[i].ID, books[j].ID) < 0
		}
		if q.Descending {
			return ti.After(tj)
		}
		return ti.Before(tj)
	})
}

func orderValue(b *domain.Book, field gateway.OrderField) (time.Time, bool) {
	switch field {
	case gateway.OrderByCreatedAt:
		return b.CreatedAt, !b.CreatedAt.IsZero()
	case gateway.OrderByLastStarted:
		if b.LastStarted == nil {
			return time.Time{}, false
		}
		return *b.LastStarted, true
	case gateway.OrderByLastFinished:
		if b.LastFinished == nil {
			return time.Time{}, false
		}
		return *b.LastFinished, true
	default:
		return time.Time{}, false
	}
}
