// Package gateway defines the contract with the hosted document store
// that holds the user's books and notes. The sync core is written
// against this interface; implementations live in the rest and local
// subpackages.
package gateway

import (
	"context"
	"time"

	"github.com/leaflog/leaflog-sync/internal/domain"
)

// OrderField names a book field live queries can order by.
type OrderField string

// Orderable fields.
const (
	OrderByCreatedAt    OrderField = "created_at"
	OrderByLastStarted  OrderField = "last_started"
	OrderByLastFinished OrderField = "last_finished"
)

// Query describes one user-scoped live book query: a shelf predicate
// plus an optional ordering.
type Query struct {
	List       domain.ListStatus
	OrderBy    OrderField
	Descending bool
}

// Unsubscribe tears down one live-query registration. Implementations
// must tolerate (and callers must avoid) double invocation; the
// aggregator invokes each handle exactly once.
type Unsubscribe func()

// BookPatch is a partial book update. Nil fields are left unchanged.
// The Set flags distinguish "write nil" from "leave unchanged" for the
// nullable date fields; ClearLegacy removes the pre-migration
// started/finished fields from the stored document.
type BookPatch struct {
	Title           *string
	Author          *string
	List            *domain.ListStatus
	Migrated        *bool
	LastStarted     *time.Time
	SetLastStarted  bool
	LastFinished    *time.Time
	SetLastFinished bool
	ClearLegacy     bool
}

// NotePatch is a partial note update. Nil fields are left unchanged.
type NotePatch struct {
	Content    *string
	Word       *string
	Definition *string
	Page       *int
	Date       *time.Time
}

// Gateway is the remote data gateway for books and notes.
//
// Every call is scoped to the given user's namespace; calling any of
// them with an empty user ID is a contract violation and fails with an
// unauthenticated error before any I/O.
type Gateway interface {
	CreateBook(ctx context.Context, userID string, book *domain.Book) error
	ListBooks(ctx context.Context, userID string) ([]*domain.Book, error)
	ListBooksWhere(ctx context.Context, userID string, q Query) ([]*domain.Book, error)
	UpdateBook(ctx context.Context, userID, bookID string, patch BookPatch) error
	// DeleteBook removes the book and cascades to all of its notes.
	DeleteBook(ctx context.Context, userID, bookID string) error

	CreateNote(ctx context.Context, userID, bookID string, note *domain.Note) error
	ListNotes(ctx context.Context, userID, bookID string) ([]*domain.Note, error)
	UpdateNote(ctx context.Context, userID, bookID, noteID string, patch NotePatch) error
	DeleteNote(ctx context.Context, userID, bookID, noteID string) error

	// Subscribe registers a live query. onSnapshot is invoked with the
	// full current result set immediately and again after every change
	// that affects the query, until the returned handle is invoked.
	Subscribe(ctx context.Context, userID string, q Query, onSnapshot func(books []*domain.Book)) (Unsubscribe, error)
}
