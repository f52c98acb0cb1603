// Package domain contains the core business entities for the Leaflog reading journal.
package domain

import "time"

// ListStatus is the shelf a book currently lives on.
type ListStatus string

// The three shelves.
const (
	ListReading  ListStatus = "reading"
	ListFinished ListStatus = "finished"
	ListUnread   ListStatus = "unread"
)

// Valid reports whether the status is one of the three known shelves.
func (l ListStatus) Valid() bool {
	switch l {
	case ListReading, ListFinished, ListUnread:
		return true
	}
	return false
}

// Book represents one book in a user's reading journal.
// Books are scoped under a user and exclusively own their Notes.
type Book struct {
	Syncable
	UserID       string     `json:"user_id"`
	Title        string     `json:"title"`
	Author       string     `json:"author,omitempty"`
	List         ListStatus `json:"list,omitempty"`
	Migrated     bool       `json:"migrated"`
	LastStarted  *time.Time `json:"last_started,omitempty"`
	LastFinished *time.Time `json:"last_finished,omitempty"`

	// Legacy schema fields. Present only on books that predate the
	// status-note model; cleared by the migration runner.
	Started  *time.Time `json:"started,omitempty"`
	Finished *time.Time `json:"finished,omitempty"`
}

// NeedsMigration reports whether this book still carries the legacy shape.
func (b *Book) NeedsMigration() bool {
	return !b.Migrated
}

// DeriveList computes the shelf implied by the legacy fields.
// Finished wins over started; a book with neither is unread.
func (b *Book) DeriveList() ListStatus {
	switch {
	case b.Finished != nil:
		return ListFinished
	case b.Started != nil:
		return ListReading
	default:
		return ListUnread
	}
}

// ApplyMigration rewrites the book in place from the legacy shape to the
// current shape. Idempotent callers must check Migrated first; calling
// this twice would clobber LastStarted/LastFinished with nils.
func (b *Book) ApplyMigration() {
	b.List = b.DeriveList()
	b.LastStarted = b.Started
	b.LastFinished = b.Finished
	b.Migrated = true
	b.Started = nil
	b.Finished = nil
}
