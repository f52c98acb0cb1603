package domain

import "time"

// NoteType discriminates the kinds of notes a book can carry.
type NoteType string

// Note kinds. The status kinds (started/finished/shelved) represent
// dated life-cycle events rather than free-text content.
const (
	NoteText     NoteType = "note"
	NoteVocab    NoteType = "vocab"
	NoteStarted  NoteType = "started"
	NoteFinished NoteType = "finished"
	NoteShelved  NoteType = "shelved"
)

// Valid reports whether the type is a known note kind.
func (t NoteType) Valid() bool {
	switch t {
	case NoteText, NoteVocab, NoteStarted, NoteFinished, NoteShelved:
		return true
	}
	return false
}

// IsStatus reports whether the type is a dated status kind.
func (t NoteType) IsStatus() bool {
	switch t {
	case NoteStarted, NoteFinished, NoteShelved:
		return true
	}
	return false
}

// Note is a single journal entry owned by exactly one Book.
// The populated fields depend on Type:
//
//	note:     Content, Page
//	vocab:    Word, Definition, Page
//	started/finished/shelved: Date
type Note struct {
	Syncable
	BookID string   `json:"book_id"`
	Type   NoteType `json:"type"`

	Content    string     `json:"content,omitempty"`
	Word       string     `json:"word,omitempty"`
	Definition string     `json:"definition,omitempty"`
	Page       *int       `json:"page,omitempty"`
	Date       *time.Time `json:"date,omitempty"`
}

// Validate checks the per-kind invariants. Exhaustive over NoteType.
func (n *Note) Validate() error {
	switch n.Type {
	case NoteText:
		if n.Content == "" && n.Page == nil {
			return errEmptyContentNote
		}
	case NoteVocab:
		if n.Word == "" {
			return errEmptyVocabNote
		}
	case NoteStarted, NoteFinished:
		if n.Date == nil {
			return errStatusNoteWithoutDate
		}
	case NoteShelved:
		if n.Date == nil {
			return errStatusNoteWithoutDate
		}
	default:
		return errUnknownNoteType
	}
	return nil
}
