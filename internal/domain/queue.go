package domain

import "time"

// ActionKind names one pending-mutation queue. Each kind gets its own
// durable, ordered queue on device.
type ActionKind string

// The six mutation kinds the offline queue can carry.
const (
	ActionCreateBook ActionKind = "create_book"
	ActionUpdateBook ActionKind = "update_book"
	ActionDeleteBook ActionKind = "delete_book"
	ActionCreateNote ActionKind = "create_note"
	ActionUpdateNote ActionKind = "update_note"
	ActionDeleteNote ActionKind = "delete_note"
)

// Valid reports whether the kind is one of the six known mutations.
func (k ActionKind) Valid() bool {
	switch k {
	case ActionCreateBook, ActionUpdateBook, ActionDeleteBook,
		ActionCreateNote, ActionUpdateNote, ActionDeleteNote:
		return true
	}
	return false
}

// QueueEntry is one pending offline write. Entries are durable and are
// removed from the queue only after their remote application succeeds.
type QueueEntry struct {
	ID         string     `json:"id"`
	Kind       ActionKind `json:"kind"`
	Seq        uint64     `json:"seq"`
	TargetID   string     `json:"target_id,omitempty"`
	BookID     string     `json:"book_id,omitempty"`
	Book       *Book      `json:"book,omitempty"`
	Note       *Note      `json:"note,omitempty"`
	Attempts   int        `json:"attempts"`
	EnqueuedAt time.Time  `json:"enqueued_at"`
}
