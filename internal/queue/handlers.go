package queue

import (
	"context"

	"github.com/leaflog/leaflog-sync/internal/domain"
	"github.com/leaflog/leaflog-sync/internal/errors"
	"github.com/leaflog/leaflog-sync/internal/gateway"
)

// UserFunc resolves the currently signed-in user at drain time. Entries
// can sit in the queue across sign-in sessions, so the user is not
// baked into the handler.
type UserFunc func() string

// RegisterGatewayHandlers installs remote-application handlers for all
// six action kinds against the data gateway. Replays are idempotent
// where the remote state allows it: re-creating an existing document or
// deleting a missing one counts as applied.
func RegisterGatewayHandlers(q *Queue, gw gateway.Gateway, user UserFunc) {
	q.RegisterHandler(domain.ActionCreateBook, func(ctx context.Context, e *domain.QueueEntry) error {
		if e.Book == nil {
			return errors.Validation("create_book entry without a book payload")
		}
		err := gw.CreateBook(ctx, user(), e.Book)
		if errors.Is(err, errors.ErrAlreadyExists) {
			return nil
		}
		return err
	})

	q.RegisterHandler(domain.ActionUpdateBook, func(ctx context.Context, e *domain.QueueEntry) error {
		if e.Book == nil {
			return errors.Validation("update_book entry without a book payload")
		}
		return gw.UpdateBook(ctx, user(), e.TargetID, bookPatchFrom(e.Book))
	})

	q.RegisterHandler(domain.ActionDeleteBook, func(ctx context.Context, e *domain.QueueEntry) error {
		err := gw.DeleteBook(ctx, user(), e.TargetID)
		if errors.Is(err, errors.ErrNotFound) {
			return nil
		}
		return err
	})

	q.RegisterHandler(domain.ActionCreateNote, func(ctx context.Context, e *domain.QueueEntry) error {
		if e.Note == nil {
			return errors.Validation("create_note entry without a note payload")
		}
		return gw.CreateNote(ctx, user(), e.BookID, e.Note)
	})

	q.RegisterHandler(domain.ActionUpdateNote, func(ctx context.Context, e *domain.QueueEntry) error {
		if e.Note == nil {
			return errors.Validation("update_note entry without a note payload")
		}
		return gw.UpdateNote(ctx, user(), e.BookID, e.TargetID, notePatchFrom(e.Note))
	})

	q.RegisterHandler(domain.ActionDeleteNote, func(ctx context.Context, e *domain.QueueEntry) error {
		err := gw.DeleteNote(ctx, user(), e.BookID, e.TargetID)
		if errors.Is(err, errors.ErrNotFound) {
			return nil
		}
		return err
	})
}

// bookPatchFrom builds a merge patch from the fields a queued book
// payload carries. Zero values mean "not edited offline".
func bookPatchFrom(b *domain.Book) gateway.BookPatch {
	patch := gateway.BookPatch{}
	if b.Title != "" {
		patch.Title = &b.Title
	}
	if b.Author != "" {
		patch.Author = &b.Author
	}
	if b.List != "" {
		patch.List = &b.List
	}
	if b.LastStarted != nil {
		patch.LastStarted = b.LastStarted
		patch.SetLastStarted = true
	}
	if b.LastFinished != nil {
		patch.LastFinished = b.LastFinished
		patch.SetLastFinished = true
	}
	return patch
}

func notePatchFrom(n *domain.Note) gateway.NotePatch {
	patch := gateway.NotePatch{}
	if n.Content != "" {
		patch.Content = &n.Content
	}
	if n.Word != "" {
		patch.Word = &n.Word
	}
	if n.Definition != "" {
		patch.Definition = &n.Definition
	}
	if n.Page != nil {
		patch.Page = n.Page
	}
	if n.Date != nil {
		patch.Date = n.Date
	}
	return patch
}
