package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/leaflog/leaflog-sync/internal/connectivity"
	"github.com/leaflog/leaflog-sync/internal/domain"
	domainerrors "github.com/leaflog/leaflog-sync/internal/errors"
	"github.com/leaflog/leaflog-sync/internal/gateway"
	"github.com/leaflog/leaflog-sync/internal/id"
	"github.com/leaflog/leaflog-sync/internal/queue"
)

// NoteService handles note mutations with the same online-direct,
// offline-enqueue routing as books.
type NoteService struct {
	gw      gateway.Gateway
	queue   *queue.Queue
	monitor *connectivity.Monitor
	logger  *slog.Logger
}

// NewNoteService creates a new note service.
func NewNoteService(gw gateway.Gateway, q *queue.Queue, monitor *connectivity.Monitor, logger *slog.Logger) *NoteService {
	return &NoteService{
		gw:      gw,
		queue:   q,
		monitor: monitor,
		logger:  logger,
	}
}

// CreateNoteInput is the payload for adding a note to a book.
// The fields a kind requires are enforced by domain validation.
type CreateNoteInput struct {
	Type       domain.NoteType
	Content    string
	Word       string
	Definition string
	Page       *int
	Date       *time.Time
}

// CreateNote adds a note to a book.
func (s *NoteService) CreateNote(ctx context.Context, userID, bookID string, in CreateNoteInput) (*domain.Note, error) {
	if userID == "" {
		return nil, domainerrors.Unauthenticated("no signed-in user")
	}

	noteID, err := id.Generate("note")
	if err != nil {
		return nil, fmt.Errorf("generate note ID: %w", err)
	}

	note := &domain.Note{
		BookID:     bookID,
		Type:       in.Type,
		Content:    in.Content,
		Word:       in.Word,
		Definition: in.Definition,
		Page:       in.Page,
		Date:       in.Date,
	}
	note.ID = noteID
	note.InitTimestamps()

	if err := note.Validate(); err != nil {
		return nil, domainerrors.Validation(err.Error())
	}

	if s.monitor.IsOnline() {
		if err := s.gw.CreateNote(ctx, userID, bookID, note); err != nil {
			return nil, fmt.Errorf("create note: %w", err)
		}
	} else {
		entry := &domain.QueueEntry{BookID: bookID, Note: note}
		if err := s.queue.Enqueue(ctx, domain.ActionCreateNote, entry); err != nil {
			return nil, fmt.Errorf("enqueue note create: %w", err)
		}
	}

	s.logger.Info("note created",
		slog.String("note_id", noteID),
		slog.String("book_id", bookID),
		slog.String("type", string(in.Type)),
		slog.Bool("online", s.monitor.IsOnline()),
	)
	return note, nil
}

// UpdateNoteInput is a partial note edit. Nil fields are unchanged.
type UpdateNoteInput struct {
	Content    *string
	Word       *string
	Definition *string
	Page       *int
	Date       *time.Time
}

// UpdateNote applies a partial edit to a note.
func (s *NoteService) UpdateNote(ctx context.Context, userID, bookID, noteID string, in UpdateNoteInput) error {
	if userID == "" {
		return domainerrors.Unauthenticated("no signed-in user")
	}

	if s.monitor.IsOnline() {
		patch := gateway.NotePatch{
			Content:    in.Content,
			Word:       in.Word,
			Definition: in.Definition,
			Page:       in.Page,
			Date:       in.Date,
		}
		if err := s.gw.UpdateNote(ctx, userID, bookID, noteID, patch); err != nil {
			return fmt.Errorf("update note: %w", err)
		}
		return nil
	}

	payload := &domain.Note{Page: in.Page, Date: in.Date}
	if in.Content != nil {
		payload.Content = *in.Content
	}
	if in.Word != nil {
		payload.Word = *in.Word
	}
	if in.Definition != nil {
		payload.Definition = *in.Definition
	}
	entry := &domain.QueueEntry{TargetID: noteID, BookID: bookID, Note: payload}
	if err := s.queue.Enqueue(ctx, domain.ActionUpdateNote, entry); err != nil {
		return fmt.Errorf("enqueue note update: %w", err)
	}
	return nil
}

// DeleteNote removes a note.
func (s *NoteService) DeleteNote(ctx context.Context, userID, bookID, noteID string) error {
	if userID == "" {
		return domainerrors.Unauthenticated("no signed-in user")
	}

	if s.monitor.IsOnline() {
		if err := s.gw.DeleteNote(ctx, userID, bookID, noteID); err != nil {
			return fmt.Errorf("delete note: %w", err)
		}
		return nil
	}

	entry := &domain.QueueEntry{TargetID: noteID, BookID: bookID}
	if err := s.queue.Enqueue(ctx, domain.ActionDeleteNote, entry); err != nil {
		return fmt.Errorf("enqueue note delete: %w", err)
	}
	return nil
}

// ListNotes returns every note under a book.
func (s *NoteService) ListNotes(ctx context.Context, userID, bookID string) ([]*domain.Note, error) {
	if userID == "" {
		return nil, domainerrors.Unauthenticated("no signed-in user")
	}
	return s.gw.ListNotes(ctx, userID, bookID)
}
