package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leaflog/leaflog-sync/internal/domain"
	domainerrors "github.com/leaflog/leaflog-sync/internal/errors"
)

func TestCreateNote_Online(t *testing.T) {
	f, cleanup := setupServices(t)
	defer cleanup()
	ctx := context.Background()

	book, err := f.books.CreateBook(ctx, testUser, CreateBookInput{Title: "Dune"})
	require.NoError(t, err)

	note, err := f.notes.CreateNote(ctx, testUser, book.ID, CreateNoteInput{
		Type:    domain.NoteText,
		Content: "the spice must flow",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, note.ID)

	notes, err := f.notes.ListNotes(ctx, testUser, book.ID)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "the spice must flow", notes[0].Content)
}

func TestCreateNote_Vocab(t *testing.T) {
	f, cleanup := setupServices(t)
	defer cleanup()
	ctx := context.Background()

	book, err := f.books.CreateBook(ctx, testUser, CreateBookInput{Title: "Dune"})
	require.NoError(t, err)

	page := 87
	note, err := f.notes.CreateNote(ctx, testUser, book.ID, CreateNoteInput{
		Type:       domain.NoteVocab,
		Word:       "gom jabbar",
		Definition: "poison needle test",
		Page:       &page,
	})
	require.NoError(t, err)
	assert.Equal(t, "gom jabbar", note.Word)
}

func TestCreateNote_InvalidRejectedBeforeRouting(t *testing.T) {
	f, cleanup := setupServices(t)
	defer cleanup()
	ctx := context.Background()

	// Invalid regardless of connectivity: a vocab note needs a word.
	_, err := f.notes.CreateNote(ctx, testUser, "b1", CreateNoteInput{Type: domain.NoteVocab})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	f.monitor.Set(false)
	_, err = f.notes.CreateNote(ctx, testUser, "b1", CreateNoteInput{Type: domain.NoteStarted})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	n, err := f.queue.Len(domain.ActionCreateNote)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestCreateNote_OfflineEnqueues(t *testing.T) {
	f, cleanup := setupServices(t)
	defer cleanup()
	ctx := context.Background()

	f.monitor.Set(false)

	date := time.Date(2023, 5, 17, 0, 0, 0, 0, time.UTC)
	_, err := f.notes.CreateNote(ctx, testUser, "b1", CreateNoteInput{
		Type: domain.NoteFinished,
		Date: &date,
	})
	require.NoError(t, err)

	entries, err := f.queue.Pending(domain.ActionCreateNote)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "b1", entries[0].BookID)
	assert.Equal(t, domain.NoteFinished, entries[0].Note.Type)
}

func TestUpdateNote_Online(t *testing.T) {
	f, cleanup := setupServices(t)
	defer cleanup()
	ctx := context.Background()

	book, err := f.books.CreateBook(ctx, testUser, CreateBookInput{Title: "Dune"})
	require.NoError(t, err)
	note, err := f.notes.CreateNote(ctx, testUser, book.ID, CreateNoteInput{Type: domain.NoteText, Content: "draft"})
	require.NoError(t, err)

	content := "final"
	require.NoError(t, f.notes.UpdateNote(ctx, testUser, book.ID, note.ID, UpdateNoteInput{Content: &content}))

	notes, err := f.notes.ListNotes(ctx, testUser, book.ID)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "final", notes[0].Content)
}

func TestDeleteNote_OfflineEnqueues(t *testing.T) {
	f, cleanup := setupServices(t)
	defer cleanup()
	ctx := context.Background()

	f.monitor.Set(false)
	require.NoError(t, f.notes.DeleteNote(ctx, testUser, "b1", "n1"))

	entries, err := f.queue.Pending(domain.ActionDeleteNote)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "n1", entries[0].TargetID)
	assert.Equal(t, "b1", entries[0].BookID)
}

func TestNoteService_RequiresUser(t *testing.T) {
	f, cleanup := setupServices(t)
	defer cleanup()
	ctx := context.Background()

	_, err := f.notes.CreateNote(ctx, "", "b1", CreateNoteInput{Type: domain.NoteText, Content: "x"})
	assert.ErrorIs(t, err, domainerrors.ErrUnauthenticated)

	_, err = f.notes.ListNotes(ctx, "", "b1")
	assert.ErrorIs(t, err, domainerrors.ErrUnauthenticated)
}
