package queue

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leaflog/leaflog-sync/internal/domain"
	"github.com/leaflog/leaflog-sync/internal/gateway/local"
	"github.com/leaflog/leaflog-sync/internal/store"
)

const testUser = "user-1"

func setupGatewayQueue(t *testing.T) (*Queue, *local.Gateway, func()) {
	t.Helper()
	s, err := store.Open(t.TempDir(), nil)
	require.NoError(t, err)
	gw := local.New(s, nil)
	q := New(s, nil, 0)
	RegisterGatewayHandlers(q, gw, func() string { return testUser })
	return q, gw, func() {
		gw.Close()
		_ = s.Close()
	}
}

func queuedBook(id, title string) *domain.Book {
	b := &domain.Book{Title: title, List: domain.ListUnread, Migrated: true}
	b.ID = id
	b.CreatedAt = time.Now()
	return b
}

func TestGatewayHandlers_ReplayCreateBook(t *testing.T) {
	q, gw, cleanup := setupGatewayQueue(t)
	defer cleanup()
	ctx := context.Background()

	book := queuedBook("b1", "Dune")
	require.NoError(t, q.Enqueue(ctx, domain.ActionCreateBook, &domain.QueueEntry{TargetID: "b1", Book: book}))

	report, err := q.DrainAll(ctx)
	require.NoError(t, err)
	assert.Len(t, report.Applied, 1)
	assert.Empty(t, report.Failed)

	got, err := gw.GetBook(ctx, testUser, "b1")
	require.NoError(t, err)
	assert.Equal(t, "Dune", got.Title)
}

func TestGatewayHandlers_CreateBookAlreadyExistsIsApplied(t *testing.T) {
	q, gw, cleanup := setupGatewayQueue(t)
	defer cleanup()
	ctx := context.Background()

	book := queuedBook("b1", "Dune")
	require.NoError(t, gw.CreateBook(ctx, testUser, book))

	// The same create replayed from the queue counts as applied.
	require.NoError(t, q.Enqueue(ctx, domain.ActionCreateBook, &domain.QueueEntry{TargetID: "b1", Book: book}))

	report, err := q.Drain(ctx, domain.ActionCreateBook)
	require.NoError(t, err)
	assert.Len(t, report.Applied, 1)
	assert.Empty(t, report.Failed)
}

func TestGatewayHandlers_ReplayUpdateBook(t *testing.T) {
	q, gw, cleanup := setupGatewayQueue(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, gw.CreateBook(ctx, testUser, queuedBook("b1", "Dune")))

	payload := &domain.Book{Title: "Dune Messiah", List: domain.ListReading}
	require.NoError(t, q.Enqueue(ctx, domain.ActionUpdateBook, &domain.QueueEntry{TargetID: "b1", Book: payload}))

	report, err := q.Drain(ctx, domain.ActionUpdateBook)
	require.NoError(t, err)
	assert.Len(t, report.Applied, 1)

	got, err := gw.GetBook(ctx, testUser, "b1")
	require.NoError(t, err)
	assert.Equal(t, "Dune Messiah", got.Title)
	assert.Equal(t, domain.ListReading, got.List)
}

func TestGatewayHandlers_UpdateBookCarriesShelfTimestamps(t *testing.T) {
	q, gw, cleanup := setupGatewayQueue(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, gw.CreateBook(ctx, testUser, queuedBook("b1", "Dune")))

	started := time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC)
	payload := &domain.Book{List: domain.ListReading, LastStarted: &started}
	require.NoError(t, q.Enqueue(ctx, domain.ActionUpdateBook, &domain.QueueEntry{TargetID: "b1", Book: payload}))

	report, err := q.Drain(ctx, domain.ActionUpdateBook)
	require.NoError(t, err)
	assert.Empty(t, report.Failed)

	got, err := gw.GetBook(ctx, testUser, "b1")
	require.NoError(t, err)
	assert.Equal(t, domain.ListReading, got.List)
	require.NotNil(t, got.LastStarted)
	assert.True(t, got.LastStarted.Equal(started))
	// Untouched fields survive the patch.
	assert.Equal(t, "Dune", got.Title)
	assert.Nil(t, got.LastFinished)
}

func TestGatewayHandlers_DeleteMissingBookIsApplied(t *testing.T) {
	q, _, cleanup := setupGatewayQueue(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, domain.ActionDeleteBook, &domain.QueueEntry{TargetID: "never-existed"}))

	report, err := q.Drain(ctx, domain.ActionDeleteBook)
	require.NoError(t, err)
	assert.Len(t, report.Applied, 1)
	assert.Empty(t, report.Failed)
}

func TestGatewayHandlers_ReplayNoteLifecycle(t *testing.T) {
	q, gw, cleanup := setupGatewayQueue(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, gw.CreateBook(ctx, testUser, queuedBook("b1", "Dune")))

	note := &domain.Note{Type: domain.NoteText, Content: "the spice must flow"}
	note.ID = "n1"
	note.CreatedAt = time.Now()
	require.NoError(t, q.Enqueue(ctx, domain.ActionCreateNote, &domain.QueueEntry{BookID: "b1", Note: note}))

	edited := &domain.Note{Content: "fear is the mind-killer"}
	require.NoError(t, q.Enqueue(ctx, domain.ActionUpdateNote, &domain.QueueEntry{TargetID: "n1", BookID: "b1", Note: edited}))

	report, err := q.DrainAll(ctx)
	require.NoError(t, err)
	assert.Len(t, report.Applied, 2)

	notes, err := gw.ListNotes(ctx, testUser, "b1")
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "fear is the mind-killer", notes[0].Content)
}

func TestGatewayHandlers_CreateWithoutPayloadFails(t *testing.T) {
	q, _, cleanup := setupGatewayQueue(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, q.Enqueue(ctx, domain.ActionCreateBook, &domain.QueueEntry{TargetID: "b1"}))

	report, err := q.Drain(ctx, domain.ActionCreateBook)
	require.NoError(t, err)
	assert.Empty(t, report.Applied)
	require.Len(t, report.Failed, 1)
}
