package local

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leaflog/leaflog-sync/internal/domain"
	"github.com/leaflog/leaflog-sync/internal/errors"
	"github.com/leaflog/leaflog-sync/internal/gateway"
	"github.com/leaflog/leaflog-sync/internal/store"
)

const testUser = "user-1"

func setupTestGateway(t *testing.T) (*Gateway, func()) {
	t.Helper()
	s, err := store.Open(t.TempDir(), nil)
	require.NoError(t, err)
	g := New(s, nil)
	return g, func() {
		g.Close()
		_ = s.Close()
	}
}

func makeBook(id, title string, list domain.ListStatus) *domain.Book {
	b := &domain.Book{Title: title, List: list, Migrated: true}
	b.ID = id
	b.CreatedAt = time.Now()
	return b
}

func makeNote(id string, kind domain.NoteType, content string) *domain.Note {
	n := &domain.Note{Type: kind, Content: content}
	n.ID = id
	n.CreatedAt = time.Now()
	return n
}

func TestCreateGetBook(t *testing.T) {
	g, cleanup := setupTestGateway(t)
	defer cleanup()
	ctx := context.Background()

	book := makeBook("b1", "Dune", domain.ListUnread)
	require.NoError(t, g.CreateBook(ctx, testUser, book))

	got, err := g.GetBook(ctx, testUser, "b1")
	require.NoError(t, err)
	assert.Equal(t, "Dune", got.Title)
	assert.Equal(t, testUser, got.UserID)
}

func TestCreateBook_Duplicate(t *testing.T) {
	g, cleanup := setupTestGateway(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, g.CreateBook(ctx, testUser, makeBook("b1", "Dune", domain.ListUnread)))

	err := g.CreateBook(ctx, testUser, makeBook("b1", "Dune", domain.ListUnread))
	assert.ErrorIs(t, err, errors.ErrAlreadyExists)
}

func TestGetBook_NotFound(t *testing.T) {
	g, cleanup := setupTestGateway(t)
	defer cleanup()

	_, err := g.GetBook(context.Background(), testUser, "missing")
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestRequireUser(t *testing.T) {
	g, cleanup := setupTestGateway(t)
	defer cleanup()
	ctx := context.Background()

	err := g.CreateBook(ctx, "", makeBook("b1", "Dune", domain.ListUnread))
	assert.ErrorIs(t, err, errors.ErrUnauthenticated)

	_, err = g.ListBooks(ctx, "")
	assert.ErrorIs(t, err, errors.ErrUnauthenticated)

	_, err = g.Subscribe(ctx, "", gateway.Query{List: domain.ListUnread}, func([]*domain.Book) {})
	assert.ErrorIs(t, err, errors.ErrUnauthenticated)
}

func TestListBooks_UserScoped(t *testing.T) {
	g, cleanup := setupTestGateway(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, g.CreateBook(ctx, testUser, makeBook("b1", "Dune", domain.ListUnread)))
	require.NoError(t, g.CreateBook(ctx, "user-2", makeBook("b2", "Solaris", domain.ListUnread)))

	books, err := g.ListBooks(ctx, testUser)
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "b1", books[0].ID)
}

func TestUpdateBook_Patch(t *testing.T) {
	g, cleanup := setupTestGateway(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, g.CreateBook(ctx, testUser, makeBook("b1", "Dune", domain.ListUnread)))

	newTitle := "Dune Messiah"
	reading := domain.ListReading
	now := time.Now()
	err := g.UpdateBook(ctx, testUser, "b1", gateway.BookPatch{
		Title:          &newTitle,
		List:           &reading,
		LastStarted:    &now,
		SetLastStarted: true,
	})
	require.NoError(t, err)

	got, err := g.GetBook(ctx, testUser, "b1")
	require.NoError(t, err)
	assert.Equal(t, "Dune Messiah", got.Title)
	assert.Equal(t, domain.ListReading, got.List)
	require.NotNil(t, got.LastStarted)
	assert.NotNil(t, got.UpdatedAt)
}

func TestUpdateBook_ClearLegacy(t *testing.T) {
	g, cleanup := setupTestGateway(t)
	defer cleanup()
	ctx := context.Background()

	started := time.Now().Add(-time.Hour)
	book := makeBook("b1", "Dune", "")
	book.Migrated = false
	book.Started = &started
	require.NoError(t, g.CreateBook(ctx, testUser, book))

	migrated := true
	err := g.UpdateBook(ctx, testUser, "b1", gateway.BookPatch{
		Migrated:    &migrated,
		ClearLegacy: true,
	})
	require.NoError(t, err)

	got, err := g.GetBook(ctx, testUser, "b1")
	require.NoError(t, err)
	assert.True(t, got.Migrated)
	assert.Nil(t, got.Started)
	assert.Nil(t, got.Finished)
}

func TestDeleteBook_CascadesNotes(t *testing.T) {
	g, cleanup := setupTestGateway(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, g.CreateBook(ctx, testUser, makeBook("b1", "Dune", domain.ListReading)))
	require.NoError(t, g.CreateNote(ctx, testUser, "b1", makeNote("n1", domain.NoteText, "spice")))
	require.NoError(t, g.CreateNote(ctx, testUser, "b1", makeNote("n2", domain.NoteText, "worms")))

	require.NoError(t, g.DeleteBook(ctx, testUser, "b1"))

	_, err := g.GetBook(ctx, testUser, "b1")
	assert.ErrorIs(t, err, errors.ErrNotFound)

	notes, err := g.ListNotes(ctx, testUser, "b1")
	require.NoError(t, err)
	assert.Empty(t, notes)
}

func TestDeleteBook_NotFound(t *testing.T) {
	g, cleanup := setupTestGateway(t)
	defer cleanup()

	err := g.DeleteBook(context.Background(), testUser, "missing")
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestCreateNote_RequiresBook(t *testing.T) {
	g, cleanup := setupTestGateway(t)
	defer cleanup()

	err := g.CreateNote(context.Background(), testUser, "missing", makeNote("n1", domain.NoteText, "orphan"))
	assert.ErrorIs(t, err, errors.ErrNotFound)
}

func TestUpdateNote(t *testing.T) {
	g, cleanup := setupTestGateway(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, g.CreateBook(ctx, testUser, makeBook("b1", "Dune", domain.ListReading)))
	require.NoError(t, g.CreateNote(ctx, testUser, "b1", makeNote("n1", domain.NoteText, "first draft")))

	content := "second draft"
	date := time.Date(2023, 5, 17, 0, 0, 0, 0, time.UTC)
	err := g.UpdateNote(ctx, testUser, "b1", "n1", gateway.NotePatch{Content: &content, Date: &date})
	require.NoError(t, err)

	notes, err := g.ListNotes(ctx, testUser, "b1")
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "second draft", notes[0].Content)
	require.NotNil(t, notes[0].Date)
	assert.True(t, notes[0].Date.Equal(date))
}

func TestDeleteNote(t *testing.T) {
	g, cleanup := setupTestGateway(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, g.CreateBook(ctx, testUser, makeBook("b1", "Dune", domain.ListReading)))
	require.NoError(t, g.CreateNote(ctx, testUser, "b1", makeNote("n1", domain.NoteText, "spice")))

	require.NoError(t, g.DeleteNote(ctx, testUser, "b1", "n1"))
	assert.ErrorIs(t, g.DeleteNote(ctx, testUser, "b1", "n1"), errors.ErrNotFound)
}

func TestListBooksWhere_FilterAndOrder(t *testing.T) {
	g, cleanup := setupTestGateway(t)
	defer cleanup()
	ctx := context.Background()

	older := time.Now().Add(-2 * time.Hour)
	newer := time.Now().Add(-time.Hour)

	b1 := makeBook("b1", "Older", domain.ListReading)
	b1.LastStarted = &older
	b2 := makeBook("b2", "Newer", domain.ListReading)
	b2.LastStarted = &newer
	b3 := makeBook("b3", "No timestamp", domain.ListReading)
	b4 := makeBook("b4", "Elsewhere", domain.ListUnread)

	for _, b := range []*domain.Book{b1, b2, b3, b4} {
		require.NoError(t, g.CreateBook(ctx, testUser, b))
	}

	books, err := g.ListBooksWhere(ctx, testUser, gateway.Query{
		List:       domain.ListReading,
		OrderBy:    gateway.OrderByLastStarted,
		Descending: true,
	})
	require.NoError(t, err)
	require.Len(t, books, 3)
	assert.Equal(t, "b2", books[0].ID)
	assert.Equal(t, "b1", books[1].ID)
	// Books missing the ordering field sort last.
	assert.Equal(t, "b3", books[2].ID)
}

func TestSubscribe_InitialSnapshotAndUpdates(t *testing.T) {
	g, cleanup := setupTestGateway(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, g.CreateBook(ctx, testUser, makeBook("b1", "Dune", domain.ListUnread)))

	var snapshots [][]*domain.Book
	unsub, err := g.Subscribe(ctx, testUser, gateway.Query{List: domain.ListUnread}, func(books []*domain.Book) {
		snapshots = append(snapshots, books)
	})
	require.NoError(t, err)
	defer unsub()

	// Initial snapshot is delivered synchronously.
	require.Len(t, snapshots, 1)
	require.Len(t, snapshots[0], 1)
	assert.Equal(t, "b1", snapshots[0][0].ID)

	// A mutation triggers a fresh snapshot.
	require.NoError(t, g.CreateBook(ctx, testUser, makeBook("b2", "Solaris", domain.ListUnread)))
	require.Len(t, snapshots, 2)
	assert.Len(t, snapshots[1], 2)

	// After unsubscribe, no further snapshots arrive.
	unsub()
	require.NoError(t, g.CreateBook(ctx, testUser, makeBook("b3", "Ubik", domain.ListUnread)))
	assert.Len(t, snapshots, 2)
}
