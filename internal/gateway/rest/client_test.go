package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leaflog/leaflog-sync/internal/domain"
	"github.com/leaflog/leaflog-sync/internal/errors"
	"github.com/leaflog/leaflog-sync/internal/gateway"
)

func TestListBooksWhere_RetriesTransientFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Every attempt carries the full query, including retries.
		assert.Equal(t, "reading", r.URL.Query().Get("list"))
		assert.Equal(t, "last_started", r.URL.Query().Get("order_by"))
		assert.Equal(t, "desc", r.URL.Query().Get("direction"))

		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		book := &domain.Book{Title: "Dune", List: domain.ListReading}
		book.ID = "b1"
		w.Header().Set("Content-Type", "application/json")
		assert.NoError(t, json.NewEncoder(w).Encode([]*domain.Book{book}))
	}))
	defer srv.Close()

	gw := New(Config{BaseURL: srv.URL}, nil)
	books, err := gw.ListBooksWhere(context.Background(), "user-1", gateway.Query{
		List:       domain.ListReading,
		OrderBy:    gateway.OrderByLastStarted,
		Descending: true,
	})
	require.NoError(t, err)
	require.Len(t, books, 1)
	assert.Equal(t, "b1", books[0].ID)
	assert.Equal(t, int32(2), calls.Load())
}

func TestListBooksWhere_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	gw := New(Config{BaseURL: srv.URL}, nil)
	_, err := gw.ListBooksWhere(context.Background(), "user-1", gateway.Query{List: domain.ListUnread})
	assert.ErrorIs(t, err, errors.ErrValidation)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRequireUser(t *testing.T) {
	gw := New(Config{BaseURL: "http://backend.invalid"}, nil)

	_, err := gw.ListBooks(context.Background(), "")
	assert.ErrorIs(t, err, errors.ErrUnauthenticated)
}
