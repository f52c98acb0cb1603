// Package rest implements the data gateway against the hosted document
// store's HTTP API. Live queries are emulated client-side by polling,
// since the hosted API exposes no streaming endpoint.
package rest

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/avast/retry-go"
	"github.com/go-resty/resty/v2"

	"github.com/leaflog/leaflog-sync/internal/domain"
	"github.com/leaflog/leaflog-sync/internal/errors"
	"github.com/leaflog/leaflog-sync/internal/gateway"
)

const (
	defaultPollInterval = 5 * time.Second
	defaultRetries      = 3
)

// Config holds REST gateway configuration.
type Config struct {
	BaseURL string
	// AuthToken is attached as a bearer token to every request.
	AuthToken string
	// PollInterval controls how often live queries refresh (default 5s).
	PollInterval time.Duration
}

// Gateway talks to the hosted document store over HTTP.
type Gateway struct {
	client       *resty.Client
	logger       *slog.Logger
	pollInterval time.Duration
}

var _ gateway.Gateway = (*Gateway)(nil)

// New creates a REST gateway.
func New(cfg Config, logger *slog.Logger) *Gateway {
	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetAuthToken(cfg.AuthToken).
		SetHeader("Accept", "application/json")

	interval := cfg.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}

	return &Gateway{
		client:       client,
		logger:       logger,
		pollInterval: interval,
	}
}

func requireUser(userID string) error {
	if userID == "" {
		return errors.Unauthenticated("gateway call without a signed-in user")
	}
	return nil
}

// do runs one request with bounded exponential backoff. Client errors
// (4xx) are not retried; only transport failures and 5xx responses are.
func (g *Gateway) do(ctx context.Context, fn func() (*resty.Response, error)) error {
	return retry.Do(
		func() error {
			res, err := fn()
			if err != nil {
				return errors.Unavailable("document store unreachable").WithCause(err)
			}
			return statusError(res)
		},
		retry.Context(ctx),
		retry.Attempts(defaultRetries),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
}

// statusError maps an HTTP response to a domain error.
func statusError(res *resty.Response) error {
	code := res.StatusCode()
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusNotFound:
		return retry.Unrecoverable(errors.NotFound("document not found"))
	case code == http.StatusConflict:
		return retry.Unrecoverable(errors.Conflict("document already exists"))
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return retry.Unrecoverable(errors.Unauthenticated("backend rejected credentials"))
	case code >= 400 && code < 500:
		return retry.Unrecoverable(errors.Validationf("backend rejected request: %d %s", code, res.String()))
	default:
		return errors.Unavailable(fmt.Sprintf("backend error: %d", code))
	}
}

// CreateBook stores a new book document.
func (g *Gateway) CreateBook(ctx context.Context, userID string, book *domain.Book) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	return g.do(ctx, func() (*resty.Response, error) {
		return g.client.R().
			SetContext(ctx).
			SetBody(book).
			Post(fmt.Sprintf("/v1/users/%s/books", userID))
	})
}

// ListBooks returns every book under the user.
func (g *Gateway) ListBooks(ctx context.Context, userID string) ([]*domain.Book, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	var books []*domain.Book
	err := g.do(ctx, func() (*resty.Response, error) {
		return g.client.R().
			SetContext(ctx).
			SetResult(&books).
			Get(fmt.Sprintf("/v1/users/%s/books", userID))
	})
	if err != nil {
		return nil, err
	}
	return books, nil
}

// ListBooksWhere returns the books matching the query.
func (g *Gateway) ListBooksWhere(ctx context.Context, userID string, q gateway.Query) ([]*domain.Book, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	var books []*domain.Book
	err := g.do(ctx, func() (*resty.Response, error) {
		req := g.client.R().
			SetContext(ctx).
			SetQueryParam("list", string(q.List)).
			SetResult(&books)
		if q.OrderBy != "" {
			req.SetQueryParam("order_by", string(q.OrderBy))
			if q.Descending {
				req.SetQueryParam("direction", "desc")
			}
		}
		return req.Get(fmt.Sprintf("/v1/users/%s/books", userID))
	})
	if err != nil {
		return nil, err
	}
	return books, nil
}

// UpdateBook applies a partial update with merge semantics.
func (g *Gateway) UpdateBook(ctx context.Context, userID, bookID string, patch gateway.BookPatch) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	return g.do(ctx, func() (*resty.Response, error) {
		return g.client.R().
			SetContext(ctx).
			SetBody(patchBody(patch)).
			Patch(fmt.Sprintf("/v1/users/%s/books/%s", userID, bookID))
	})
}

// DeleteBook removes a book; the backend cascades to its notes.
func (g *Gateway) DeleteBook(ctx context.Context, userID, bookID string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	return g.do(ctx, func() (*resty.Response, error) {
		return g.client.R().
			SetContext(ctx).
			Delete(fmt.Sprintf("/v1/users/%s/books/%s", userID, bookID))
	})
}

// CreateNote stores a new note under a book.
func (g *Gateway) CreateNote(ctx context.Context, userID, bookID string, note *domain.Note) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	return g.do(ctx, func() (*resty.Response, error) {
		return g.client.R().
			SetContext(ctx).
			SetBody(note).
			Post(fmt.Sprintf("/v1/users/%s/books/%s/notes", userID, bookID))
	})
}

// ListNotes returns every note under a book.
func (g *Gateway) ListNotes(ctx context.Context, userID, bookID string) ([]*domain.Note, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	var notes []*domain.Note
	err := g.do(ctx, func() (*resty.Response, error) {
		return g.client.R().
			SetContext(ctx).
			SetResult(&notes).
			Get(fmt.Sprintf("/v1/users/%s/books/%s/notes", userID, bookID))
	})
	if err != nil {
		return nil, err
	}
	return notes, nil
}

// UpdateNote applies a partial update to a note.
func (g *Gateway) UpdateNote(ctx context.Context, userID, bookID, noteID string, patch gateway.NotePatch) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	return g.do(ctx, func() (*resty.Response, error) {
		return g.client.R().
			SetContext(ctx).
			SetBody(notePatchBody(patch)).
			Patch(fmt.Sprintf("/v1/users/%s/books/%s/notes/%s", userID, bookID, noteID))
	})
}

// DeleteNote removes a single note.
func (g *Gateway) DeleteNote(ctx context.Context, userID, bookID, noteID string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	return g.do(ctx, func() (*resty.Response, error) {
		return g.client.R().
			SetContext(ctx).
			Delete(fmt.Sprintf("/v1/users/%s/books/%s/notes/%s", userID, bookID, noteID))
	})
}

// Subscribe emulates a live query by polling the list endpoint. The
// first snapshot is fetched synchronously so callers see data before
// Subscribe returns; after that the poll loop delivers refreshes until
// the unsubscribe handle is invoked.
func (g *Gateway) Subscribe(ctx context.Context, userID string, q gateway.Query, onSnapshot func(books []*domain.Book)) (gateway.Unsubscribe, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	deliver := func() {
		books, err := g.ListBooksWhere(ctx, userID, q)
		if err != nil {
			if g.logger != nil {
				g.logger.Warn("live query poll failed",
					slog.String("list", string(q.List)),
					slog.String("error", err.Error()))
			}
			return
		}
		onSnapshot(books)
	}

	deliver()

	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(g.pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				deliver()
			case <-stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	return func() { close(stop) }, nil
}

// patchBody renders a BookPatch as the merge-patch document the API
// expects. Explicit nulls remove fields.
func patchBody(patch gateway.BookPatch) map[string]any {
	body := map[string]any{}
	if patch.Title != nil {
		body["title"] = *patch.Title
	}
	if patch.Author != nil {
		body["author"] = *patch.Author
	}
	if patch.List != nil {
		body["list"] = *patch.List
	}
	if patch.Migrated != nil {
		body["migrated"] = *patch.Migrated
	}
	if patch.SetLastStarted {
		body["last_started"] = patch.LastStarted
	}
	if patch.SetLastFinished {
		body["last_finished"] = patch.LastFinished
	}
	if patch.ClearLegacy {
		body["started"] = nil
		body["finished"] = nil
	}
	return body
}

func notePatchBody(patch gateway.NotePatch) map[string]any {
	body := map[string]any{}
	if patch.Content != nil {
		body["content"] = *patch.Content
	}
	if patch.Word != nil {
		body["word"] = *patch.Word
	}
	if patch.Definition != nil {
		body["definition"] = *patch.Definition
	}
	if patch.Page != nil {
		body["page"] = *patch.Page
	}
	if patch.Date != nil {
		body["date"] = patch.Date
	}
	return body
}
