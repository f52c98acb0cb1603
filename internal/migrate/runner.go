// Package migrate contains the one-time data migrations that move a
// user's journal from the legacy schema (started/finished fields on the
// book) to the status-note model. Both passes are idempotent and safe
// to run on every authentication change.
package migrate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/leaflog/leaflog-sync/internal/domain"
	"github.com/leaflog/leaflog-sync/internal/errors"
	"github.com/leaflog/leaflog-sync/internal/gateway"
	"github.com/leaflog/leaflog-sync/internal/id"
)

// BookOutcome records what happened to one book during a migration run.
type BookOutcome struct {
	BookID  string
	Err     error
	Skipped bool
}

// Report collects per-book outcomes of one migration run. A failure on
// one book never prevents migration of its siblings, so callers must
// inspect Outcomes rather than relying on a single error.
type Report struct {
	Outcomes []BookOutcome
}

// Migrated counts books rewritten during this run.
func (r *Report) Migrated() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Err == nil && !o.Skipped {
			n++
		}
	}
	return n
}

// Skipped counts books that were already migrated.
func (r *Report) Skipped() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Skipped {
			n++
		}
	}
	return n
}

// Err joins all per-book errors, or nil when every book succeeded.
func (r *Report) Err() error {
	errs := make([]error, 0, len(r.Outcomes))
	for _, o := range r.Outcomes {
		if o.Err != nil {
			errs = append(errs, fmt.Errorf("book %s: %w", o.BookID, o.Err))
		}
	}
	return errors.Join(errs...)
}

// Runner migrates each of a user's books from the legacy shape to the
// status-note shape, exactly once per book.
type Runner struct {
	gw     gateway.Gateway
	logger *slog.Logger
}

// NewRunner creates a migration runner.
func NewRunner(gw gateway.Gateway, logger *slog.Logger) *Runner {
	return &Runner{gw: gw, logger: logger}
}

// Run migrates every unmigrated book under the user.
//
// Idempotence is per book via the migrated flag, never a global
// run-once marker: a run interrupted partway leaves some books
// migrated and some not, and the next run finishes the rest. An
// already-migrated book is skipped and the loop continues to the
// remaining books.
func (r *Runner) Run(ctx context.Context, userID string) (*Report, error) {
	if userID == "" {
		return nil, errors.Unauthenticated("migration requires a signed-in user")
	}

	books, err := r.gw.ListBooks(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list books for migration: %w", err)
	}

	report := &Report{}
	for _, book := range books {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		if book.Migrated {
			report.Outcomes = append(report.Outcomes, BookOutcome{BookID: book.ID, Skipped: true})
			continue
		}

		if err := r.migrateBook(ctx, userID, book); err != nil {
			r.logger.Error("book migration failed",
				slog.String("book_id", book.ID),
				slog.String("error", err.Error()))
			report.Outcomes = append(report.Outcomes, BookOutcome{BookID: book.ID, Err: err})
			continue
		}
		report.Outcomes = append(report.Outcomes, BookOutcome{BookID: book.ID})
	}

	r.logger.Info("migration run complete",
		slog.String("user_id", userID),
		slog.Int("migrated", report.Migrated()),
		slog.Int("skipped", report.Skipped()),
		slog.Int("failed", len(report.Outcomes)-report.Migrated()-report.Skipped()),
	)
	return report, nil
}

// migrateBook synthesizes status notes from the legacy fields, then
// rewrites the book: derived list, lastStarted/lastFinished carried
// over, migrated set, legacy fields removed from the stored document.
func (r *Runner) migrateBook(ctx context.Context, userID string, book *domain.Book) error {
	if book.Started != nil {
		if err := r.createStatusNote(ctx, userID, book.ID, domain.NoteStarted, *book.Started); err != nil {
			return fmt.Errorf("synthesize started note: %w", err)
		}
	}
	if book.Finished != nil {
		if err := r.createStatusNote(ctx, userID, book.ID, domain.NoteFinished, *book.Finished); err != nil {
			return fmt.Errorf("synthesize finished note: %w", err)
		}
	}

	migrated := true
	list := book.DeriveList()
	patch := gateway.BookPatch{
		List:            &list,
		Migrated:        &migrated,
		LastStarted:     book.Started,
		SetLastStarted:  true,
		LastFinished:    book.Finished,
		SetLastFinished: true,
		ClearLegacy:     true,
	}
	if err := r.gw.UpdateBook(ctx, userID, book.ID, patch); err != nil {
		return fmt.Errorf("rewrite book: %w", err)
	}
	return nil
}

func (r *Runner) createStatusNote(ctx context.Context, userID, bookID string, kind domain.NoteType, date time.Time) error {
	noteID, err := id.Generate("note")
	if err != nil {
		return err
	}

	note := &domain.Note{
		BookID: bookID,
		Type:   kind,
		Date:   &date,
	}
	note.ID = noteID
	note.CreatedAt = time.Now()

	return r.gw.CreateNote(ctx, userID, bookID, note)
}
