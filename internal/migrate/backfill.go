package migrate

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leaflog/leaflog-sync/internal/errors"
	"github.com/leaflog/leaflog-sync/internal/gateway"
)

// NoteOutcome records what happened to one note during a backfill run.
type NoteOutcome struct {
	NoteID string
	BookID string
	Err    error
}

// BackfillReport collects per-note outcomes of one backfill run.
type BackfillReport struct {
	Outcomes []NoteOutcome
	Examined int
}

// Backfilled counts notes that received a date during this run.
func (r *BackfillReport) Backfilled() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Err == nil {
			n++
		}
	}
	return n
}

// Err joins all per-note errors, or nil.
func (r *BackfillReport) Err() error {
	errs := make([]error, 0, len(r.Outcomes))
	for _, o := range r.Outcomes {
		if o.Err != nil {
			errs = append(errs, fmt.Errorf("note %s: %w", o.NoteID, o.Err))
		}
	}
	return errors.Join(errs...)
}

// Backfill ensures every note under every book of the user carries a
// date, filling it from the note's creation time when absent.
//
// No completion flag is used: idempotence is structural. A note that
// already has a date is left untouched, and a backfilled note ends up
// with date == createdAt, which the check skips on the next run.
type Backfill struct {
	gw     gateway.Gateway
	logger *slog.Logger
}

// NewBackfill creates a note-date backfill runner.
func NewBackfill(gw gateway.Gateway, logger *slog.Logger) *Backfill {
	return &Backfill{gw: gw, logger: logger}
}

// Run walks every note of every book and backfills missing dates.
// Per-note failures are collected; siblings are still attempted.
func (b *Backfill) Run(ctx context.Context, userID string) (*BackfillReport, error) {
	if userID == "" {
		return nil, errors.Unauthenticated("backfill requires a signed-in user")
	}

	books, err := b.gw.ListBooks(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list books for backfill: %w", err)
	}

	report := &BackfillReport{}
	for _, book := range books {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		notes, err := b.gw.ListNotes(ctx, userID, book.ID)
		if err != nil {
			report.Outcomes = append(report.Outcomes, NoteOutcome{BookID: book.ID, Err: err})
			continue
		}

		for _, note := range notes {
			report.Examined++
			if note.Date != nil || note.CreatedAt.IsZero() {
				continue
			}

			created := note.CreatedAt
			patch := gateway.NotePatch{Date: &created}
			if err := b.gw.UpdateNote(ctx, userID, book.ID, note.ID, patch); err != nil {
				b.logger.Error("note date backfill failed",
					slog.String("note_id", note.ID),
					slog.String("book_id", book.ID),
					slog.String("error", err.Error()))
				report.Outcomes = append(report.Outcomes, NoteOutcome{NoteID: note.ID, BookID: book.ID, Err: err})
				continue
			}
			report.Outcomes = append(report.Outcomes, NoteOutcome{NoteID: note.ID, BookID: book.ID})
		}
	}

	b.logger.Info("note date backfill complete",
		slog.String("user_id", userID),
		slog.Int("examined", report.Examined),
		slog.Int("backfilled", report.Backfilled()),
	)
	return report, nil
}
