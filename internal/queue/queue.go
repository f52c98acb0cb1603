// Package queue is the durable offline mutation queue. Mutations made
// while the device is unreachable are appended here and replayed
// against the data gateway, in enqueue order per action kind, when
// connectivity returns.
package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/leaflog/leaflog-sync/internal/domain"
	"github.com/leaflog/leaflog-sync/internal/errors"
	"github.com/leaflog/leaflog-sync/internal/id"
	"github.com/leaflog/leaflog-sync/internal/store"
)

const entryPrefix = "queue:"

// DefaultMaxAttempts bounds how many drains may fail for one entry
// before it is dropped. Without a cap an entry with no working handler
// would retry forever.
const DefaultMaxAttempts = 5

// Handler applies one queued entry remotely.
type Handler func(ctx context.Context, entry *domain.QueueEntry) error

// EntryOutcome records what happened to one entry during a drain.
type EntryOutcome struct {
	Entry   *domain.QueueEntry
	Err     error
	Dropped bool
}

// DrainReport collects per-entry outcomes of one drain pass.
type DrainReport struct {
	Applied []*domain.QueueEntry
	Failed  []EntryOutcome
}

// FailedErr joins the errors of all failed entries, or nil.
func (r *DrainReport) FailedErr() error {
	errs := make([]error, 0, len(r.Failed))
	for _, f := range r.Failed {
		errs = append(errs, f.Err)
	}
	return errors.Join(errs...)
}

// Queue is a durable, kind-scoped mutation queue. A mutex serializes
// enqueue against drain so concurrent calls never lose entries.
type Queue struct {
	store       *store.Store
	logger      *slog.Logger
	maxAttempts int

	mu       sync.Mutex
	handlers map[domain.ActionKind]Handler
}

// New creates a queue over the device store. maxAttempts <= 0 selects
// DefaultMaxAttempts.
func New(s *store.Store, logger *slog.Logger, maxAttempts int) *Queue {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Queue{
		store:       s,
		logger:      logger,
		maxAttempts: maxAttempts,
		handlers:    make(map[domain.ActionKind]Handler),
	}
}

// RegisterHandler installs the remote-application handler for a kind.
func (q *Queue) RegisterHandler(kind domain.ActionKind, h Handler) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.handlers[kind] = h
}

func entryKey(kind domain.ActionKind, seq uint64) string {
	// Zero-padded so lexicographic key order equals enqueue order.
	return fmt.Sprintf("%s%s:%020d", entryPrefix, kind, seq)
}

// Enqueue durably appends an entry to the kind-scoped queue.
// The entry's ID, Seq, and EnqueuedAt are assigned here.
func (q *Queue) Enqueue(ctx context.Context, kind domain.ActionKind, entry *domain.QueueEntry) error {
	if !kind.Valid() {
		return errors.Validationf("cannot enqueue unknown action kind %q", kind)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	seq, err := q.store.NextSequence("queue:" + string(kind))
	if err != nil {
		return fmt.Errorf("assign queue sequence: %w", err)
	}

	entryID, err := id.Generate("q")
	if err != nil {
		return fmt.Errorf("generate entry ID: %w", err)
	}

	entry.ID = entryID
	entry.Kind = kind
	entry.Seq = seq
	entry.Attempts = 0
	entry.EnqueuedAt = time.Now()

	if err := q.store.Set(entryKey(kind, seq), entry); err != nil {
		return fmt.Errorf("persist queue entry: %w", err)
	}

	if q.logger != nil {
		q.logger.Info("mutation enqueued",
			slog.String("kind", string(kind)),
			slog.String("entry_id", entryID),
			slog.Uint64("seq", seq),
		)
	}
	return nil
}

// Pending returns the queued entries for a kind in enqueue order.
func (q *Queue) Pending(kind domain.ActionKind) ([]*domain.QueueEntry, error) {
	var entries []*domain.QueueEntry
	err := q.store.IteratePrefix(entryPrefix+string(kind)+":", func(_ string, val []byte) error {
		var entry domain.QueueEntry
		if err := decodeEntry(val, &entry); err != nil {
			return err
		}
		entries = append(entries, &entry)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("read pending entries: %w", err)
	}
	return entries, nil
}

// Len returns the number of queued entries for a kind.
func (q *Queue) Len(kind domain.ActionKind) (int, error) {
	entries, err := q.Pending(kind)
	if err != nil {
		return 0, err
	}
	return len(entries), nil
}

// Drain attempts remote application of every queued entry for the kind,
// in enqueue order. A successfully applied entry is removed from the
// durable queue; a failed entry stays in place for a future drain, with
// its attempt counter bumped, and is reported in the drain report. One
// entry's failure never stops the rest of the batch.
//
// Entries whose attempt counter exceeds the cap are dropped with an
// error log so a kind without a working handler cannot wedge forever.
func (q *Queue) Drain(ctx context.Context, kind domain.ActionKind) (*DrainReport, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	entries, err := q.Pending(kind)
	if err != nil {
		return nil, err
	}

	handler := q.handlers[kind]
	report := &DrainReport{}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		var applyErr error
		if handler == nil {
			applyErr = errors.UnrecognizedAction(string(kind))
		} else {
			applyErr = handler(ctx, entry)
		}

		if applyErr == nil {
			if err := q.store.Delete(entryKey(kind, entry.Seq)); err != nil {
				return report, fmt.Errorf("remove applied entry %s: %w", entry.ID, err)
			}
			report.Applied = append(report.Applied, entry)
			continue
		}

		entry.Attempts++
		dropped := entry.Attempts >= q.maxAttempts
		if dropped {
			if err := q.store.Delete(entryKey(kind, entry.Seq)); err != nil {
				return report, fmt.Errorf("drop exhausted entry %s: %w", entry.ID, err)
			}
			if q.logger != nil {
				q.logger.Error("queue entry dropped after repeated failures",
					slog.String("kind", string(kind)),
					slog.String("entry_id", entry.ID),
					slog.Int("attempts", entry.Attempts),
					slog.String("error", applyErr.Error()),
				)
			}
		} else {
			if err := q.store.Set(entryKey(kind, entry.Seq), entry); err != nil {
				return report, fmt.Errorf("persist failed entry %s: %w", entry.ID, err)
			}
			if q.logger != nil {
				q.logger.Warn("queue entry failed, will retry on next drain",
					slog.String("kind", string(kind)),
					slog.String("entry_id", entry.ID),
					slog.Int("attempts", entry.Attempts),
					slog.String("error", applyErr.Error()),
				)
			}
		}
		report.Failed = append(report.Failed, EntryOutcome{Entry: entry, Err: applyErr, Dropped: dropped})
	}

	if q.logger != nil && (len(report.Applied) > 0 || len(report.Failed) > 0) {
		q.logger.Info("queue drained",
			slog.String("kind", string(kind)),
			slog.Int("applied", len(report.Applied)),
			slog.Int("failed", len(report.Failed)),
		)
	}
	return report, nil
}

// DrainAll drains every action kind and merges the reports.
func (q *Queue) DrainAll(ctx context.Context) (*DrainReport, error) {
	kinds := []domain.ActionKind{
		domain.ActionCreateBook, domain.ActionUpdateBook, domain.ActionDeleteBook,
		domain.ActionCreateNote, domain.ActionUpdateNote, domain.ActionDeleteNote,
	}

	merged := &DrainReport{}
	for _, kind := range kinds {
		report, err := q.Drain(ctx, kind)
		if report != nil {
			merged.Applied = append(merged.Applied, report.Applied...)
			merged.Failed = append(merged.Failed, report.Failed...)
		}
		if err != nil {
			return merged, err
		}
	}
	return merged, nil
}
