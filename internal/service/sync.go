package service

import (
	"context"
	"log/slog"

	domainerrors "github.com/leaflog/leaflog-sync/internal/errors"
	"github.com/leaflog/leaflog-sync/internal/migrate"
	"github.com/leaflog/leaflog-sync/internal/queue"
)

// SyncService runs the idempotent background passes that keep a user's
// journal consistent: the one-time schema migration, the note-date
// backfill, and offline queue replay.
type SyncService struct {
	runner   *migrate.Runner
	backfill *migrate.Backfill
	queue    *queue.Queue
	logger   *slog.Logger
}

// NewSyncService creates a new sync service.
func NewSyncService(runner *migrate.Runner, backfill *migrate.Backfill, q *queue.Queue, logger *slog.Logger) *SyncService {
	return &SyncService{
		runner:   runner,
		backfill: backfill,
		queue:    q,
		logger:   logger,
	}
}

// OnAuthStateChanged runs the migration and backfill passes for the
// newly signed-in user. Both are idempotent, so calling this on every
// authentication change is safe. The passes run silently; failures are
// observable through logs and the returned error, and never block the
// rest of the app.
func (s *SyncService) OnAuthStateChanged(ctx context.Context, userID string) error {
	if userID == "" {
		// Signed out; nothing to sync.
		return nil
	}

	migrationReport, err := s.runner.Run(ctx, userID)
	if err != nil {
		s.logger.Error("migration run failed", slog.String("error", err.Error()))
		return err
	}
	if err := migrationReport.Err(); err != nil {
		s.logger.Warn("migration completed with per-book failures", slog.String("error", err.Error()))
	}

	backfillReport, err := s.backfill.Run(ctx, userID)
	if err != nil {
		s.logger.Error("backfill run failed", slog.String("error", err.Error()))
		return err
	}
	if err := backfillReport.Err(); err != nil {
		s.logger.Warn("backfill completed with per-note failures", slog.String("error", err.Error()))
	}

	return domainerrors.Join(migrationReport.Err(), backfillReport.Err())
}

// DrainQueues replays all pending offline mutations. Invoked by the
// platform layer when connectivity returns; failed entries stay queued
// for the next invocation.
func (s *SyncService) DrainQueues(ctx context.Context) (*queue.DrainReport, error) {
	report, err := s.queue.DrainAll(ctx)
	if err != nil {
		s.logger.Error("queue drain failed", slog.String("error", err.Error()))
		return report, err
	}
	if ferr := report.FailedErr(); ferr != nil {
		s.logger.Warn("queue drain completed with failures",
			slog.Int("applied", len(report.Applied)),
			slog.Int("failed", len(report.Failed)),
		)
	}
	return report, nil
}
