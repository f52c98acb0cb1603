package dates

import (
	"log/slog"

	"github.com/leaflog/leaflog-sync/internal/domain"
)

// NormalizeBookDates canonicalizes every date-bearing field on a book
// before it is cached or exposed. Well-formed values pass through
// untouched; a missing creation time falls back to now per the
// normalization policy, and nil optionals stay nil.
func NormalizeBookDates(b *domain.Book, log *slog.Logger) {
	if b.CreatedAt.IsZero() {
		b.CreatedAt = Normalize(nil, log)
	}
	b.LastStarted = NormalizeOptional(b.LastStarted, log)
	b.LastFinished = NormalizeOptional(b.LastFinished, log)
	b.Started = NormalizeOptional(b.Started, log)
	b.Finished = NormalizeOptional(b.Finished, log)
}
