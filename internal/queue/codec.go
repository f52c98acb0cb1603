package queue

import (
	"encoding/json"

	"github.com/leaflog/leaflog-sync/internal/domain"
)

// decodeEntry decodes a stored queue entry.
func decodeEntry(data []byte, entry *domain.QueueEntry) error {
	return json.Unmarshal(data, entry)
}
