package domain

import "time"

// Syncable provides common fields for entities that participate in
// synchronization with the backend. Embedded in every synced document.
type Syncable struct {
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
	ID        string     `json:"id"`
}

// Touch updates the UpdatedAt timestamp to the current time.
// Call this whenever the underlying entity changes.
func (s *Syncable) Touch() {
	now := time.Now()
	s.UpdatedAt = &now
}

// InitTimestamps sets CreatedAt to now and leaves UpdatedAt unset.
// Call this when creating a new entity.
func (s *Syncable) InitTimestamps() {
	s.CreatedAt = time.Now()
	s.UpdatedAt = nil
}
