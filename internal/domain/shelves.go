package domain

// Shelves is one point-in-time view of a user's three reading-status
// shelves plus the combined loading flag the UI renders from.
type Shelves struct {
	Reading  []*Book `json:"reading"`
	Finished []*Book `json:"finished"`
	Unread   []*Book `json:"unread"`

	// Loading is true until either the local cache or the live feed has
	// produced data for the unread shelf.
	Loading bool `json:"loading"`
}

// UnreadIDs returns the IDs of the unread shelf in display order.
func (s *Shelves) UnreadIDs() []string {
	ids := make([]string, len(s.Unread))
	for i, b := range s.Unread {
		ids[i] = b.ID
	}
	return ids
}
