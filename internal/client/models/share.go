package models

import "time"

// Share is a locally remembered publication. URL carries the fragment, so
// the history file is as sensitive as the links themselves.
type Share struct {
	ID            string
	Server        string
	URL           string
	Title         string
	Expires       string
	BurnAfterRead bool
	HasAttachment bool
	CreatedAt     time.Time
	ExpiresAt     *time.Time
}

// Expired reports whether the share can no longer be on the server.
func (s *Share) Expired(now time.Time) bool {
	return s.ExpiresAt != nil && !now.Before(*s.ExpiresAt)
}
