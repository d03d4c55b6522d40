package models

import "time"

// Session maps an opaque token to a user. The token itself is the
// primary key, the way the original cookie-based flow expects it.
type Session struct {
	Token       string
	UserID      string
	Fingerprint string
	ExpiresAt   time.Time
	CreatedAt   time.Time
}

func (s *Session) Expired(now time.Time) bool {
	return s.ExpiresAt.Before(now)
}
