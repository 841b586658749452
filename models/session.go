package models

import "time"

// Session is a server-side session entry keyed by an opaque identifier.
// UserID is nil while the session is anonymous.
type Session struct {
	ID        string            `db:"id" json:"id"`
	UserID    *int64            `db:"user_id" json:"user_id,omitempty"`
	Data      map[string]string `json:"data,omitempty"`
	CreatedAt time.Time         `db:"created_at" json:"created_at"`
	ExpiresAt time.Time         `db:"expires_at" json:"expires_at"`
}

// IsBound reports whether a user is bound to the session.
func (s *Session) IsBound() bool {
	return s != nil && s.UserID != nil
}
