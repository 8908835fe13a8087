package models

import "time"

// RefreshToken is one persisted session.
type RefreshToken struct {
	ID        int64
	UserID    int64
	Token     string
	Expires   time.Time
	CreatedAt time.Time
}

// IsExpired reports whether the stored expiry lies before now.
func (t *RefreshToken) IsExpired(now time.Time) bool {
	return t.Expires.Before(now)
}
