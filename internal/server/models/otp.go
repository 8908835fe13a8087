package models

import "time"

// Otp is a pending password-reset code bound to one user.
type Otp struct {
	ID      int64
	UserID  int64
	Token   string
	Expires time.Time
}

// IsExpired reports whether the code's expiry lies before now.
func (o *Otp) IsExpired(now time.Time) bool {
	return o.Expires.Before(now)
}
