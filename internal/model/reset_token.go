package model

import "time"

// ResetToken is a single-use password reset credential. Once used it
// never authorizes a reset again, regardless of expiry.
type ResetToken struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	TokenHash string    `json:"-"`
	ExpiresAt time.Time `json:"expiresAt"`
	Used      bool      `json:"used"`
	CreatedAt time.Time `json:"createdAt"`
}

// IsExpired checks if the reset token has passed its expiry time
func (t *ResetToken) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}
