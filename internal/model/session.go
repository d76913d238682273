package model

import "time"

// Session tracks a login session issued by the authentication flow.
// The raw token is returned to the caller exactly once; only its hash
// is persisted.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	TokenHash string    `json:"-"`
	IPAddress *string   `json:"ipAddress,omitempty"`
	UserAgent *string   `json:"userAgent,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
	IsActive  bool      `json:"isActive"`
}

// IsExpired checks if the session has passed its expiry time
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// IsUsable reports whether the session may still authenticate requests.
// Both the explicit flag and the expiry must hold; checking only one of
// them is a bug.
func (s *Session) IsUsable() bool {
	return s.IsActive && !s.IsExpired()
}
