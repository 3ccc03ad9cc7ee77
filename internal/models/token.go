package models

import "time"

// Session represents a persisted login session referenced by the cookie.
type Session struct {
	ID        string     `db:"id" json:"id"`
	UserID    string     `db:"user_id" json:"userId"`
	ExpiresAt time.Time  `db:"expires_at" json:"expiresAt"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
	Revoked   bool       `db:"revoked" json:"revoked"`
	RevokedAt *time.Time `db:"revoked_at" json:"revokedAt,omitempty"`
	IPAddress string     `db:"ip_address" json:"ipAddress"`
	UserAgent string     `db:"user_agent" json:"userAgent"`
}

// Active reports whether the session may still authenticate requests.
func (s *Session) Active(now time.Time) bool {
	return s != nil && !s.Revoked && now.Before(s.ExpiresAt)
}
