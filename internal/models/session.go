package models

import (
	"time"

	"github.com/google/uuid"
)

// Session tracks an authenticated refresh-token session along with the
// device it was created from.
type Session struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	UserID     uuid.UUID  `json:"user_id" db:"user_id"`
	TokenHash  string     `json:"-" db:"token_hash"`
	DeviceType NullString `json:"device_type,omitempty" db:"device_type"`
	OS         NullString `json:"os,omitempty" db:"os"`
	Browser    NullString `json:"browser,omitempty" db:"browser"`
	IPAddress  NullString `json:"ip_address,omitempty" db:"ip_address"`
	UserAgent  NullString `json:"user_agent,omitempty" db:"user_agent"`
	ExpiresAt  time.Time  `json:"expires_at" db:"expires_at"`
	RevokedAt  NullTime   `json:"revoked_at,omitempty" db:"revoked_at"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}

// IsActive reports whether the session can still be used to refresh tokens
func (s *Session) IsActive(now time.Time) bool {
	return !s.RevokedAt.Valid && now.Before(s.ExpiresAt)
}
