package models

import (
	"time"

	"github.com/google/uuid"
)

// RefreshTokenRecord is the server-side half of a refresh token. Only the
// SHA-256 of the token is stored.
type RefreshTokenRecord struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	TokenHash string    `json:"-"`
	IPAddress string    `json:"ip_address"`
	Device    string    `json:"device"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

func (r *RefreshTokenRecord) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}

type SessionMeta struct {
	IPAddress string
	Device    string
}
