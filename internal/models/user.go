package models

import (
	"time"

	"github.com/google/uuid"
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Profile holds the identity details copied from the federated provider.
type Profile struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Surname   string    `json:"surname"`
	Email     string    `json:"email"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type User struct {
	ID           uuid.UUID  `json:"id"`
	ProfileID    *uuid.UUID `json:"profile_id,omitempty"`
	Role         Role       `json:"role"`
	Code         string     `json:"user_code"`
	Active       bool       `json:"active"`
	PasswordHash string     `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	Profile      *Profile   `json:"profile,omitempty"`
}

// DisplayName falls back to a placeholder when the profile is missing.
func (u *User) DisplayName() string {
	if u.Profile == nil || u.Profile.Name == "" {
		return UnnamedUser
	}
	return u.Profile.Name
}

// UnnamedUser is shown for users whose profile row is gone.
const UnnamedUser = "Unnamed"

// Identity is a verified federated identity assertion.
type Identity struct {
	Subject    string
	Email      string
	GivenName  string
	FamilyName string
	AvatarURL  *string
}

type UserSearchResult struct {
	ID           uuid.UUID     `json:"id"`
	Name         string        `json:"name"`
	Code         string        `json:"user_code"`
	AvatarURL    *string       `json:"avatar_url"`
	Relationship *Relationship `json:"friendship_status"`
}
