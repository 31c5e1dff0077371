package models

import (
	"bytes"
	"time"

	"github.com/google/uuid"
)

type FriendRequestStatus string

const (
	FriendRequestPending  FriendRequestStatus = "pending"
	FriendRequestAccepted FriendRequestStatus = "accepted"
	FriendRequestRejected FriendRequestStatus = "rejected"
)

type FriendRequest struct {
	ID          uuid.UUID           `json:"id"`
	RequesterID uuid.UUID           `json:"requester_id"`
	RecipientID uuid.UUID           `json:"recipient_id"`
	Status      FriendRequestStatus `json:"status"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// Friendship is an undirected edge stored with UserLow < UserHigh.
type Friendship struct {
	ID        uuid.UUID `json:"id"`
	UserLow   uuid.UUID `json:"user_low"`
	UserHigh  uuid.UUID `json:"user_high"`
	CreatedAt time.Time `json:"created_at"`
}

// Other returns the endpoint that is not userID.
func (f *Friendship) Other(userID uuid.UUID) uuid.UUID {
	if f.UserLow == userID {
		return f.UserHigh
	}
	return f.UserLow
}

// CanonicalPair orders two ids the same way Postgres orders uuid values.
func CanonicalPair(a, b uuid.UUID) (low, high uuid.UUID) {
	if bytes.Compare(a[:], b[:]) <= 0 {
		return a, b
	}
	return b, a
}

// FriendRequestView is a pending request enriched with the counterpart's profile.
type FriendRequestView struct {
	RequestID uuid.UUID `json:"request_id"`
	UserID    uuid.UUID `json:"user_id"`
	Name      string    `json:"name"`
	Code      string    `json:"user_code"`
	AvatarURL *string   `json:"avatar_url"`
	CreatedAt time.Time `json:"created_at"`
}

type FriendView struct {
	FriendshipID uuid.UUID `json:"friendship_id"`
	UserID       uuid.UUID `json:"user_id"`
	Name         string    `json:"name"`
	Code         string    `json:"user_code"`
	AvatarURL    *string   `json:"avatar_url"`
	CreatedAt    time.Time `json:"created_at"`
}

// Relationship describes how the caller relates to another user.
type Relationship struct {
	IsFriend bool                 `json:"isFriend"`
	Status   *FriendRequestStatus `json:"status,omitempty"`
	IsSender *bool                `json:"isSender,omitempty"`
}

type PendingCounts struct {
	Sent     int `json:"sentRequestsCount"`
	Received int `json:"receivedRequestsCount"`
	Total    int `json:"totalPendingRequests"`
}
