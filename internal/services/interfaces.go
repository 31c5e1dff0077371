package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/HammerMeetNail/playit/internal/models"
)

// AssertionVerifier checks a federated identity assertion and returns the
// identity it vouches for.
type AssertionVerifier interface {
	VerifyAssertion(ctx context.Context, raw string) (*models.Identity, error)
}

// TokenSigner produces and checks signed bearer tokens.
type TokenSigner interface {
	SignToken(claims *Claims) (string, error)
	VerifyToken(raw string) (*Claims, error)
}

// CodeSequence hands out external user codes. Next runs on q so the
// allocation shares the caller's transaction.
type CodeSequence interface {
	Next(ctx context.Context, q Querier) (string, error)
}

type IdentityServiceInterface interface {
	Resolve(ctx context.Context, assertion string) (*models.User, error)
}

// AuthServiceInterface defines the contract for token and session operations.
type AuthServiceInterface interface {
	IssueSessionPair(ctx context.Context, user *models.User, meta models.SessionMeta) (*SessionPair, error)
	RefreshAccessToken(ctx context.Context, raw string) (*AccessGrant, error)
	RefreshWithSession(ctx context.Context, raw string, recordID uuid.UUID) (*AccessGrant, error)
	ValidateSession(ctx context.Context, recordID, userID uuid.UUID) (bool, error)
	Logout(ctx context.Context, recordID, userID uuid.UUID) error
	ParseAccessToken(raw string) (*Claims, error)
}

type UserServiceInterface interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	SearchByCode(ctx context.Context, currentUserID uuid.UUID, code string) ([]models.UserSearchResult, error)
}

// FriendServiceInterface defines the contract for friendship operations.
type FriendServiceInterface interface {
	SendRequest(ctx context.Context, requesterID, recipientID uuid.UUID) (*models.FriendRequest, error)
	AcceptRequest(ctx context.Context, requestID, actingUserID uuid.UUID) (*models.Friendship, error)
	RejectRequest(ctx context.Context, requestID, actingUserID uuid.UUID) error
	ListSent(ctx context.Context, userID uuid.UUID) ([]models.FriendRequestView, error)
	ListReceived(ctx context.Context, userID uuid.UUID) ([]models.FriendRequestView, error)
	ListFriends(ctx context.Context, userID uuid.UUID) ([]models.FriendView, error)
	PendingCounts(ctx context.Context, userID uuid.UUID) (*models.PendingCounts, error)
	FriendsCount(ctx context.Context, userID uuid.UUID) (int, error)
	RelationshipStatus(ctx context.Context, userID, otherUserID uuid.UUID) (*models.Relationship, error)
}

// RelationshipChecker is the slice of the friend service user search needs.
type RelationshipChecker interface {
	RelationshipStatus(ctx context.Context, userID, otherUserID uuid.UUID) (*models.Relationship, error)
}
