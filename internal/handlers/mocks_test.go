package handlers

import (
	"context"

	"github.com/google/uuid"

	"github.com/HammerMeetNail/playit/internal/models"
	"github.com/HammerMeetNail/playit/internal/services"
)

type mockIdentityService struct {
	ResolveFunc func(ctx context.Context, assertion string) (*models.User, error)
}

func (m *mockIdentityService) Resolve(ctx context.Context, assertion string) (*models.User, error) {
	if m.ResolveFunc != nil {
		return m.ResolveFunc(ctx, assertion)
	}
	return nil, nil
}

type mockAuthService struct {
	IssueSessionPairFunc   func(ctx context.Context, user *models.User, meta models.SessionMeta) (*services.SessionPair, error)
	RefreshAccessTokenFunc func(ctx context.Context, raw string) (*services.AccessGrant, error)
	RefreshWithSessionFunc func(ctx context.Context, raw string, recordID uuid.UUID) (*services.AccessGrant, error)
	ValidateSessionFunc    func(ctx context.Context, recordID, userID uuid.UUID) (bool, error)
	LogoutFunc             func(ctx context.Context, recordID, userID uuid.UUID) error
	ParseAccessTokenFunc   func(raw string) (*services.Claims, error)
}

func (m *mockAuthService) IssueSessionPair(ctx context.Context, user *models.User, meta models.SessionMeta) (*services.SessionPair, error) {
	if m.IssueSessionPairFunc != nil {
		return m.IssueSessionPairFunc(ctx, user, meta)
	}
	return &services.SessionPair{AccessToken: "access", RefreshToken: "refresh", RefreshTokenID: uuid.New(), ExpiresIn: 300}, nil
}

func (m *mockAuthService) RefreshAccessToken(ctx context.Context, raw string) (*services.AccessGrant, error) {
	if m.RefreshAccessTokenFunc != nil {
		return m.RefreshAccessTokenFunc(ctx, raw)
	}
	return &services.AccessGrant{AccessToken: "access", TokenType: "bearer", ExpiresIn: 300}, nil
}

func (m *mockAuthService) RefreshWithSession(ctx context.Context, raw string, recordID uuid.UUID) (*services.AccessGrant, error) {
	if m.RefreshWithSessionFunc != nil {
		return m.RefreshWithSessionFunc(ctx, raw, recordID)
	}
	return &services.AccessGrant{AccessToken: "access", TokenType: "bearer", ExpiresIn: 300}, nil
}

func (m *mockAuthService) ValidateSession(ctx context.Context, recordID, userID uuid.UUID) (bool, error) {
	if m.ValidateSessionFunc != nil {
		return m.ValidateSessionFunc(ctx, recordID, userID)
	}
	return true, nil
}

func (m *mockAuthService) Logout(ctx context.Context, recordID, userID uuid.UUID) error {
	if m.LogoutFunc != nil {
		return m.LogoutFunc(ctx, recordID, userID)
	}
	return nil
}

func (m *mockAuthService) ParseAccessToken(raw string) (*services.Claims, error) {
	if m.ParseAccessTokenFunc != nil {
		return m.ParseAccessTokenFunc(raw)
	}
	return nil, services.ErrTokenInvalid
}

type mockUserService struct {
	GetByIDFunc      func(ctx context.Context, id uuid.UUID) (*models.User, error)
	SearchByCodeFunc func(ctx context.Context, currentUserID uuid.UUID, code string) ([]models.UserSearchResult, error)
}

func (m *mockUserService) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, services.ErrUserNotFound
}

func (m *mockUserService) SearchByCode(ctx context.Context, currentUserID uuid.UUID, code string) ([]models.UserSearchResult, error) {
	if m.SearchByCodeFunc != nil {
		return m.SearchByCodeFunc(ctx, currentUserID, code)
	}
	return nil, services.ErrUserNotFound
}

type mockFriendService struct {
	SendRequestFunc        func(ctx context.Context, requesterID, recipientID uuid.UUID) (*models.FriendRequest, error)
	AcceptRequestFunc      func(ctx context.Context, requestID, actingUserID uuid.UUID) (*models.Friendship, error)
	RejectRequestFunc      func(ctx context.Context, requestID, actingUserID uuid.UUID) error
	ListSentFunc           func(ctx context.Context, userID uuid.UUID) ([]models.FriendRequestView, error)
	ListReceivedFunc       func(ctx context.Context, userID uuid.UUID) ([]models.FriendRequestView, error)
	ListFriendsFunc        func(ctx context.Context, userID uuid.UUID) ([]models.FriendView, error)
	PendingCountsFunc      func(ctx context.Context, userID uuid.UUID) (*models.PendingCounts, error)
	FriendsCountFunc       func(ctx context.Context, userID uuid.UUID) (int, error)
	RelationshipStatusFunc func(ctx context.Context, userID, otherUserID uuid.UUID) (*models.Relationship, error)
}

func (m *mockFriendService) SendRequest(ctx context.Context, requesterID, recipientID uuid.UUID) (*models.FriendRequest, error) {
	if m.SendRequestFunc != nil {
		return m.SendRequestFunc(ctx, requesterID, recipientID)
	}
	return &models.FriendRequest{ID: uuid.New(), RequesterID: requesterID, RecipientID: recipientID, Status: models.FriendRequestPending}, nil
}

func (m *mockFriendService) AcceptRequest(ctx context.Context, requestID, actingUserID uuid.UUID) (*models.Friendship, error) {
	if m.AcceptRequestFunc != nil {
		return m.AcceptRequestFunc(ctx, requestID, actingUserID)
	}
	return &models.Friendship{ID: uuid.New()}, nil
}

func (m *mockFriendService) RejectRequest(ctx context.Context, requestID, actingUserID uuid.UUID) error {
	if m.RejectRequestFunc != nil {
		return m.RejectRequestFunc(ctx, requestID, actingUserID)
	}
	return nil
}

func (m *mockFriendService) ListSent(ctx context.Context, userID uuid.UUID) ([]models.FriendRequestView, error) {
	if m.ListSentFunc != nil {
		return m.ListSentFunc(ctx, userID)
	}
	return []models.FriendRequestView{}, nil
}

func (m *mockFriendService) ListReceived(ctx context.Context, userID uuid.UUID) ([]models.FriendRequestView, error) {
	if m.ListReceivedFunc != nil {
		return m.ListReceivedFunc(ctx, userID)
	}
	return []models.FriendRequestView{}, nil
}

func (m *mockFriendService) ListFriends(ctx context.Context, userID uuid.UUID) ([]models.FriendView, error) {
	if m.ListFriendsFunc != nil {
		return m.ListFriendsFunc(ctx, userID)
	}
	return []models.FriendView{}, nil
}

func (m *mockFriendService) PendingCounts(ctx context.Context, userID uuid.UUID) (*models.PendingCounts, error) {
	if m.PendingCountsFunc != nil {
		return m.PendingCountsFunc(ctx, userID)
	}
	return &models.PendingCounts{}, nil
}

func (m *mockFriendService) FriendsCount(ctx context.Context, userID uuid.UUID) (int, error) {
	if m.FriendsCountFunc != nil {
		return m.FriendsCountFunc(ctx, userID)
	}
	return 0, nil
}

func (m *mockFriendService) RelationshipStatus(ctx context.Context, userID, otherUserID uuid.UUID) (*models.Relationship, error) {
	if m.RelationshipStatusFunc != nil {
		return m.RelationshipStatusFunc(ctx, userID, otherUserID)
	}
	return &models.Relationship{}, nil
}
