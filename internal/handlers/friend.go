package handlers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/HammerMeetNail/playit/internal/models"
	"github.com/HammerMeetNail/playit/internal/services"
)

type FriendHandler struct {
	friendService services.FriendServiceInterface
}

func NewFriendHandler(friendService services.FriendServiceInterface) *FriendHandler {
	return &FriendHandler{friendService: friendService}
}

type SendFriendRequestRequest struct {
	FriendID string `json:"friend_id" validate:"required,uuid"`
}

type FriendRequestActionRequest struct {
	RequestID string `json:"request_id" validate:"required,uuid"`
}

type FriendRequestResponse struct {
	Message string                `json:"message"`
	Request *models.FriendRequest `json:"friend_request"`
}

type FriendshipResponse struct {
	Message    string             `json:"message"`
	Friendship *models.Friendship `json:"friendship"`
	FriendID   uuid.UUID          `json:"friend_id"`
}

type FriendRequestsResponse struct {
	Requests []models.FriendRequestView `json:"requests"`
}

type FriendsResponse struct {
	Friends []models.FriendView `json:"friends"`
}

func requireUser(w http.ResponseWriter, r *http.Request) *models.User {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
	}
	return user
}

func (h *FriendHandler) SendRequest(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}

	var req SendFriendRequestRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	fr, err := h.friendService.SendRequest(r.Context(), user.ID, uuid.MustParse(req.FriendID))
	if err != nil {
		writeServiceError(w, r, "send friend request", err)
		return
	}

	writeJSON(w, http.StatusCreated, FriendRequestResponse{Message: "Friend request sent", Request: fr})
}

func (h *FriendHandler) AcceptRequest(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}

	var req FriendRequestActionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	friendship, err := h.friendService.AcceptRequest(r.Context(), uuid.MustParse(req.RequestID), user.ID)
	if err != nil {
		writeServiceError(w, r, "accept friend request", err)
		return
	}

	writeJSON(w, http.StatusOK, FriendshipResponse{
		Message:    "Friend request accepted",
		Friendship: friendship,
		FriendID:   friendship.Other(user.ID),
	})
}

func (h *FriendHandler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}

	var req FriendRequestActionRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.friendService.RejectRequest(r.Context(), uuid.MustParse(req.RequestID), user.ID); err != nil {
		writeServiceError(w, r, "reject friend request", err)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "Friend request rejected"})
}

func (h *FriendHandler) ListSent(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}

	requests, err := h.friendService.ListSent(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, r, "list sent requests", err)
		return
	}

	writeJSON(w, http.StatusOK, FriendRequestsResponse{Requests: requests})
}

func (h *FriendHandler) ListReceived(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}

	requests, err := h.friendService.ListReceived(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, r, "list received requests", err)
		return
	}

	writeJSON(w, http.StatusOK, FriendRequestsResponse{Requests: requests})
}

func (h *FriendHandler) ListFriends(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}

	friends, err := h.friendService.ListFriends(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, r, "list friends", err)
		return
	}

	writeJSON(w, http.StatusOK, FriendsResponse{Friends: friends})
}
