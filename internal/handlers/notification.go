package handlers

import (
	"net/http"

	"github.com/HammerMeetNail/playit/internal/services"
)

// NotificationHandler serves the badge counters shown in the client.
type NotificationHandler struct {
	friendService services.FriendServiceInterface
}

func NewNotificationHandler(friendService services.FriendServiceInterface) *NotificationHandler {
	return &NotificationHandler{friendService: friendService}
}

type FriendsCountResponse struct {
	FriendsCount int `json:"friendsCount"`
}

func (h *NotificationHandler) PendingRequestsCount(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}

	counts, err := h.friendService.PendingCounts(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, r, "count pending requests", err)
		return
	}

	writeJSON(w, http.StatusOK, counts)
}

func (h *NotificationHandler) FriendsCount(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}

	n, err := h.friendService.FriendsCount(r.Context(), user.ID)
	if err != nil {
		writeServiceError(w, r, "count friends", err)
		return
	}

	writeJSON(w, http.StatusOK, FriendsCountResponse{FriendsCount: n})
}
