package handlers

import (
	"net/http"

	"github.com/HammerMeetNail/playit/internal/models"
	"github.com/HammerMeetNail/playit/internal/services"
)

type UserHandler struct {
	userService services.UserServiceInterface
}

func NewUserHandler(userService services.UserServiceInterface) *UserHandler {
	return &UserHandler{userService: userService}
}

type SearchUserRequest struct {
	UserCode string `json:"user_code" validate:"trim,required,usercode"`
}

type SearchUserResponse struct {
	Users []models.UserSearchResult `json:"users"`
}

func (h *UserHandler) Search(w http.ResponseWriter, r *http.Request) {
	user := requireUser(w, r)
	if user == nil {
		return
	}

	var req SearchUserRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	results, err := h.userService.SearchByCode(r.Context(), user.ID, req.UserCode)
	if err != nil {
		writeServiceError(w, r, "search users", err)
		return
	}

	writeJSON(w, http.StatusOK, SearchUserResponse{Users: results})
}
