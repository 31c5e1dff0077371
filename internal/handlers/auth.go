package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/HammerMeetNail/playit/internal/logging"
	"github.com/HammerMeetNail/playit/internal/models"
	"github.com/HammerMeetNail/playit/internal/services"
)

type AuthHandler struct {
	identity                services.IdentityServiceInterface
	auth                    services.AuthServiceInterface
	requireSessionOnRefresh bool
}

func NewAuthHandler(identity services.IdentityServiceInterface, auth services.AuthServiceInterface, requireSessionOnRefresh bool) *AuthHandler {
	return &AuthHandler{
		identity:                identity,
		auth:                    auth,
		requireSessionOnRefresh: requireSessionOnRefresh,
	}
}

type LoginRequest struct {
	IDToken string `json:"id_token" validate:"trim,required"`
}

type LoginResponse struct {
	Message        string    `json:"message"`
	AccessToken    string    `json:"access_token"`
	RefreshToken   string    `json:"refresh_token"`
	RefreshTokenID uuid.UUID `json:"idRefreshToken"`
	ExpiresIn      int       `json:"expires_in"`
}

type RefreshRequest struct {
	RefreshToken   string `json:"refresh_token" validate:"trim,required"`
	RefreshTokenID string `json:"refresh_token_id" validate:"omitempty,uuid"`
}

type RefreshResponse struct {
	Message     string `json:"message"`
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type ValidateRefreshRequest struct {
	RefreshTokenID string `json:"refresh_token_id" validate:"required,uuid"`
	UserID         string `json:"userID" validate:"required,uuid"`
}

type ValidateRefreshResponse struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message"`
}

type LogoutRequest struct {
	IDToken string `json:"idToken" validate:"required,uuid"`
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	user, err := h.identity.Resolve(r.Context(), req.IDToken)
	if err != nil {
		writeServiceError(w, r, "login", err)
		return
	}

	pair, err := h.auth.IssueSessionPair(r.Context(), user, models.SessionMeta{
		IPAddress: ClientIP(r),
		Device:    r.UserAgent(),
	})
	if err != nil {
		writeServiceError(w, r, "issue session", err)
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{
		Message:        "Login successful",
		AccessToken:    pair.AccessToken,
		RefreshToken:   pair.RefreshToken,
		RefreshTokenID: pair.RefreshTokenID,
		ExpiresIn:      pair.ExpiresIn,
	})
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	var (
		grant *services.AccessGrant
		err   error
	)
	switch {
	case req.RefreshTokenID != "":
		grant, err = h.auth.RefreshWithSession(r.Context(), req.RefreshToken, uuid.MustParse(req.RefreshTokenID))
	case h.requireSessionOnRefresh:
		writeValidationError(w, map[string]string{"refresh_token_id": "refresh_token_id is a required field"})
		return
	default:
		grant, err = h.auth.RefreshAccessToken(r.Context(), req.RefreshToken)
	}
	if err != nil {
		writeServiceError(w, r, "refresh", err)
		return
	}

	writeJSON(w, http.StatusOK, RefreshResponse{
		Message:     "Token refreshed",
		AccessToken: grant.AccessToken,
		TokenType:   grant.TokenType,
		ExpiresIn:   grant.ExpiresIn,
	})
}

func (h *AuthHandler) ValidateRefreshToken(w http.ResponseWriter, r *http.Request) {
	var req ValidateRefreshRequest
	if message, _, ok := bindJSON(r, &req); !ok {
		writeJSON(w, http.StatusBadRequest, ValidateRefreshResponse{Valid: false, Message: message})
		return
	}

	valid, err := h.auth.ValidateSession(r.Context(), uuid.MustParse(req.RefreshTokenID), uuid.MustParse(req.UserID))
	switch {
	case errors.Is(err, services.ErrSessionNotFound):
		writeJSON(w, http.StatusUnauthorized, ValidateRefreshResponse{Valid: false, Message: "Refresh token not found"})
	case errors.Is(err, services.ErrSessionExpired):
		writeJSON(w, http.StatusUnauthorized, ValidateRefreshResponse{Valid: false, Message: "Refresh token has expired"})
	case err != nil:
		logging.Error("validate refresh token failed", map[string]interface{}{
			"path":  r.URL.Path,
			"error": err.Error(),
		})
		writeJSON(w, http.StatusInternalServerError, ValidateRefreshResponse{Valid: false, Message: internalErrorMessage})
	case !valid:
		writeJSON(w, http.StatusUnauthorized, ValidateRefreshResponse{Valid: false, Message: "Refresh token is invalid"})
	default:
		writeJSON(w, http.StatusOK, ValidateRefreshResponse{Valid: true, Message: "Refresh token is valid"})
	}
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user := GetUserFromContext(r.Context())
	if user == nil {
		writeError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req LogoutRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.auth.Logout(r.Context(), uuid.MustParse(req.IDToken), user.ID); err != nil {
		writeServiceError(w, r, "logout", err)
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "OK"})
}
