package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/HammerMeetNail/playit/internal/models"
	"github.com/HammerMeetNail/playit/internal/services"
	"github.com/HammerMeetNail/playit/internal/testutil"
)

func TestAuthHandler_Login_Success(t *testing.T) {
	user := newTestUser()
	recordID := uuid.New()
	var gotMeta models.SessionMeta

	identity := &mockIdentityService{
		ResolveFunc: func(ctx context.Context, assertion string) (*models.User, error) {
			if assertion != "google-token" {
				t.Fatalf("expected trimmed assertion, got %q", assertion)
			}
			return user, nil
		},
	}
	auth := &mockAuthService{
		IssueSessionPairFunc: func(ctx context.Context, u *models.User, meta models.SessionMeta) (*services.SessionPair, error) {
			gotMeta = meta
			return &services.SessionPair{AccessToken: "a", RefreshToken: "r", RefreshTokenID: recordID, ExpiresIn: 300}, nil
		},
	}

	req := testutil.NewTestRequestWithJSON(t, http.MethodPost, "/login", map[string]string{"id_token": "  google-token "})
	req.Header.Set("User-Agent", "PlayIt/1.0")
	req.RemoteAddr = "192.0.2.7:5555"
	rr := httptest.NewRecorder()

	NewAuthHandler(identity, auth, false).Login(rr, req)

	testutil.AssertStatusCode(t, rr, http.StatusOK)
	body := testutil.ParseJSONResponse(t, rr.Body.Bytes())
	if body["access_token"] != "a" || body["refresh_token"] != "r" || body["idRefreshToken"] != recordID.String() {
		t.Fatalf("unexpected body: %v", body)
	}
	if gotMeta.IPAddress != "192.0.2.7" || gotMeta.Device != "PlayIt/1.0" {
		t.Fatalf("unexpected session meta: %+v", gotMeta)
	}
}

func TestAuthHandler_Login_Validation(t *testing.T) {
	rr := httptest.NewRecorder()
	req := testutil.NewTestRequestWithJSON(t, http.MethodPost, "/login", map[string]string{"id_token": "   "})
	NewAuthHandler(&mockIdentityService{}, &mockAuthService{}, false).Login(rr, req)

	resp := assertErrorResponse(t, rr, http.StatusBadRequest, "Validation failed")
	if _, ok := resp.Errors["id_token"]; !ok {
		t.Fatalf("expected id_token field error, got %v", resp.Errors)
	}
}

func TestAuthHandler_Login_InvalidBody(t *testing.T) {
	rr := httptest.NewRecorder()
	req := testutil.NewTestRequest(http.MethodPost, "/login", strings.NewReader("{"))
	NewAuthHandler(&mockIdentityService{}, &mockAuthService{}, false).Login(rr, req)
	assertErrorResponse(t, rr, http.StatusBadRequest, "Invalid request body")
}

func TestAuthHandler_Login_ErrorMapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"bad assertion", fmt.Errorf("%w: signature", services.ErrInvalidAssertion), http.StatusUnauthorized, "invalid identity token"},
		{"disabled", services.ErrAccountDisabled, http.StatusForbidden, "account is disabled"},
		{"orphan profile", services.ErrUserNotFound, http.StatusNotFound, "user not found"},
		{"conflict", services.ErrConflict, http.StatusConflict, "resource already exists"},
		{"internal", errors.New("pq: connection reset"), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			identity := &mockIdentityService{
				ResolveFunc: func(ctx context.Context, assertion string) (*models.User, error) {
					return nil, tt.err
				},
			}
			rr := httptest.NewRecorder()
			req := testutil.NewTestRequestWithJSON(t, http.MethodPost, "/login", map[string]string{"id_token": "x"})
			NewAuthHandler(identity, &mockAuthService{}, false).Login(rr, req)
			assertErrorResponse(t, rr, tt.status, tt.message)
		})
	}
}

func TestAuthHandler_Refresh(t *testing.T) {
	var calledWith string
	auth := &mockAuthService{
		RefreshAccessTokenFunc: func(ctx context.Context, raw string) (*services.AccessGrant, error) {
			calledWith = raw
			return &services.AccessGrant{AccessToken: "new", TokenType: "bearer", ExpiresIn: 300}, nil
		},
	}

	rr := httptest.NewRecorder()
	req := testutil.NewTestRequestWithJSON(t, http.MethodPost, "/refresh", map[string]string{"refresh_token": "r"})
	NewAuthHandler(&mockIdentityService{}, auth, false).Refresh(rr, req)

	testutil.AssertStatusCode(t, rr, http.StatusOK)
	testutil.AssertJSONContains(t, rr.Body.Bytes(), "token_type", "bearer")
	testutil.AssertJSONContains(t, rr.Body.Bytes(), "access_token", "new")
	testutil.AssertJSONContains(t, rr.Body.Bytes(), "expires_in", float64(300))
	testutil.AssertEqual(t, "r", calledWith, "refresh token passed through")
}

func TestAuthHandler_Refresh_Errors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"expired", services.ErrTokenExpired, http.StatusUnauthorized},
		{"invalid", services.ErrTokenInvalid, http.StatusUnauthorized},
		{"wrong type", services.ErrWrongTokenType, http.StatusUnauthorized},
		{"user gone", services.ErrUserNotFound, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := &mockAuthService{
				RefreshAccessTokenFunc: func(ctx context.Context, raw string) (*services.AccessGrant, error) {
					return nil, tt.err
				},
			}
			rr := httptest.NewRecorder()
			req := testutil.NewTestRequestWithJSON(t, http.MethodPost, "/refresh", map[string]string{"refresh_token": "r"})
			NewAuthHandler(&mockIdentityService{}, auth, false).Refresh(rr, req)
			assertErrorResponse(t, rr, tt.status, "")
		})
	}
}

func TestAuthHandler_Refresh_WithSession(t *testing.T) {
	recordID := uuid.New()
	var checked uuid.UUID
	auth := &mockAuthService{
		RefreshAccessTokenFunc: func(ctx context.Context, raw string) (*services.AccessGrant, error) {
			t.Fatal("session-aware refresh expected")
			return nil, nil
		},
		RefreshWithSessionFunc: func(ctx context.Context, raw string, id uuid.UUID) (*services.AccessGrant, error) {
			checked = id
			return nil, services.ErrSessionNotFound
		},
	}

	rr := httptest.NewRecorder()
	req := testutil.NewTestRequestWithJSON(t, http.MethodPost, "/refresh", map[string]string{
		"refresh_token":    "r",
		"refresh_token_id": recordID.String(),
	})
	NewAuthHandler(&mockIdentityService{}, auth, false).Refresh(rr, req)

	assertErrorResponse(t, rr, http.StatusNotFound, "refresh token not found")
	if checked != recordID {
		t.Fatalf("expected record %v to be checked, got %v", recordID, checked)
	}
}

func TestAuthHandler_Refresh_RequireSession(t *testing.T) {
	rr := httptest.NewRecorder()
	req := testutil.NewTestRequestWithJSON(t, http.MethodPost, "/refresh", map[string]string{"refresh_token": "r"})
	NewAuthHandler(&mockIdentityService{}, &mockAuthService{}, true).Refresh(rr, req)

	resp := assertErrorResponse(t, rr, http.StatusBadRequest, "Validation failed")
	if _, ok := resp.Errors["refresh_token_id"]; !ok {
		t.Fatalf("expected refresh_token_id error, got %v", resp.Errors)
	}
}

func TestAuthHandler_ValidateRefreshToken(t *testing.T) {
	recordID, userID := uuid.New(), uuid.New()
	tests := []struct {
		name   string
		valid  bool
		err    error
		status int
	}{
		{"valid", true, nil, http.StatusOK},
		{"missing", false, services.ErrSessionNotFound, http.StatusUnauthorized},
		{"expired", false, services.ErrSessionExpired, http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			auth := &mockAuthService{
				ValidateSessionFunc: func(ctx context.Context, rid, uid uuid.UUID) (bool, error) {
					if rid != recordID || uid != userID {
						t.Fatalf("unexpected ids %v %v", rid, uid)
					}
					return tt.valid, tt.err
				},
			}
			rr := httptest.NewRecorder()
			req := testutil.NewTestRequestWithJSON(t, http.MethodPost, "/validate-refresh-token", map[string]string{
				"refresh_token_id": recordID.String(),
				"userID":           userID.String(),
			})
			NewAuthHandler(&mockIdentityService{}, auth, false).ValidateRefreshToken(rr, req)

			testutil.AssertStatusCode(t, rr, tt.status)
			testutil.AssertJSONContains(t, rr.Body.Bytes(), "valid", tt.valid)
		})
	}
}

func TestAuthHandler_ValidateRefreshToken_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		message string
	}{
		{"bad ids", `{"refresh_token_id":"not-a-uuid"}`, "Validation failed"},
		{"not json", `{`, "Invalid request body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/validate-refresh-token", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			NewAuthHandler(&mockIdentityService{}, &mockAuthService{}, false).ValidateRefreshToken(rr, req)

			testutil.AssertStatusCode(t, rr, http.StatusBadRequest)
			testutil.AssertJSONContains(t, rr.Body.Bytes(), "valid", false)
			testutil.AssertJSONContains(t, rr.Body.Bytes(), "message", tt.message)
		})
	}
}

func TestAuthHandler_ValidateRefreshToken_InternalError(t *testing.T) {
	auth := &mockAuthService{
		ValidateSessionFunc: func(ctx context.Context, rid, uid uuid.UUID) (bool, error) {
			return false, errors.New("connection reset")
		},
	}
	rr := httptest.NewRecorder()
	req := testutil.NewTestRequestWithJSON(t, http.MethodPost, "/validate-refresh-token", map[string]string{
		"refresh_token_id": uuid.New().String(),
		"userID":           uuid.New().String(),
	})
	NewAuthHandler(&mockIdentityService{}, auth, false).ValidateRefreshToken(rr, req)

	testutil.AssertStatusCode(t, rr, http.StatusInternalServerError)
	testutil.AssertJSONContains(t, rr.Body.Bytes(), "valid", false)
	testutil.AssertJSONContains(t, rr.Body.Bytes(), "message", "Internal server error")
}

func TestAuthHandler_Logout(t *testing.T) {
	user := newTestUser()
	recordID := uuid.New()

	t.Run("success", func(t *testing.T) {
		auth := &mockAuthService{
			LogoutFunc: func(ctx context.Context, rid, uid uuid.UUID) error {
				if rid != recordID || uid != user.ID {
					t.Fatalf("unexpected ids %v %v", rid, uid)
				}
				return nil
			},
		}
		rr := httptest.NewRecorder()
		req := testutil.NewTestRequestWithJSON(t, http.MethodPost, "/logout", map[string]string{"idToken": recordID.String()})
		req = req.WithContext(SetUserInContext(req.Context(), user))
		NewAuthHandler(&mockIdentityService{}, auth, false).Logout(rr, req)

		testutil.AssertStatusCode(t, rr, http.StatusOK)
		testutil.AssertJSONContains(t, rr.Body.Bytes(), "message", "OK")
	})

	t.Run("not found", func(t *testing.T) {
		auth := &mockAuthService{
			LogoutFunc: func(ctx context.Context, rid, uid uuid.UUID) error {
				return services.ErrSessionNotFound
			},
		}
		rr := httptest.NewRecorder()
		req := testutil.NewTestRequestWithJSON(t, http.MethodPost, "/logout", map[string]string{"idToken": recordID.String()})
		req = req.WithContext(SetUserInContext(req.Context(), user))
		NewAuthHandler(&mockIdentityService{}, auth, false).Logout(rr, req)
		assertErrorResponse(t, rr, http.StatusNotFound, "refresh token not found")
	})

	t.Run("unauthenticated", func(t *testing.T) {
		rr := httptest.NewRecorder()
		req := testutil.NewTestRequestWithJSON(t, http.MethodPost, "/logout", map[string]string{"idToken": recordID.String()})
		NewAuthHandler(&mockIdentityService{}, &mockAuthService{}, false).Logout(rr, req)
		assertErrorResponse(t, rr, http.StatusUnauthorized, "Authentication required")
	})
}
