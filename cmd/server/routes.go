package main

import (
	"net/http"

	"github.com/HammerMeetNail/playit/internal/handlers"
	"github.com/HammerMeetNail/playit/internal/middleware"
	"github.com/HammerMeetNail/playit/internal/models"
)

type routeDeps struct {
	health        *handlers.HealthHandler
	auth          *handlers.AuthHandler
	users         *handlers.UserHandler
	friends       *handlers.FriendHandler
	notifications *handlers.NotificationHandler

	authMiddleware *middleware.AuthMiddleware
	loginLimiter   *middleware.RateLimiter
	refreshLimiter *middleware.RateLimiter
}

func newRouter(d routeDeps) *http.ServeMux {
	player := d.authMiddleware.RequireRole(models.RoleUser)
	anyRole := d.authMiddleware.RequireRole(models.RoleAdmin, models.RoleUser)

	limited := func(rl *middleware.RateLimiter, h http.HandlerFunc) http.Handler {
		if rl == nil {
			return h
		}
		return rl.Middleware(h)
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", d.health.Health)
	mux.HandleFunc("GET /ready", d.health.Ready)
	mux.HandleFunc("GET /live", d.health.Live)

	mux.Handle("POST /login", limited(d.loginLimiter, d.auth.Login))
	mux.Handle("POST /refresh", limited(d.refreshLimiter, d.auth.Refresh))
	mux.HandleFunc("POST /validate-refresh-token", d.auth.ValidateRefreshToken)
	mux.Handle("POST /logout", anyRole(http.HandlerFunc(d.auth.Logout)))

	mux.Handle("POST /user/search", player(http.HandlerFunc(d.users.Search)))
	mux.Handle("POST /user/friend/add", player(http.HandlerFunc(d.friends.SendRequest)))

	mux.Handle("GET /friend/requests/sent", player(http.HandlerFunc(d.friends.ListSent)))
	mux.Handle("GET /friend/requests/received", player(http.HandlerFunc(d.friends.ListReceived)))
	mux.Handle("POST /friend/requests/accept", player(http.HandlerFunc(d.friends.AcceptRequest)))
	mux.Handle("POST /friend/requests/reject", player(http.HandlerFunc(d.friends.RejectRequest)))
	mux.Handle("GET /friends", player(http.HandlerFunc(d.friends.ListFriends)))

	mux.Handle("GET /notifications/pending-requests-count", player(http.HandlerFunc(d.notifications.PendingRequestsCount)))
	mux.Handle("GET /notifications/friends-count", player(http.HandlerFunc(d.notifications.FriendsCount)))

	return mux
}

// buildHandler wraps the router in the middleware chain, outermost last.
func buildHandler(mux http.Handler, d routeDeps, requestLogger *middleware.RequestLogger, security *middleware.SecurityHeaders) http.Handler {
	var handler http.Handler = mux
	handler = d.authMiddleware.Authenticate(handler)
	handler = security.Apply(handler)
	handler = requestLogger.Apply(handler)
	return handler
}
