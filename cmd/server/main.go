package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/HammerMeetNail/playit/internal/config"
	"github.com/HammerMeetNail/playit/internal/database"
	"github.com/HammerMeetNail/playit/internal/handlers"
	"github.com/HammerMeetNail/playit/internal/logging"
	"github.com/HammerMeetNail/playit/internal/middleware"
	"github.com/HammerMeetNail/playit/internal/services"
)

func main() {
	if err := run(); err != nil {
		logging.Error("Application error", map[string]interface{}{"error": err.Error()})
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logging.SetDefaultLevel(logging.ParseLevel(cfg.LogLevel))
	logger := logging.Default.WithField("service", "playit")
	logger.Info("Starting PlayIt server", map[string]interface{}{"env": cfg.Server.Environment})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("Connecting to PostgreSQL", map[string]interface{}{
		"host": cfg.Database.Host,
		"port": cfg.Database.Port,
	})
	db, err := database.NewPostgresDB(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	defer db.Close()

	if err := database.Migrate(cfg.Database.DSN(), cfg.Server.MigrationsPath); err != nil {
		return err
	}

	logger.Info("Connecting to Redis", map[string]interface{}{"addr": cfg.Redis.Addr()})
	redisDB, err := database.NewRedisDB(ctx, cfg.Redis)
	if err != nil {
		if !cfg.RateLimit.FailOpen {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		// rate limiting degrades to pass-through
		logger.Warn("Redis unavailable, rate limiting disabled", map[string]interface{}{"error": err.Error()})
		redisDB = &database.RedisDB{}
	}
	defer func() { _ = redisDB.Close() }()

	store := db.DB()
	signer := services.NewHMACSigner(cfg.Auth.JWTSecret, cfg.Auth.Issuer)

	friendService := services.NewFriendService(store)
	userService := services.NewUserService(store, friendService)
	identityService := services.NewIdentityService(store, services.NewGoogleVerifier(cfg.Google.ClientID), services.PostgresCodeSequence{})
	authService := services.NewAuthService(store, signer, services.AuthConfig{
		Issuer:    cfg.Auth.Issuer,
		AppKey:    cfg.Auth.AppKey,
		AccessTTL: cfg.Auth.AccessTokenTTL,
	})

	checks := []handlers.NamedCheck{{Name: "database", Checker: db}}
	if redisDB.Client != nil {
		checks = append(checks, handlers.NamedCheck{Name: "redis", Checker: redisDB})
	}

	deps := routeDeps{
		health:         handlers.NewHealthHandler(checks...),
		auth:           handlers.NewAuthHandler(identityService, authService, cfg.Auth.RequireSessionOnRefresh),
		users:          handlers.NewUserHandler(userService),
		friends:        handlers.NewFriendHandler(friendService),
		notifications:  handlers.NewNotificationHandler(friendService),
		authMiddleware: middleware.NewAuthMiddleware(authService),
	}
	if cfg.RateLimit.Enabled && redisDB.Client != nil {
		deps.loginLimiter = middleware.NewRateLimiter(redisDB.Client, cfg.RateLimit.Login, cfg.RateLimit.Window, "ratelimit:login:", nil, cfg.RateLimit.FailOpen)
		deps.refreshLimiter = middleware.NewRateLimiter(redisDB.Client, cfg.RateLimit.Refresh, cfg.RateLimit.Window, "ratelimit:refresh:", nil, cfg.RateLimit.FailOpen)
	}

	handler := buildHandler(newRouter(deps), deps,
		middleware.NewRequestLogger(logger),
		middleware.NewSecurityHeaders(cfg.Server.Secure),
	)

	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server listening", map[string]interface{}{"addr": server.Addr})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		logger.Info("Server is shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownGrace)
	defer cancel()

	server.SetKeepAlivesEnabled(false)
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Could not gracefully shutdown the server", map[string]interface{}{"error": err.Error()})
	}
	logger.Info("Server stopped")
	return nil
}
