package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Redis     RedisConfig
	Auth      AuthConfig
	Google    GoogleConfig
	RateLimit RateLimitConfig
	LogLevel  string
}

type ServerConfig struct {
	Host           string
	Port           int
	Secure         bool   // adds HSTS
	Environment    string // "development", "production", "test"
	MigrationsPath string
	ShutdownGrace  time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int32
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type AuthConfig struct {
	JWTSecret               string
	AppKey                  string
	Issuer                  string
	AccessTokenTTL          time.Duration
	RequireSessionOnRefresh bool
}

type GoogleConfig struct {
	ClientID string
}

type RateLimitConfig struct {
	Enabled  bool
	Login    int
	Refresh  int
	Window   time.Duration
	FailOpen bool
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func (s ServerConfig) IsDevelopment() bool {
	return s.Environment == "development"
}

// loadDotEnv is swapped in tests.
var loadDotEnv = func() error {
	return godotenv.Load()
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() (*Config, error) {
	if err := loadDotEnv(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnvInt("SERVER_PORT", 8080),
			Secure:         getEnvBool("SERVER_SECURE", false),
			Environment:    getEnv("APP_ENV", "development"),
			MigrationsPath: getEnv("MIGRATIONS_PATH", "migrations"),
			ShutdownGrace:  time.Duration(getEnvInt("SHUTDOWN_GRACE_SECONDS", 30)) * time.Second,
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "playit"),
			Password: getEnv("DB_PASSWORD", "playit"),
			DBName:   getEnv("DB_NAME", "playit"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: int32(getEnvInt("DB_MAX_CONNS", 25)),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			JWTSecret:               getEnv("JWT_SECRET", ""),
			AppKey:                  getEnv("APP_KEY", ""),
			Issuer:                  getEnv("JWT_ISSUER", "playit"),
			AccessTokenTTL:          time.Duration(getEnvInt("ACCESS_TOKEN_TTL_MINUTES", 5)) * time.Minute,
			RequireSessionOnRefresh: getEnvBool("REFRESH_REQUIRE_SESSION", false),
		},
		Google: GoogleConfig{
			ClientID: getEnv("GOOGLE_CLIENT_ID", ""),
		},
		RateLimit: RateLimitConfig{
			Enabled:  getEnvBool("RATE_LIMIT_ENABLED", true),
			Login:    getEnvInt("RATE_LIMIT_LOGIN", 10),
			Refresh:  getEnvInt("RATE_LIMIT_REFRESH", 30),
			Window:   time.Duration(getEnvInt("RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second,
			FailOpen: getEnvBool("RATE_LIMIT_FAIL_OPEN", true),
		},
		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if cfg.Auth.AppKey == "" {
		cfg.Auth.AppKey = cfg.Auth.JWTSecret
	}

	return cfg, nil
}

// Validate reports settings the server cannot start without.
func (c *Config) Validate() error {
	var problems []string
	if c.Server.Environment != "test" {
		if c.Auth.JWTSecret == "" {
			problems = append(problems, "JWT_SECRET is required")
		}
		if c.Google.ClientID == "" {
			problems = append(problems, "GOOGLE_CLIENT_ID is required")
		}
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		problems = append(problems, "SERVER_PORT must be between 1 and 65535")
	}
	if c.Auth.AccessTokenTTL <= 0 {
		problems = append(problems, "ACCESS_TOKEN_TTL_MINUTES must be positive")
	}
	if c.RateLimit.Enabled && c.RateLimit.Window <= 0 {
		problems = append(problems, "RATE_LIMIT_WINDOW_SECONDS must be positive")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
