package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Port string `envconfig:"PORT" default:"8080"`
	Env  string `envconfig:"ENV" default:"development"`

	// Redis configuration. Empty disables "remember me" sessions.
	RedisURL string `envconfig:"REDIS_URL"`

	// REST backend configuration
	Backend BackendConfig

	// Response cache configuration
	Cache CacheConfig

	// Session configuration
	Session SessionConfig

	// Login throttling (needs Redis)
	RateLimit RateLimitConfig

	// CORS configuration
	CORS CORSConfig
}

// BackendConfig holds the rental backend endpoints
type BackendConfig struct {
	BaseURL     string        `envconfig:"BACKEND_BASE_URL" default:"http://localhost:8083"`
	AuthBaseURL string        `envconfig:"BACKEND_AUTH_BASE_URL" default:"http://localhost:8082"`
	Timeout     time.Duration `envconfig:"BACKEND_TIMEOUT" default:"15s"`
}

// CacheConfig holds GET response cache configuration
type CacheConfig struct {
	TTL time.Duration `envconfig:"CACHE_TTL" default:"20s"`
}

// SessionConfig holds session handling configuration
type SessionConfig struct {
	CookieName string `envconfig:"SESSION_COOKIE_NAME" default:"rentpro_session"`
	// IdleTTL caps how long an in-memory session is kept
	IdleTTL time.Duration `envconfig:"SESSION_IDLE_TTL" default:"12h"`
	// ExpiryWarningMinutes is when a session starts being reported as expiring soon
	ExpiryWarningMinutes int `envconfig:"SESSION_EXPIRY_WARNING_MINUTES" default:"5"`
}

// RateLimitConfig holds login throttling configuration
type RateLimitConfig struct {
	Window          time.Duration `envconfig:"RATE_LIMIT_WINDOW" default:"15m"`
	MaxAttempts     int           `envconfig:"RATE_LIMIT_MAX_ATTEMPTS" default:"5"`
	LockoutDuration time.Duration `envconfig:"RATE_LIMIT_LOCKOUT_DURATION" default:"15m"`
}

// CORSConfig holds CORS configuration
type CORSConfig struct {
	AllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
}

// Load loads configuration from environment variables.
// A .env file in the working directory is read first if present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return &cfg, nil
}

// IsDevelopment returns true if running in development environment
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// IsProduction returns true if running in production environment
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// RememberMeEnabled reports whether durable sessions are available
func (c *Config) RememberMeEnabled() bool {
	return c.RedisURL != ""
}
