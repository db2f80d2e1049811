// Package config loads application configuration from environment
// variables. Required values are enforced with must(); optional values
// fall back to sensible defaults through the env* helpers shared with
// the rate-limit loader.
package config

import (
	"log"
	"os"
)

// Config holds all runtime configuration. Strings for identifiers and
// secrets, ints for durations and costs.
type Config struct {
	Env  string // application environment (dev/test/prod)
	Port string // HTTP port to listen on

	DBUser string // database username
	DBPass string // database password (optional)
	DBHost string // database host
	DBPort string // database port
	DBName string // database name

	JWTSecret      string // secret used to sign access and refresh tokens
	AccessTTLMin   int    // access token time-to-live in minutes
	RefreshTTLDays int    // refresh token time-to-live in days
	BcryptCost     int    // bcrypt cost for password hashing

	FrontendURL string // base URL the OAuth callback redirects browsers to

	GoogleClientID     string // Google OAuth client id
	GoogleClientSecret string // Google OAuth client secret
	GoogleRedirectURL  string // Google OAuth callback URL
	OAuthStateSecret   string // HMAC key for the OAuth state parameter

	ReaperIntervalHours int // hours between expired-token sweeps

	RabbitURL string // message broker URL (empty disables event publishing)
	SentryDSN string // error monitoring DSN (empty disables Sentry)
}

// Load reads configuration from the environment. Missing required
// variables abort startup with a fatal log message.
func Load() Config {
	cfg := Config{
		Env:    must("APP_ENV"),
		Port:   must("APP_PORT"),
		DBUser: must("DB_USER"),
		DBPass: os.Getenv("DB_PASS"),
		DBHost: must("DB_HOST"),
		DBPort: must("DB_PORT"),
		DBName: must("DB_NAME"),

		JWTSecret:      must("JWT_SECRET"),
		AccessTTLMin:   envInt("ACCESS_TOKEN_TTL_MIN", 15),
		RefreshTTLDays: envInt("REFRESH_TOKEN_TTL_DAYS", 7),
		BcryptCost:     envInt("BCRYPT_COST", 12),

		FrontendURL: envStr("FRONTEND_URL", "http://localhost:4000"),

		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleRedirectURL:  os.Getenv("GOOGLE_REDIRECT_URI"),
		OAuthStateSecret:   os.Getenv("OAUTH_STATE_SECRET"),

		ReaperIntervalHours: envInt("TOKEN_REAPER_INTERVAL_HOURS", 24),

		RabbitURL: os.Getenv("RABBITMQ_URL"),
		SentryDSN: os.Getenv("SENTRY_DSN"),
	}
	// The state parameter needs a signing key even when no dedicated
	// one is configured; the JWT secret is required so reuse it.
	if cfg.OAuthStateSecret == "" {
		cfg.OAuthStateSecret = cfg.JWTSecret
	}
	return cfg
}

// GoogleEnabled reports whether the Google OAuth routes can be served.
func (c Config) GoogleEnabled() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != "" && c.GoogleRedirectURL != ""
}

// must retrieves a required environment variable. If the variable is
// unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}
