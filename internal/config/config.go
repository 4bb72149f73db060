// Package config loads and validates application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all configuration values for the console server.
// Values are populated by Load from environment variables.
type Config struct {
	// Port is the TCP port the HTTP server listens on. Defaults to "8080".
	Port string

	// LogLevel controls the minimum log level. Defaults to "info".
	// Valid values: debug, info, warn, error.
	LogLevel string

	// CORSOrigins is the list of origins allowed to call the JSON API.
	// Set CORS_ORIGINS to a comma-separated list to override.
	CORSOrigins []string

	// BackendURL is the base URL of the travel platform's REST API,
	// e.g. http://localhost:8000/api. Required.
	BackendURL string

	// BackendToken is an optional static bearer token sent with every
	// signed-in backend call that carries no token of its own.
	BackendToken string

	// BackendTimeout bounds every backend request. Defaults to 10s.
	BackendTimeout time.Duration

	// CSRFKey authenticates CSRF tokens. Required, at least 32 bytes.
	CSRFKey []byte

	// CookieSecure marks session and CSRF cookies Secure. Enable behind TLS.
	CookieSecure bool

	// SessionTTL is how long an idle session survives. Defaults to 12h.
	SessionTTL time.Duration

	// DatabaseURL is the Postgres connection string for the audit log.
	// Empty keeps the audit log in memory.
	DatabaseURL string

	// Redis settings for the session store. Empty RedisAddr keeps sessions
	// in memory.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// MaxBodyBytes caps request bodies, uploads included. Defaults to 10 MiB.
	MaxBodyBytes int64

	// CatalogPath optionally replaces the embedded entity-kind catalog.
	CatalogPath string
}

const minCSRFKeyLen = 32

// Load reads configuration from environment variables and returns a Config.
// Returns an error listing any required variables that are not set, or
// any set to a value that cannot be parsed.
func Load() (Config, error) {
	cfg := Config{
		Port:          getEnv("PORT", "8080"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		CORSOrigins:   splitCSV(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		BackendToken:  os.Getenv("BACKEND_TOKEN"),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		CatalogPath:   os.Getenv("CATALOG_PATH"),
	}

	var missing, invalid []string

	cfg.BackendURL = os.Getenv("BACKEND_URL")
	if cfg.BackendURL == "" {
		missing = append(missing, "BACKEND_URL")
	}

	switch key := os.Getenv("CSRF_KEY"); {
	case key == "":
		missing = append(missing, "CSRF_KEY")
	case len(key) < minCSRFKeyLen:
		invalid = append(invalid, fmt.Sprintf("CSRF_KEY (must be at least %d bytes)", minCSRFKeyLen))
	default:
		cfg.CSRFKey = []byte(key)
	}

	var err error
	if cfg.BackendTimeout, err = time.ParseDuration(getEnv("BACKEND_TIMEOUT", "10s")); err != nil || cfg.BackendTimeout <= 0 {
		invalid = append(invalid, "BACKEND_TIMEOUT")
	}
	if cfg.SessionTTL, err = time.ParseDuration(getEnv("SESSION_TTL", "12h")); err != nil || cfg.SessionTTL <= 0 {
		invalid = append(invalid, "SESSION_TTL")
	}
	if cfg.CookieSecure, err = strconv.ParseBool(getEnv("COOKIE_SECURE", "false")); err != nil {
		invalid = append(invalid, "COOKIE_SECURE")
	}
	if cfg.RedisDB, err = strconv.Atoi(getEnv("REDIS_DB", "0")); err != nil || cfg.RedisDB < 0 {
		invalid = append(invalid, "REDIS_DB")
	}
	if cfg.MaxBodyBytes, err = strconv.ParseInt(getEnv("MAX_BODY_BYTES", "10485760"), 10, 64); err != nil || cfg.MaxBodyBytes <= 0 {
		invalid = append(invalid, "MAX_BODY_BYTES")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("required environment variables not set: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variables: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

// getEnv returns the value of the environment variable named by key,
// or fallback if the variable is not set or is empty.
func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// splitCSV splits a comma-separated string into a trimmed slice, ignoring empty entries.
func splitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}
