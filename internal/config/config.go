// Package config provides application configuration through environment variables.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/allisson/go-env"
	"github.com/joho/godotenv"
)

// Config holds all application configuration.
type Config struct {
	// ServerHost is the host address the server will bind to.
	ServerHost string
	// ServerPort is the port number the server will listen on.
	ServerPort int

	// LogLevel is the logging level (e.g., "debug", "info", "warn", "error").
	LogLevel string

	// StorageDir is the directory holding secrets.json and api-keys.json.
	StorageDir string
	// SaveTimeout bounds every credential table persistence write.
	SaveTimeout time.Duration

	// TokenSigningSecret is the externally supplied secret used to sign session
	// tokens. When empty, a random secret is generated at startup and all
	// tokens are invalidated on restart.
	TokenSigningSecret string
	// TokenTTL is the lifetime of issued session tokens.
	TokenTTL time.Duration

	// KMSKeyURI is the gocloud.dev keeper URI used to wrap the at-rest
	// encryption key (e.g., "hashivault://keyname"). Empty disables wrapping.
	KMSKeyURI string

	// LockoutMaxAttempts is the number of failed validations before a lockout.
	LockoutMaxAttempts int
	// LockoutDuration is how long an identifier stays locked.
	LockoutDuration time.Duration

	// RateLimitEnabled indicates whether rate limiting for authenticated endpoints is enabled.
	RateLimitEnabled bool
	// RateLimitRequestsPerSec is the number of requests allowed per second per principal.
	RateLimitRequestsPerSec float64
	// RateLimitBurst is the burst size for authenticated endpoints rate limiting.
	RateLimitBurst int

	// CORSEnabled indicates whether CORS is enabled.
	CORSEnabled bool
	// CORSAllowOrigins is a comma-separated list of allowed origins for CORS.
	CORSAllowOrigins string

	// MetricsEnabled indicates whether metrics collection is enabled.
	MetricsEnabled bool
	// MetricsNamespace is the namespace for the application metrics.
	MetricsNamespace string
	// MetricsPort is the port number for the metrics server.
	MetricsPort int
}

// Load loads configuration from environment variables and .env file.
func Load() *Config {
	// Try to load .env file recursively
	loadDotEnv()

	return &Config{
		// Server configuration
		ServerHost: env.GetString("SERVER_HOST", "0.0.0.0"),
		ServerPort: env.GetInt("SERVER_PORT", 8080),

		// Logging
		LogLevel: env.GetString("LOG_LEVEL", "info"),

		// Storage
		StorageDir:  env.GetString("STORAGE_DIR", "./data"),
		SaveTimeout: env.GetDuration("SAVE_TIMEOUT_SECONDS", 5, time.Second),

		// Session tokens
		TokenSigningSecret: env.GetString("TOKEN_SIGNING_SECRET", ""),
		TokenTTL:           env.GetDuration("TOKEN_TTL_SECONDS", 3600, time.Second),

		// KMS configuration
		KMSKeyURI: env.GetString("KMS_KEY_URI", ""),

		// Account Lockout
		LockoutMaxAttempts: env.GetInt("LOCKOUT_MAX_ATTEMPTS", 5),
		LockoutDuration:    env.GetDuration("LOCKOUT_DURATION_MINUTES", 15, time.Minute),

		// Rate Limiting (authenticated endpoints)
		RateLimitEnabled:        env.GetBool("RATE_LIMIT_ENABLED", true),
		RateLimitRequestsPerSec: env.GetFloat64("RATE_LIMIT_REQUESTS_PER_SEC", 10.0),
		RateLimitBurst:          env.GetInt("RATE_LIMIT_BURST", 20),

		// CORS
		CORSEnabled:      env.GetBool("CORS_ENABLED", false),
		CORSAllowOrigins: env.GetString("CORS_ALLOW_ORIGINS", ""),

		// Metrics
		MetricsEnabled:   env.GetBool("METRICS_ENABLED", true),
		MetricsNamespace: env.GetString("METRICS_NAMESPACE", "cloudview"),
		MetricsPort:      env.GetInt("METRICS_PORT", 8081),
	}
}

// GetGinMode returns the appropriate Gin mode based on log level.
func (c *Config) GetGinMode() string {
	switch c.LogLevel {
	case "debug":
		return "debug"
	case "info", "warn", "error":
		return "release"
	default:
		return "release"
	}
}

// loadDotEnv searches for a .env file recursively from the current directory
// up to the root directory and loads it if found.
func loadDotEnv() {
	// Get current working directory
	cwd, err := os.Getwd()
	if err != nil {
		return
	}

	// Search for .env file recursively up the directory tree
	dir := cwd
	for {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			// .env file found, load it
			_ = godotenv.Load(envPath)
			return
		}

		// Move to parent directory
		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root directory
			break
		}
		dir = parent
	}
}
