package app

import (
	"os"
	"strconv"
	"time"

	"github.com/konbase/konbase/internal/service"
	"github.com/konbase/konbase/pkg/jwtx"
)

type Config struct {
	Issuer          string // Issuer claim for session tokens (default: konbase)
	DBDriver        string // Store driver: postgres or sqlite (default: sqlite)
	DatabaseURL     string // Required for postgres: pgx connection string
	SQLiteFile      string // SQLite database file (default: ./konbase.db)
	ElevationSecret string // Shared secret for role elevation; empty disables elevation
	SigningKeyFile  string // Optional: PEM Ed25519 key; ephemeral when unset

	SessionTTL           time.Duration // Session token lifetime (default: 30 days)
	ReauthWindow         time.Duration // Step-up freshness window (default: 15m)
	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8080)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

func LoadConfig() Config {
	return Config{
		Issuer:          getEnvOrDefault("KONBASE_ISSUER", "konbase"),
		DBDriver:        getEnvOrDefault("KONBASE_DB_DRIVER", "sqlite"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		SQLiteFile:      getEnvOrDefault("KONBASE_SQLITE_FILE", "konbase.db"),
		ElevationSecret: os.Getenv("KONBASE_ELEVATION_SECRET"),
		SigningKeyFile:  os.Getenv("KONBASE_SIGNING_KEY_FILE"),

		SessionTTL:           getEnvDurationOrDefault("KONBASE_SESSION_TTL", jwtx.DefaultSessionTTL),
		ReauthWindow:         getEnvDurationOrDefault("KONBASE_REAUTH_WINDOW", service.DefaultReauthWindow),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod:  getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}
	// Bare integers are treated as minutes.
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}
	return defaultValue
}
