package app

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/open-science-archive/osa-go/pkg/jwtx"
)

type Config struct {
	NodeID string // SRN node segment for resources minted here (default: osa-dev)
	Issuer string // Issuer claim for access tokens (default: osa-mock)

	KeyFile   string // Optional: path to the Ed25519 signing key; empty means ephemeral
	KeySecret string // Optional: secret that encrypts the key file at rest

	DatabaseFile string // Path to the SQLite database file, ":memory:" for none (default: ./osa-mock.db)

	AccessTTL  time.Duration // Access token lifetime
	RefreshTTL time.Duration // Refresh token lifetime

	Providers       []string // Identity providers /auth/login accepts
	DefaultRedirect string   // Frontend URL that receives the auth fragment
	Seed            bool     // Seed dev users, conventions and a published record on first start

	Env                  string        // Environment (dev, staging, prod) (default: dev)
	LogLevel             string        // Log level (debug, info, warn, error) (default: info)
	LogFormat            string        // Log format (json, text) (default: json)
	Port                 int           // HTTP server port (default: 8000)
	ShutdownGracePeriod  time.Duration // Graceful shutdown timeout (default: 10s)
	HousekeepingInterval time.Duration // Expired-token sweep interval (default: 1h)
}

func LoadConfig() Config {
	return Config{
		NodeID:               getEnvOrDefault("OSA_MOCK_NODE_ID", "osa-dev"),
		Issuer:               getEnvOrDefault("OSA_MOCK_ISSUER", "osa-mock"),
		KeyFile:              os.Getenv("OSA_MOCK_KEY_FILE"),
		KeySecret:            os.Getenv("OSA_MOCK_KEY_SECRET"),
		DatabaseFile:         getEnvOrDefault("OSA_MOCK_DB", "osa-mock.db"),
		AccessTTL:            getEnvDurationOrDefault("OSA_MOCK_ACCESS_TTL", jwtx.DefaultAccessTokenTTL),
		RefreshTTL:           getEnvDurationOrDefault("OSA_MOCK_REFRESH_TTL", jwtx.DefaultRefreshTokenTTL),
		Providers:            splitList(getEnvOrDefault("OSA_MOCK_PROVIDERS", "orcid,github")),
		DefaultRedirect:      getEnvOrDefault("OSA_MOCK_REDIRECT", "http://localhost:3000/auth/callback"),
		Seed:                 getEnvBoolOrDefault("OSA_MOCK_SEED", true),
		Env:                  getEnvOrDefault("ENV", "dev"),
		LogLevel:             getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:            getEnvOrDefault("LOG_FORMAT", "json"),
		Port:                 getEnvIntOrDefault("OSA_MOCK_PORT", 8000),
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

func getEnvBoolOrDefault(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if boolValue, err := strconv.ParseBool(value); err == nil {
		return boolValue
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

	return defaultValue
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
