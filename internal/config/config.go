package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the service reads from the environment. All
// variables carry the IDHUB_ prefix; a .env file is honored in dev.
type Config struct {
	Addr        string
	PGDSN       string
	AuthSecret  string
	TokenIssuer string
	TokenTTL    time.Duration

	RateBurst  int
	RatePerSec int

	// EnforceGrantExpiry drops expired role grants during login resolution.
	// Defaults to false to match the observed behavior of the system this
	// replaces; flip it once the product confirms expiry should bite.
	EnforceGrantExpiry bool
}

// Load reads configuration from the environment.
func Load() Config {
	if os.Getenv("IDHUB_ENV") == "dev" {
		_ = godotenv.Load()
	}
	return Config{
		Addr:               getEnv("IDHUB_ADDR", ":8080"),
		PGDSN:              getEnv("IDHUB_PG_DSN", ""),
		AuthSecret:         getEnv("IDHUB_AUTH_SECRET", ""),
		TokenIssuer:        getEnv("IDHUB_TOKEN_ISSUER", "idhub"),
		TokenTTL:           getEnvDuration("IDHUB_TOKEN_TTL", 24*time.Hour),
		RateBurst:          getEnvInt("IDHUB_RATE_BURST", 20),
		RatePerSec:         getEnvInt("IDHUB_RATE_PER_SEC", 10),
		EnforceGrantExpiry: getEnvBool("IDHUB_ENFORCE_GRANT_EXPIRY", false),
	}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := time.ParseDuration(value); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}
