// Package config handles loading and validation of application configuration
// from environment variables. Supports .env files via godotenv.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultJWTSecret = "dev-secret-change-in-production"

// Storage backends
const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

// Config holds all application configuration
type Config struct {
	// Server settings
	Port        int
	Environment string // "development" | "staging" | "production"

	// Storage backend: "postgres" or "memory"
	Storage string

	// Database
	DatabaseURL      string
	DBConnectTimeout time.Duration
	AutoMigrate      bool
	SeedDefaultUsers bool

	// Security
	JWTSecret      string
	TokenTTL       time.Duration
	AllowedOrigins []string
	RateLimitRPM   int

	// Redis (leaderboard cache); empty disables caching
	RedisURL         string
	LeaderboardCache time.Duration

	// Uploaded images
	UploadDir      string
	MaxUploadBytes int64
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (development)
	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnvInt("PORT", 8080),
		Environment: getEnv("ENVIRONMENT", "development"),
		Storage:     getEnv("STORAGE", StoragePostgres),

		DatabaseURL:      getEnv("DATABASE_URL", ""),
		DBConnectTimeout: time.Duration(getEnvInt("DB_CONNECT_TIMEOUT_SECONDS", 10)) * time.Second,
		AutoMigrate:      getEnvBool("AUTO_MIGRATE", false),
		SeedDefaultUsers: getEnvBool("SEED_DEFAULT_USERS", false),

		JWTSecret:      getEnv("JWT_SECRET", defaultJWTSecret),
		TokenTTL:       time.Duration(getEnvInt("TOKEN_TTL_MINUTES", 12*60)) * time.Minute,
		AllowedOrigins: strings.Split(getEnv("ALLOWED_ORIGINS", "http://localhost:5173,http://localhost:3000"), ","),
		RateLimitRPM:   getEnvInt("RATE_LIMIT_RPM", 120),

		RedisURL:         getEnv("REDIS_URL", ""),
		LeaderboardCache: time.Duration(getEnvInt("LEADERBOARD_CACHE_SECONDS", 30)) * time.Second,

		UploadDir:      getEnv("UPLOAD_DIR", "uploads"),
		MaxUploadBytes: int64(getEnvInt("MAX_UPLOAD_MB", 10)) << 20,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field combinations that cannot work.
func (c *Config) Validate() error {
	switch c.Storage {
	case StoragePostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORAGE=postgres")
		}
	case StorageMemory:
		if c.Environment == "production" {
			return fmt.Errorf("STORAGE=memory is not allowed in production")
		}
	default:
		return fmt.Errorf("unknown STORAGE %q (want postgres or memory)", c.Storage)
	}

	// Validate required fields in production
	if c.Environment == "production" && c.JWTSecret == defaultJWTSecret {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("TOKEN_TTL_MINUTES must be positive")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return fallback
}
