package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	Environment              string
	ServerPort               int
	LogLevel                 string
	RedisURL                 string
	Database                 Database
	ReconcileIntervalMinutes int
	AssetLockTTL             time.Duration
	CORSAllowedOrigins       []string
	RateLimitPerMinute       int
}

// Database holds the PostgreSQL connection settings
type Database struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	port, err := intEnv("SERVER_PORT", 8080)
	if err != nil {
		return nil, err
	}

	dbPort, err := intEnv("DB_PORT", 5432)
	if err != nil {
		return nil, err
	}

	reconcileInterval, err := intEnv("RECONCILE_INTERVAL_MINUTES", 5)
	if err != nil {
		return nil, err
	}

	lockTTLSeconds, err := intEnv("ASSET_LOCK_TTL_SECONDS", 10)
	if err != nil {
		return nil, err
	}

	rateLimit, err := intEnv("RATE_LIMIT_PER_MINUTE", 120)
	if err != nil {
		return nil, err
	}

	return &Config{
		Environment: getEnv("ENVIRONMENT", "development"),
		ServerPort:  port,
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		RedisURL:    getEnv("REDIS_URL", "redis://localhost:6379"),
		Database: Database{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("DB_USER", "assetlease"),
			Password: getEnv("DB_PASSWORD", "dev"),
			Name:     getEnv("DB_NAME", "assetlease"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		ReconcileIntervalMinutes: reconcileInterval,
		AssetLockTTL:             time.Duration(lockTTLSeconds) * time.Second,
		CORSAllowedOrigins: parseCSVEnv("CORS_ALLOWED_ORIGINS", []string{
			"http://localhost:5173",
			"http://localhost:3000",
		}),
		RateLimitPerMinute: rateLimit,
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func intEnv(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return v, nil
}

func parseCSVEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}
