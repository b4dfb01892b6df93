package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the application
type Config struct {
	Port           string
	AllowedOrigins []string
	LogLevel       string
	Environment    string
	DatabaseURL    string
	RedisURL       string
	JWTSecret      string
	JWTTTL         time.Duration

	// Read tracking
	DedupWindow time.Duration // window in which repeat reads from the same identity count once
	TrackQueue  int           // in-flight background tracking task bound
	TrackWorker int           // background tracking worker count

	// Daily aggregation
	AggregationRunAt string // HH:MM in UTC
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:             getEnv("PORT", "8080"),
		AllowedOrigins:   parseOrigins(getEnv("ALLOWED_ORIGINS", "http://localhost:5173")),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		Environment:      getEnv("ENVIRONMENT", "production"),
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		RedisURL:         getEnv("REDIS_URL", ""),
		JWTSecret:        getEnv("JWT_SECRET", ""),
		JWTTTL:           time.Duration(getIntEnv("JWT_TTL_HOURS", 24)) * time.Hour,
		DedupWindow:      time.Duration(getIntEnv("DEDUP_WINDOW_SECONDS", 60)) * time.Second,
		TrackQueue:       getIntEnv("TRACK_QUEUE_SIZE", 1024),
		TrackWorker:      getIntEnv("TRACK_WORKERS", 4),
		AggregationRunAt: getEnv("AGGREGATION_RUN_AT", "00:05"),
	}

	if _, _, err := ParseRunAt(cfg.AggregationRunAt); err != nil {
		return nil, fmt.Errorf("invalid AGGREGATION_RUN_AT: %w", err)
	}

	return cfg, nil
}

// ParseRunAt parses an HH:MM clock time into hour and minute
func ParseRunAt(value string) (hour, minute int, err error) {
	parts := strings.SplitN(value, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("expected HH:MM, got %q", value)
	}

	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", value)
	}

	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", value)
	}

	return hour, minute, nil
}

// getEnv gets an environment variable with a fallback value
func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getIntEnv gets an integer environment variable with a fallback value
func getIntEnv(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

// parseOrigins parses comma-separated origins into a slice
func parseOrigins(origins string) []string {
	if origins == "" {
		return []string{}
	}

	parts := strings.Split(origins, ",")
	result := make([]string, 0, len(parts))

	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
