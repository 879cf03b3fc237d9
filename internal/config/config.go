package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config carries service settings loaded from the environment.
type Config struct {
	Port        string
	Environment string
	LogLevel    slog.Level

	RedisURL string
	DataDir  string

	// EventDelay paces the reveal of consecutive timeline events.
	EventDelay time.Duration

	// AutoResolveBystanders enables the deprecated solo-drill policy of
	// auto-picking options for decision points addressed to other roles.
	AutoResolveBystanders bool
}

func Load() (*Config, error) {
	delaySeconds, err := strconv.Atoi(getEnv("EVENT_DELAY_SECONDS", "15"))
	if err != nil || delaySeconds < 0 {
		return nil, fmt.Errorf("invalid EVENT_DELAY_SECONDS: %q", os.Getenv("EVENT_DELAY_SECONDS"))
	}

	return &Config{
		Port:                  getEnv("PORT", "8080"),
		Environment:           getEnv("ENVIRONMENT", "development"),
		LogLevel:              parseLogLevel(getEnv("LOG_LEVEL", "info")),
		RedisURL:              getEnv("REDIS_URL", "localhost:6379"),
		DataDir:               getEnv("DATA_DIR", "./data"),
		EventDelay:            time.Duration(delaySeconds) * time.Second,
		AutoResolveBystanders: getEnv("AUTO_RESOLVE_BYSTANDERS", "false") == "true",
	}, nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
