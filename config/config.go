package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds every runtime parameter of the engine.
type Config struct {
	DatabaseURL              string
	ServerPort               int
	LargeTournamentThreshold int
	SchedulerInterval        time.Duration
}

// Load reads configuration from environment variables, optionally pulling a
// .env file first. A missing .env file is not an error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	portStr := os.Getenv("SERVER_PORT")
	if portStr == "" {
		portStr = "8080"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT environment variable: %w", err)
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	threshold, err := intFromEnv("LARGE_TOURNAMENT_THRESHOLD", 128)
	if err != nil {
		return nil, err
	}
	if threshold <= 0 {
		return nil, fmt.Errorf("LARGE_TOURNAMENT_THRESHOLD must be positive, got %d", threshold)
	}

	intervalSeconds, err := intFromEnv("SCHEDULER_INTERVAL_SECONDS", 30)
	if err != nil {
		return nil, err
	}
	if intervalSeconds <= 0 {
		return nil, fmt.Errorf("SCHEDULER_INTERVAL_SECONDS must be positive, got %d", intervalSeconds)
	}

	return &Config{
		DatabaseURL:              dbURL,
		ServerPort:               port,
		LargeTournamentThreshold: threshold,
		SchedulerInterval:        time.Duration(intervalSeconds) * time.Second,
	}, nil
}

func intFromEnv(key string, fallback int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return value, nil
}
