// Package config loads server configuration from the environment, with an
// optional .env file for local development.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the server needs to start.
type Config struct {
	// Port is the HTTP listen port.
	Port int

	// DBPath is the SQLite database file.
	DBPath string

	// StaticPath is the directory holding the built frontend.
	StaticPath string

	// JWTSecret signs session tokens. Required outside development.
	JWTSecret string

	// TokenTTL is how long session tokens stay valid.
	TokenTTL time.Duration
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file found, using system environment")
	}

	cfg := &Config{
		Port:       8080,
		DBPath:     getEnv("DB_PATH", "./data/circles.db"),
		StaticPath: getEnv("STATIC_PATH", "../frontend/dist"),
		JWTSecret:  os.Getenv("JWT_SECRET"),
		TokenTTL:   24 * time.Hour,
	}

	if port := os.Getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT %q: %w", port, err)
		}
		cfg.Port = p
	}

	if ttl := os.Getenv("TOKEN_TTL"); ttl != "" {
		d, err := time.ParseDuration(ttl)
		if err != nil {
			return nil, fmt.Errorf("invalid TOKEN_TTL %q: %w", ttl, err)
		}
		cfg.TokenTTL = d
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
