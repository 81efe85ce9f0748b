// Package config loads the process-wide configuration once at startup.
//
// The Config struct is built in main and injected into the server — nothing
// reads environment variables after startup, and nothing mutates the config
// afterwards. A .env file in the working directory is honored if present
// (convenient for development); real environments set the variables
// directly.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the server needs to start.
type Config struct {
	Port            int
	DBPath          string
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// Load reads configuration from the environment, applying defaults for
// everything except JWT_SECRET, which has no safe default and must be set.
//
//	PORT               listen port               (default 8080)
//	DB_PATH            SQLite database file      (default data/contacts.db)
//	JWT_SECRET         token signing secret      (required, >= 16 chars)
//	ACCESS_TOKEN_TTL   access token lifetime     (default 15m)
//	REFRESH_TOKEN_TTL  refresh token lifetime    (default 168h)
func Load() (*Config, error) {
	// Missing .env is fine — it's a development convenience, not a
	// requirement.
	_ = godotenv.Load()

	cfg := &Config{
		Port:            8080,
		DBPath:          getEnvOrDefault("DB_PATH", "data/contacts.db"),
		JWTSecret:       os.Getenv("JWT_SECRET"),
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 7 * 24 * time.Hour,
	}

	if portStr := os.Getenv("PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, fmt.Errorf("config: invalid PORT %q: %w", portStr, err)
		}
		cfg.Port = port
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("config: JWT_SECRET must be set (try: openssl rand -hex 32)")
	}

	if ttl, err := durationEnv("ACCESS_TOKEN_TTL"); err != nil {
		return nil, err
	} else if ttl > 0 {
		cfg.AccessTokenTTL = ttl
	}
	if ttl, err := durationEnv("REFRESH_TOKEN_TTL"); err != nil {
		return nil, err
	} else if ttl > 0 {
		cfg.RefreshTokenTTL = ttl
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func durationEnv(key string) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("config: invalid %s %q: %w", key, v, err)
	}
	return d, nil
}
