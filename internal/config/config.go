package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/ljungman/calendard/internal/domain"
)

type Config struct {
	StoreType          string
	DatabaseURL        string
	StoreURL           string
	BindAddress        string
	UnixSocketPath     string
	RequireBearerToken bool
	BearerToken        string
	NotifyInterval     time.Duration
	ExpandHorizon      string
	LogLevel           string
}

// Load reads configuration from the environment, after merging in a .env
// file when one exists in the working directory.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		StoreType:          getenvDefault("CALD_STORE", "memory"),
		DatabaseURL:        strings.TrimSpace(os.Getenv("CALD_DATABASE_URL")),
		StoreURL:           strings.TrimSpace(os.Getenv("CALD_STORE_URL")),
		BindAddress:        getenvDefault("CALD_BIND_ADDRESS", "127.0.0.1:8324"),
		UnixSocketPath:     strings.TrimSpace(os.Getenv("CALD_UNIX_SOCKET")),
		RequireBearerToken: getenvBool("CALD_REQUIRE_TOKEN", false),
		BearerToken:        strings.TrimSpace(os.Getenv("CALD_BEARER_TOKEN")),
		NotifyInterval:     getenvDuration("CALD_NOTIFY_INTERVAL", time.Minute),
		ExpandHorizon:      strings.TrimSpace(os.Getenv("CALD_EXPAND_HORIZON")),
		LogLevel:           getenvDefault("CALD_LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.StoreType {
	case "memory":
	case "postgres":
		if c.DatabaseURL == "" {
			return errors.New("CALD_DATABASE_URL is required when store=postgres")
		}
	case "http":
		if c.StoreURL == "" {
			return errors.New("CALD_STORE_URL is required when store=http")
		}
	default:
		return fmt.Errorf("invalid store type: %s", c.StoreType)
	}
	if c.BindAddress == "" && c.UnixSocketPath == "" {
		return errors.New("either bind address or unix socket path must be configured")
	}
	if c.RequireBearerToken && c.BearerToken == "" {
		return errors.New("CALD_BEARER_TOKEN is required when token auth is enabled")
	}
	if c.NotifyInterval <= 0 {
		return errors.New("notify interval must be > 0")
	}
	if c.ExpandHorizon != "" {
		if _, err := time.Parse(domain.DateLayout, c.ExpandHorizon); err != nil {
			return fmt.Errorf("invalid expand horizon: %s", c.ExpandHorizon)
		}
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.LogLevel)
	}
	return nil
}

func getenvDefault(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func getenvBool(key string, fallback bool) bool {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	parsed, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}
