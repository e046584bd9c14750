package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// Config captures runtime configuration, loaded from the environment.
type Config struct {
	Port         string
	Environment  string
	LogLevel     string
	DatabasePath string
	BaseURL      string
	TrustProxy   bool

	MaxPasteSize int
	IDLength     int
	DefaultTTL   time.Duration

	ReapInterval   time.Duration
	ListLimit      int
	ExpiringWindow time.Duration
}

// Load reads configuration from the environment, applying defaults.
func Load() (*Config, error) {
	c := &Config{}
	c.Port = getEnv("PORT", "8080")
	c.Environment = getEnv("ENVIRONMENT", "development")
	c.LogLevel = getEnv("LOG_LEVEL", "info")
	c.DatabasePath = getEnv("DATABASE_PATH", "pastebin.db")
	c.BaseURL = getEnv("BASE_URL", "")
	c.TrustProxy = getEnv("TRUST_PROXY", "false") == "true"

	var err error
	c.MaxPasteSize, err = getInt("MAX_PASTE_SIZE", 1_048_576)
	if err != nil {
		return nil, err
	}
	c.IDLength, err = getInt("ID_LENGTH", 8)
	if err != nil {
		return nil, err
	}
	c.DefaultTTL, err = getDuration("DEFAULT_TTL", time.Hour)
	if err != nil {
		return nil, err
	}
	c.ReapInterval, err = getDuration("REAP_INTERVAL", 10*time.Minute)
	if err != nil {
		return nil, err
	}
	c.ListLimit, err = getInt("LIST_LIMIT", 20)
	if err != nil {
		return nil, err
	}
	c.ExpiringWindow, err = getDuration("EXPIRING_WINDOW", 10*time.Minute)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks invariants the rest of the process relies on.
func Validate(c *Config) error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		return errors.New("PORT must be a number")
	}
	if c.DatabasePath == "" {
		return errors.New("DATABASE_PATH is required")
	}
	if c.MaxPasteSize <= 0 {
		return errors.New("MAX_PASTE_SIZE must be positive")
	}
	if c.IDLength < 4 || c.IDLength > 64 {
		return errors.New("ID_LENGTH must be between 4 and 64")
	}
	if c.DefaultTTL <= 0 {
		return errors.New("DEFAULT_TTL must be positive")
	}
	if c.ReapInterval < time.Second {
		return errors.New("REAP_INTERVAL must be at least 1s")
	}
	if c.ListLimit <= 0 {
		return errors.New("LIST_LIMIT must be positive")
	}
	if c.ExpiringWindow <= 0 {
		return errors.New("EXPIRING_WINDOW must be positive")
	}
	if c.BaseURL != "" {
		u, err := url.Parse(c.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return errors.New("BASE_URL must include scheme and host")
		}
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) (int, error) {
	s := getEnv(key, "")
	if s == "" {
		return fallback, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid integer for %s: %w", key, err)
	}
	return v, nil
}

func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	s := getEnv(key, "")
	if s == "" {
		return fallback, nil
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration for %s: %w", key, err)
	}
	return v, nil
}
