package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const envPrefix = "WIDGET_STUDIO_"

type Config struct {
	// Server
	APIPort     int
	FrontendURL string

	// Database
	DatabaseDriver string
	DatabasePath   string

	// Rendering
	ConfigCacheTTL    time.Duration
	RenderLoadTimeout time.Duration
	SessionTTL        time.Duration
	BreakpointSet     string

	// Background work
	RepairSchedule string
	TrackingBuffer int

	// Cross-instance events; empty address disables Redis.
	RedisAddr    string
	RedisChannel string

	LogLevel string
	LogJSON  bool
}

// Load reads the configuration from the environment. A .env file in the
// working directory is read first; variables already set win over it.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		APIPort:           getEnvInt("API_PORT", 8080),
		FrontendURL:       getEnv("FRONTEND_URL", "http://localhost:5173"),
		DatabaseDriver:    strings.ToLower(getEnv("DATABASE_DRIVER", "duckdb")),
		DatabasePath:      getEnv("DATABASE_PATH", "./data/widget-studio.duckdb"),
		ConfigCacheTTL:    getEnvDuration("CONFIG_CACHE_TTL", 5*time.Minute),
		RenderLoadTimeout: getEnvDuration("RENDER_LOAD_TIMEOUT", 750*time.Millisecond),
		SessionTTL:        getEnvDuration("SESSION_TTL", 30*time.Minute),
		BreakpointSet:     getEnv("BREAKPOINT_SET", "standard"),
		RepairSchedule:    getEnv("REPAIR_SCHEDULE", "@every 1m"),
		TrackingBuffer:    getEnvInt("TRACKING_BUFFER", 1024),
		RedisAddr:         getEnv("REDIS_ADDR", ""),
		RedisChannel:      getEnv("REDIS_CHANNEL", "widget-studio"),
		LogLevel:          strings.ToUpper(getEnv("LOG_LEVEL", "INFO")),
		LogJSON:           getEnvBool("LOG_JSON", true),
	}
}

// Validate rejects values the server cannot start with.
func (c *Config) Validate() error {
	switch c.DatabaseDriver {
	case "duckdb", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q (use duckdb or sqlite)", c.DatabaseDriver)
	}
	switch strings.ToLower(c.BreakpointSet) {
	case "standard", "compact":
	default:
		return fmt.Errorf("unknown breakpoint set %q (use standard or compact)", c.BreakpointSet)
	}
	if c.APIPort <= 0 || c.APIPort > 65535 {
		return fmt.Errorf("invalid API port %d", c.APIPort)
	}
	if c.TrackingBuffer <= 0 {
		return fmt.Errorf("tracking buffer must be positive, got %d", c.TrackingBuffer)
	}
	return nil
}

// RedisEnabled reports whether cross-instance events should use Redis.
func (c *Config) RedisEnabled() bool {
	return c.RedisAddr != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(envPrefix + key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(envPrefix + key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(envPrefix + key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(envPrefix + key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
