package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Port string
	Env  string // "production" enables the Secure cookie flag

	// Database configuration
	DBType            string // mysql, postgres, sqlite, sqlserver, etc.
	DBHost            string
	DBPort            string
	DBDatabase        string
	DBUser            string
	DBPassword        string
	DBConnectionLimit int

	// Session configuration
	SessionTTL time.Duration

	// Gateway configuration
	GatewaySecret   string // signs upstream identity assertions
	UpstreamBase    string // default backend base address
	UpstreamTimeout time.Duration
	RoutesFile      string // optional, embedded default table when empty

	// Optional bootstrap admin account, created at startup when set
	AdminUsername string
	AdminPassword string
}

// CookieSecure reports whether session cookies must carry the Secure flag.
func (c *Config) CookieSecure() bool {
	return c.Env == "production"
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		Port:              getEnv("PORT", "3000"),
		Env:               getEnv("APP_ENV", "development"),
		DBType:            getEnv("DB_TYPE", "mysql"),
		DBHost:            getEnv("DB_HOST", "localhost"),
		DBPort:            getEnv("DB_PORT", "3306"),
		DBDatabase:        getEnv("DB_DATABASE", ""),
		DBUser:            getEnv("DB_USER", ""),
		DBPassword:        getEnv("DB_PASSWORD", ""),
		DBConnectionLimit: getEnvAsInt("DB_CONNECTION_LIMIT", 5),
		SessionTTL:        time.Duration(getEnvAsInt("SESSION_TTL_MINUTES", 1440)) * time.Minute,
		GatewaySecret:     getEnv("GATEWAY_SECRET", ""),
		UpstreamBase:      getEnv("UPSTREAM_BASE", ""),
		UpstreamTimeout:   time.Duration(getEnvAsInt("UPSTREAM_TIMEOUT_SECONDS", 30)) * time.Second,
		RoutesFile:        getEnv("ROUTES_FILE", ""),
		AdminUsername:     getEnv("ADMIN_USERNAME", ""),
		AdminPassword:     getEnv("ADMIN_PASSWORD", ""),
	}

	// Validate required fields
	if cfg.DBDatabase == "" {
		return nil, fmt.Errorf("DB_DATABASE is required")
	}
	if cfg.DBType != "sqlite" && cfg.DBUser == "" {
		return nil, fmt.Errorf("DB_USER is required")
	}
	if cfg.GatewaySecret == "" {
		return nil, fmt.Errorf("GATEWAY_SECRET is required")
	}
	if cfg.UpstreamBase == "" {
		return nil, fmt.Errorf("UPSTREAM_BASE is required")
	}

	return cfg, nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt gets an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
