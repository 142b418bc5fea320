package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds server configuration
type Config struct {
	ServerPort             string
	DatabaseType           string
	DatabasePath           string
	DatabaseURL            string
	SessionDuration        time.Duration
	SessionBackend         string
	SessionCleanupInterval time.Duration
	RedisAddr              string
	RedisPassword          string
	AdminUsername          string
	AdminPassword          string
	AdminEmail             string
}

// ClientConfig holds configuration for the API client
type ClientConfig struct {
	Endpoints []string
	Dev       bool
	DevURL    string
	Timeout   time.Duration
	TokenFile string
}

// Load reads configuration from environment variables with sensible defaults.
// A .env file in the working directory is applied first when present.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServerPort:             getEnv("PORT", "8787"),
		DatabaseType:           getEnv("DB_TYPE", "sqlite"),
		DatabasePath:           getEnv("DB_PATH", "./attendance.db"),
		DatabaseURL:            getEnv("DATABASE_URL", ""),
		SessionDuration:        getEnvDuration("SESSION_DURATION", 24*time.Hour),
		SessionBackend:         strings.ToLower(getEnv("SESSION_BACKEND", "sql")),
		SessionCleanupInterval: getEnvDuration("SESSION_CLEANUP_INTERVAL", time.Hour),
		RedisAddr:              getEnv("REDIS_ADDR", ""),
		RedisPassword:          getEnv("REDIS_PASSWORD", ""),
		AdminUsername:          getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword:          getEnv("ADMIN_PASSWORD", "admin123"),
		AdminEmail:             getEnv("ADMIN_EMAIL", "admin@school.local"),
	}
}

// LoadClient reads the client configuration. Endpoints are tried in the order given.
func LoadClient() *ClientConfig {
	_ = godotenv.Load()

	return &ClientConfig{
		Endpoints: splitList(getEnv("ATTENDANCE_API_ENDPOINTS", "")),
		Dev:       getEnvBool("ATTENDANCE_DEV", false),
		DevURL:    getEnv("ATTENDANCE_DEV_URL", "http://localhost:8787"),
		Timeout:   getEnvDuration("ATTENDANCE_TIMEOUT", 10*time.Second),
		TokenFile: getEnv("ATTENDANCE_TOKEN_FILE", defaultTokenFile()),
	}
}

// getEnv reads an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	if val := os.Getenv(key + "_SECONDS"); val != "" {
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, strings.TrimRight(part, "/"))
		}
	}
	return out
}

func defaultTokenFile() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".attendctl-session.json"
	}
	return dir + string(os.PathSeparator) + "attendctl" + string(os.PathSeparator) + "session.json"
}
