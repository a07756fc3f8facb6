package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the sync client.
// The values are loaded from environment variables.
type AppConfig struct {
	// Core settings
	ServerURL      string
	LogLevel       string
	TokenStorePath string

	// OAuth settings
	OAuthClientID string

	// Alert settings
	AlertExpiry          time.Duration
	AlertCleanupInterval time.Duration

	// Outbound request throttle, requests per second. Zero disables it.
	RequestsPerSecond float64
}

// Cfg is a global instance of the AppConfig.
var Cfg *AppConfig

// LoadConfig loads configuration from environment variables or a .env file.
// It centralizes all configuration logic for the client.
func LoadConfig() {
	// 1. Try loading from the current directory (standard behavior)
	errEnv := godotenv.Load()

	// 2. If not found, try loading from the parent directory
	if errEnv != nil {
		errEnv = godotenv.Load("../.env")
	}

	if errEnv != nil {
		if os.IsNotExist(errEnv) {
			log.Println("Info: No .env file found. Relying on OS environment variables.")
		} else {
			log.Printf("Warning: Error loading .env file: %v. Relying on OS environment variables.", errEnv)
		}
	} else {
		log.Println(".env file loaded successfully.")
	}

	serverURL := getEnv("SERVER_URL", "http://localhost:8080/")
	if !strings.HasSuffix(serverURL, "/") {
		serverURL += "/"
	}

	Cfg = &AppConfig{
		ServerURL:      serverURL,
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		TokenStorePath: getEnv("TOKEN_STORE_PATH", "./finsync.db"),

		OAuthClientID: getEnv("OAUTH_CLIENT_ID", "finsync-web"),

		AlertExpiry:          getEnvAsDuration("ALERT_EXPIRY", 30*time.Second),
		AlertCleanupInterval: getEnvAsDuration("ALERT_CLEANUP_INTERVAL", time.Second),

		RequestsPerSecond: getEnvAsFloat("REQUESTS_PER_SECOND", 0),
	}

	log.Printf("Configuration loaded: ServerURL=%s, LogLevel=%s, TokenStorePath=%s",
		Cfg.ServerURL, Cfg.LogLevel, Cfg.TokenStorePath)
}

// getEnv retrieves an environment variable or returns a fallback value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

// getEnvAsDuration retrieves an environment variable as a time.Duration or returns a fallback.
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	log.Printf("Invalid duration value for %s ('%s'), using default: %s", key, valueStr, fallback.String())
	return fallback
}

// getEnvAsFloat retrieves an environment variable as a float64 or returns a fallback.
func getEnvAsFloat(key string, fallback float64) float64 {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	log.Printf("Invalid numeric value for %s ('%s'), using default: %g", key, valueStr, fallback)
	return fallback
}
