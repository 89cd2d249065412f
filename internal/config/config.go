// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all service configuration.
type Config struct {
	Service ServiceConfig
	Server  ServerConfig
	Sheets  SheetsConfig
	Slack   SlackConfig
	Roster  RosterConfig
}

// ServiceConfig identifies the running service.
type ServiceConfig struct {
	Name        string
	Version     string
	Environment string
	LogLevel    string
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// SheetsConfig locates the backing spreadsheet and its tabs.
type SheetsConfig struct {
	SpreadsheetID   string
	RequestsTab     string
	RosterTab       string
	AuditTab        string
	CredentialsPath string
	TokenPath       string
}

// SlackConfig holds the chat notification settings. An empty token
// disables notifications entirely.
type SlackConfig struct {
	Token          string
	ChannelID      string
	MatchThreshold int
}

// RosterConfig controls the roster snapshot refresh policy.
type RosterConfig struct {
	TTL time.Duration
}

// Load reads configuration from environment variables, applying defaults.
func Load() (*Config, error) {
	cfg := &Config{
		Service: ServiceConfig{
			Name:        getEnv("SERVICE_NAME", "purchase-tracker"),
			Version:     getEnv("SERVICE_VERSION", "dev"),
			Environment: getEnv("ENVIRONMENT", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
		},
		Server: ServerConfig{
			Port:            getEnvInt("HTTP_PORT", 8080),
			ReadTimeout:     getEnvDuration("HTTP_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:    getEnvDuration("HTTP_WRITE_TIMEOUT", 15*time.Second),
			IdleTimeout:     getEnvDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Sheets: SheetsConfig{
			SpreadsheetID:   os.Getenv("SPREADSHEET_ID"),
			RequestsTab:     getEnv("REQUESTS_TAB", "Requests"),
			RosterTab:       getEnv("ROSTER_TAB", "Permissions"),
			AuditTab:        getEnv("AUDIT_TAB", "Audit Log"),
			CredentialsPath: getEnv("GOOGLE_CREDENTIALS_PATH", "credentials.json"),
			TokenPath:       getEnv("GOOGLE_TOKEN_PATH", "token.json"),
		},
		Slack: SlackConfig{
			Token:          os.Getenv("SLACK_TOKEN"),
			ChannelID:      os.Getenv("SLACK_CHANNEL_ID"),
			MatchThreshold: getEnvInt("SLACK_MATCH_THRESHOLD", 3),
		},
		Roster: RosterConfig{
			TTL: getEnvDuration("ROSTER_TTL", 5*time.Minute),
		},
	}

	if cfg.Sheets.SpreadsheetID == "" {
		return nil, fmt.Errorf("SPREADSHEET_ID is required")
	}
	if cfg.Slack.Token != "" && cfg.Slack.ChannelID == "" {
		return nil, fmt.Errorf("SLACK_CHANNEL_ID is required when SLACK_TOKEN is set")
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

// getEnvInt gets an environment variable as int or returns a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if result, err := strconv.Atoi(value); err == nil {
			return result
		}
	}
	return defaultValue
}

// getEnvDuration gets an environment variable as a duration or returns a
// default value
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if result, err := time.ParseDuration(value); err == nil {
			return result
		}
	}
	return defaultValue
}
