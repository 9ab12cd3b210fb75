package config

import (
	"os"
	"strings"
	"time"

	"lector-reader/internal/domain"
)

const (
	defaultProgressMaxAccrual = 2 * time.Minute
	defaultReaderDebounce     = 500 * time.Millisecond
	defaultReaderHeartbeat    = 30 * time.Second
)

var defaultAllowedOrigins = []string{
	"http://localhost:5173",
	"http://localhost:4173",
	"http://localhost:3000",
}

// AppConfig implements the domain.Config interface
type AppConfig struct {
	ServerPort             string
	LogLevel               string
	SupabaseURL            string
	SupabaseKey            string
	SupabaseServiceRoleKey string
	AdminSecret            string
	AllowedOrigins         []string
	ProgressMaxAccrual     time.Duration

	APIURL          string
	APIToken        string
	ReaderDebounce  time.Duration
	ReaderHeartbeat time.Duration
}

// NewConfig creates a new configuration instance with default values
func NewConfig() domain.Config {
	return &AppConfig{
		// Cloud Run (and many PaaS) provide the listening port via PORT.
		// Keep SERVER_PORT for local/dev compatibility.
		ServerPort:             getEnvOrDefault("PORT", getEnvOrDefault("SERVER_PORT", "8080")),
		LogLevel:               getEnvOrDefault("LOG_LEVEL", "info"),
		SupabaseURL:            getEnvOrDefault("SUPABASE_URL", ""),
		SupabaseKey:            getEnvOrDefault("SUPABASE_ANON_KEY", ""),
		SupabaseServiceRoleKey: getEnvOrDefault("SUPABASE_SERVICE_ROLE_KEY", ""),
		AdminSecret:            getEnvOrDefault("ADMIN_API_SECRET", ""),
		AllowedOrigins:         getEnvListOrDefault("ALLOWED_ORIGINS", defaultAllowedOrigins),
		ProgressMaxAccrual:     getEnvDurationOrDefault("PROGRESS_MAX_ACCRUAL", defaultProgressMaxAccrual),

		APIURL:          strings.TrimRight(getEnvOrDefault("LECTOR_API_URL", "http://localhost:8080"), "/"),
		APIToken:        getEnvOrDefault("LECTOR_TOKEN", ""),
		ReaderDebounce:  getEnvDurationOrDefault("READER_DEBOUNCE", defaultReaderDebounce),
		ReaderHeartbeat: getEnvDurationOrDefault("READER_HEARTBEAT", defaultReaderHeartbeat),
	}
}

// GetServerPort returns the server port
func (c *AppConfig) GetServerPort() string {
	return c.ServerPort
}

// GetLogLevel returns the logging level
func (c *AppConfig) GetLogLevel() string {
	return c.LogLevel
}

// GetSupabaseURL returns the Supabase URL
func (c *AppConfig) GetSupabaseURL() string {
	return c.SupabaseURL
}

// GetSupabaseKey returns the Supabase anon key
func (c *AppConfig) GetSupabaseKey() string {
	return c.SupabaseKey
}

func (c *AppConfig) GetSupabaseServiceRoleKey() string {
	return c.SupabaseServiceRoleKey
}

func (c *AppConfig) GetAdminSecret() string {
	return c.AdminSecret
}

func (c *AppConfig) GetAllowedOrigins() []string {
	return c.AllowedOrigins
}

// GetProgressMaxAccrual caps the reading time credited per session update.
func (c *AppConfig) GetProgressMaxAccrual() time.Duration {
	return c.ProgressMaxAccrual
}

// GetAPIURL returns the base URL the lector CLI talks to.
func (c *AppConfig) GetAPIURL() string {
	return c.APIURL
}

func (c *AppConfig) GetAPIToken() string {
	return c.APIToken
}

func (c *AppConfig) GetReaderDebounce() time.Duration {
	return c.ReaderDebounce
}

func (c *AppConfig) GetReaderHeartbeat() time.Duration {
	return c.ReaderHeartbeat
}

// SupabaseConfigured reports whether Supabase credentials are present.
func SupabaseConfigured(c domain.Config) bool {
	return c.GetSupabaseURL() != "" && c.GetSupabaseKey() != ""
}

// Helper functions for environment variable handling
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d > 0 {
			return d
		}
	}
	return defaultValue
}

func getEnvListOrDefault(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
