package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration
type Config struct {
	DatabaseURL      string
	ServerPort       string
	BaseURL          string
	FrontendURL      string
	EnableHSTS       bool
	RedisURL         string
	RateLimit        string
	RabbitMQURL      string
	RabbitMQPrefetch int
	DLQRetention     time.Duration
	DLQGCInterval    time.Duration
	OIDCIssuer       string
	OIDCClientID     string
	OIDCClientSecret string
	OIDCRedirectURI  string
	OIDCJWKSURL      string
	RemoteTimeout    time.Duration
	SessionRefresh   time.Duration
	SessionIdle      time.Duration
	CollationLocale  string
	WorkerDebugMode  bool
	ServerDebugMode  bool
	OTELEnabled      bool
	OTELEndpoint     string
	OTELSampleRatio  float64
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		DatabaseURL:      getEnv("DATABASE_URL", ""),
		ServerPort:       getEnv("SERVER_PORT", "8080"),
		BaseURL:          getEnv("BASE_URL", "http://localhost:8080"),
		FrontendURL:      getEnv("FRONTEND_URL", "http://localhost:3000"),
		EnableHSTS:       getEnvBool("ENABLE_HSTS", false),
		RedisURL:         getEnv("REDIS_URL", "redis://localhost:6379/0"),
		RateLimit:        getEnv("RATE_LIMIT", "10-S"),
		RabbitMQURL:      getEnv("RABBITMQ_URL", ""),
		RabbitMQPrefetch: getEnvInt("RABBITMQ_PREFETCH", 1),
		DLQRetention:     getEnvDuration("DLQ_RETENTION", 7*24*time.Hour),
		DLQGCInterval:    getEnvDuration("DLQ_GC_INTERVAL", time.Hour),
		OIDCIssuer:       strings.TrimSuffix(getEnv("OIDC_ISSUER", ""), "/"),
		OIDCClientID:     getEnv("OIDC_CLIENT_ID", ""),
		OIDCClientSecret: getEnv("OIDC_CLIENT_SECRET", ""),
		OIDCRedirectURI:  getEnv("OIDC_REDIRECT_URI", ""),
		OIDCJWKSURL:      getEnv("OIDC_JWKS_URL", ""),
		RemoteTimeout:    getEnvDuration("REMOTE_TIMEOUT", 10*time.Second),
		SessionRefresh:   getEnvDuration("SESSION_REFRESH_INTERVAL", 2*time.Minute),
		SessionIdle:      getEnvDuration("SESSION_IDLE_TIMEOUT", 30*time.Minute),
		CollationLocale:  getEnv("COLLATION_LOCALE", "und"),
		WorkerDebugMode:  getEnvBool("WORKER_DEBUG_MODE", false),
		ServerDebugMode:  getEnvBool("SERVER_DEBUG_MODE", false),
		OTELEnabled:      getEnvBool("OTEL_ENABLED", false),
		OTELEndpoint:     getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		OTELSampleRatio:  getEnvFloat("OTEL_SAMPLE_RATIO", 1),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.OIDCIssuer != "" && cfg.OIDCJWKSURL == "" {
		cfg.OIDCJWKSURL = cfg.OIDCIssuer + "/.well-known/jwks.json"
	}

	return cfg, nil
}

// FrontendOrigins splits FRONTEND_URL into the allowed CORS origins
func (c *Config) FrontendOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.FrontendURL, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}

// QueueEnabled reports whether category repair jobs can be queued
func (c *Config) QueueEnabled() bool {
	return c.RabbitMQURL != ""
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil && d >= 0 {
			return d
		}
	}
	return defaultValue
}

// getEnvFloat accepts values in [0, 1]
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil && f >= 0 && f <= 1 {
			return f
		}
	}
	return defaultValue
}
