package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// DefaultLLMURL is the chat-completions endpoint used when LLM_API_URL is unset.
const DefaultLLMURL = "https://frida-llm-api.azurewebsites.net/v1/chat/completions"

// ErrLLMAPIKeyRequired is returned by Validate when no LLM API key is configured.
var ErrLLMAPIKeyRequired = errors.New("LLM_API_KEY is required")

// DatabaseConfig holds PostgreSQL database connection settings.
type DatabaseConfig struct {
	Host               string
	Port               string
	User               string
	Password           string
	Name               string
	SSLMode            string
	ApplicationName    string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetimeSec int
	AutoMigrate        bool
}

// MinIOConfig holds object storage settings for MinIO.
// Archiving of uploaded payloads is disabled when Endpoint is empty.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// Enabled reports whether an object storage endpoint was configured.
func (c MinIOConfig) Enabled() bool {
	return c.Endpoint != ""
}

// LLMConfig holds settings for the chat-completion API used for tagging.
type LLMConfig struct {
	URL                   string
	APIKey                string
	Model                 string
	TimeoutSec            int
	RateLimitPerSec       float64
	RateBurst             int
	BreakerMaxFailures    int
	BreakerOpenTimeoutSec int
}

// Timeout returns the per-call deadline for the LLM request.
func (c LLMConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

// AppConfig is the centralized configuration struct for the application.
// It is populated from environment variables. Sensitive values are not hardcoded.
type AppConfig struct {
	Port             string
	LogLevel         string
	Timezone         string
	BodyLimitMB      int
	CORSAllowOrigins string
	Database         DatabaseConfig
	MinIO            MinIOConfig
	LLM              LLMConfig
}

// Load reads configuration from environment variables.
// A .env file can be auto-loaded by importing: _ "github.com/joho/godotenv/autoload"
// This function does not require a .env file; real environment variables take precedence.
func Load() *AppConfig {
	return &AppConfig{
		Port:             getEnv("PORT", "8080"),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		Timezone:         getEnv("APP_TIMEZONE", "Local"),
		BodyLimitMB:      getEnvInt("BODY_LIMIT_MB", 25),
		CORSAllowOrigins: getEnv("CORS_ALLOW_ORIGINS", "*"),
		Database: DatabaseConfig{
			Host:               getEnv("DB_HOST", ""),
			Port:               getEnv("DB_PORT", "5432"),
			User:               getEnv("DB_USER", ""),
			Password:           getEnv("DB_PASSWORD", ""),
			Name:               getEnv("DB_NAME", ""),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			ApplicationName:    getEnv("DB_APPLICATION_NAME", "mediatag"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetimeSec: getEnvInt("DB_CONN_MAX_LIFETIME_SEC", 300),
			AutoMigrate:        getEnvBool("DB_AUTO_MIGRATE", true),
		},
		MinIO: MinIOConfig{
			Endpoint:  getEnv("MINIO_ENDPOINT", ""),
			AccessKey: getEnv("MINIO_ACCESS_KEY", ""),
			SecretKey: getEnv("MINIO_SECRET_KEY", ""),
			Bucket:    getEnv("MINIO_BUCKET", ""),
			UseSSL:    getEnvBool("MINIO_USE_SSL", false),
		},
		LLM: LLMConfig{
			URL:                   getEnv("LLM_API_URL", DefaultLLMURL),
			APIKey:                getEnv("LLM_API_KEY", ""),
			Model:                 getEnv("LLM_MODEL", "claude-4-sonnet"),
			TimeoutSec:            getEnvInt("LLM_TIMEOUT_SEC", 60),
			RateLimitPerSec:       getEnvFloat("LLM_RATE_LIMIT_PER_SEC", 5),
			RateBurst:             getEnvInt("LLM_RATE_BURST", 5),
			BreakerMaxFailures:    getEnvInt("LLM_BREAKER_MAX_FAILURES", 5),
			BreakerOpenTimeoutSec: getEnvInt("LLM_BREAKER_OPEN_TIMEOUT_SEC", 30),
		},
	}
}

// Validate fails fast on settings the service cannot run without.
func (c *AppConfig) Validate() error {
	if c.LLM.APIKey == "" {
		return ErrLLMAPIKeyRequired
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves the configured timezone used to render upload timestamps.
func (c *AppConfig) Location() (*time.Location, error) {
	if c.Timezone == "" || c.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err == nil {
			return f
		}
	}
	return def
}
