// Package config provides configuration management for the application.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration values for the application.
type Config struct {
	// AWS
	AWSRegion string
	S3Bucket  string

	// Database
	DatabaseURLOverride string
	DBHost              string
	DBPort              int
	DBName              string
	DBUser              string
	DBPassword          string

	// SES
	SESSenderEmail string

	// Risk model
	GeminiAPIKey    string
	GeminiModel     string
	GeminiBaseURL   string
	RiskTimeout     time.Duration
	RiskMaxAttempts int

	// Verdict cache
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RiskCacheTTL  time.Duration

	// Decisioning
	CatalogPath       string
	EligibilityPolicy string

	// Application
	Stage     string
	LogLevel  string
	Port      string
	PublicDir string
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Load .env file if it exists (for local development)
	_ = godotenv.Load()

	cfg := &Config{
		// AWS
		AWSRegion: getEnv("AWS_REGION", "us-east-1"),
		S3Bucket:  getEnv("S3_BUCKET", "loan-application-documents-dev"),

		// Database
		DatabaseURLOverride: getEnv("DATABASE_URL", ""),
		DBHost:              getEnv("DB_HOST", "localhost"),
		DBPort:              getEnvInt("DB_PORT", 5432),
		DBName:              getEnv("DB_NAME", "loan_applications"),
		DBUser:              getEnv("DB_USER", "postgres"),
		DBPassword:          getEnv("DB_PASSWORD", ""),

		// SES
		SESSenderEmail: getEnv("SES_SENDER_EMAIL", ""),

		// Risk model
		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		GeminiModel:     getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		GeminiBaseURL:   getEnv("GEMINI_BASE_URL", ""),
		RiskTimeout:     getEnvDuration("RISK_TIMEOUT", 15*time.Second),
		RiskMaxAttempts: getEnvInt("RISK_MAX_ATTEMPTS", 1),

		// Verdict cache
		RedisAddr:     getEnv("REDIS_ADDR", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),
		RiskCacheTTL:  getEnvDuration("RISK_CACHE_TTL", 24*time.Hour),

		// Decisioning
		CatalogPath:       getEnv("CATALOG_PATH", ""),
		EligibilityPolicy: getEnv("ELIGIBILITY_POLICY", "any"),

		// Application
		Stage:     getEnv("STAGE", "dev"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		Port:      getEnv("PORT", "8000"),
		PublicDir: getEnv("PUBLIC_DIR", "./public"),
	}

	return cfg, nil
}

// DatabaseURL returns the PostgreSQL connection string. DATABASE_URL wins over DB_*.
func (c *Config) DatabaseURL() string {
	if c.DatabaseURLOverride != "" {
		return c.DatabaseURLOverride
	}
	sslMode := "require" // Use SSL for RDS
	if c.DBHost == "localhost" || c.DBHost == "127.0.0.1" {
		sslMode = "disable"
	}
	return "postgres://" + c.DBUser + ":" + c.DBPassword + "@" + c.DBHost + ":" + strconv.Itoa(c.DBPort) + "/" + c.DBName + "?sslmode=" + sslMode
}

// DatabaseConfigured reports whether a password or explicit URL was supplied.
func (c *Config) DatabaseConfigured() bool {
	return c.DatabaseURLOverride != "" || c.DBPassword != ""
}

// getEnv retrieves an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an environment variable as int or returns a default value.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go durations ("15s") or a bare number of seconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(value); err == nil {
		return time.Duration(secs) * time.Second
	}
	return defaultValue
}
