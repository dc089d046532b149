package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port           string
	Environment    string
	DatabaseURL    string
	AutoMigrate    bool
	JWTSecret      string
	AllowedOrigins string
	Location       *time.Location

	RedisAddr          string
	RateLimitPerMinute int

	SMTPHost  string
	SMTPPort  int
	EmailUser string
	EmailPass string

	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadPreset string

	KafkaBrokers string

	SweepSchedule         string
	RatingRefreshSchedule string
	ReminderSchedule      string
}

// Load reads .env (if present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: Error loading .env file. Using environment variables directly.")
	}

	cfg := &Config{
		Port:           getEnvOrDefault("PORT", "8000"),
		Environment:    getEnvOrDefault("ENVIRONMENT", "development"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		AutoMigrate:    getEnvAsBool("AUTO_MIGRATE", false),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		AllowedOrigins: getEnvOrDefault("ALLOWED_ORIGINS", "*"),

		RedisAddr:          os.Getenv("REDIS_ADDR"),
		RateLimitPerMinute: getEnvAsIntOrDefault("RATE_LIMIT_PER_MINUTE", 30),

		SMTPHost:  os.Getenv("SMTP_HOST"),
		SMTPPort:  getEnvAsIntOrDefault("SMTP_PORT", 587),
		EmailUser: os.Getenv("EMAIL_USER"),
		EmailPass: os.Getenv("EMAIL_PASS"),

		CloudinaryCloudName:    os.Getenv("CLOUDINARY_CLOUD_NAME"),
		CloudinaryAPIKey:       os.Getenv("CLOUDINARY_API_KEY"),
		CloudinaryAPISecret:    os.Getenv("CLOUDINARY_API_SECRET"),
		CloudinaryUploadPreset: os.Getenv("CLOUDINARY_UPLOAD_PRESET"),

		KafkaBrokers: os.Getenv("KAFKA_BROKERS"),

		SweepSchedule:         getEnvOrDefault("SWEEP_SCHEDULE", "* * * * *"),
		RatingRefreshSchedule: getEnvOrDefault("RATING_REFRESH_SCHEDULE", "0 0 * * *"),
		ReminderSchedule:      getEnvOrDefault("REMINDER_SCHEDULE", "* * * * *"),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}
	if cfg.JWTSecret == "" {
		if cfg.Environment == "production" {
			return nil, fmt.Errorf("JWT_SECRET is required in production")
		}
		cfg.JWTSecret = "solid_secret_key"
	}

	loc, err := time.LoadLocation(getEnvOrDefault("APP_TIMEZONE", "UTC"))
	if err != nil {
		return nil, fmt.Errorf("invalid APP_TIMEZONE: %w", err)
	}
	cfg.Location = loc

	return cfg, nil
}

// Origins returns ALLOWED_ORIGINS in the comma separated form fiber's cors
// middleware expects.
func (c *Config) Origins() string {
	parts := strings.Split(c.AllowedOrigins, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return strings.Join(parts, ",")
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value := strings.ToLower(os.Getenv(key))
	switch value {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	}
	return defaultValue
}
