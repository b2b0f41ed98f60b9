package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings" // For LogLevel normalization
	"time"

	"github.com/joho/godotenv"
)

// Source kinds for the weekly seller metrics.
const (
	SourceSheet      = "sheet"      // precomputed snapshot rows in an .xlsx workbook
	SourceOrderLines = "orderlines" // raw order lines aggregated in DuckDB
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	DatabaseURL    string
	MigrationsPath string
	LogLevel       string
	Environment    string
	CronSpecWeekly string
	RunTimeout     time.Duration

	HTTPAddr       string
	PublicBaseURL  string // used to build tracking pixel and status links
	RateLimitRPS   float64
	RateLimitBurst int

	SourceKind  string
	SourcePath  string
	SourceSheet string // worksheet name, first sheet when empty

	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	TelegramToken   string // optional: operator bot is disabled when empty
	AdminTelegramID int64

	PolicyFile   string // optional YAML overriding the default thresholds
	TemplatesDir string // optional directory overriding the embedded email templates
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// Attempt to load .env file. Errors are ignored if the file doesn't exist.
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		MigrationsPath: getEnvOrDefault("MIGRATIONS_PATH", "migrations"),
		LogLevel:       strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info")),
		Environment:    strings.ToLower(getEnvOrDefault("ENVIRONMENT", "development")),
		CronSpecWeekly: getEnvOrDefault("CRON_SPEC_WEEKLY", "0 9 * * 1"), // Default: 9:00 AM every Monday
		RunTimeout:     getDurationOrDefault("RUN_TIMEOUT", 30*time.Minute),

		HTTPAddr:       getEnvOrDefault("HTTP_ADDR", ":8080"),
		PublicBaseURL:  strings.TrimRight(os.Getenv("PUBLIC_BASE_URL"), "/"),
		RateLimitRPS:   getFloatOrDefault("RATE_LIMIT_RPS", 5),
		RateLimitBurst: getIntOrDefault("RATE_LIMIT_BURST", 20),

		SourceKind:  strings.ToLower(getEnvOrDefault("SOURCE_KIND", SourceSheet)),
		SourcePath:  os.Getenv("SOURCE_PATH"),
		SourceSheet: os.Getenv("SOURCE_SHEET"),

		SMTPHost:     os.Getenv("SMTP_HOST"),
		SMTPPort:     getIntOrDefault("SMTP_PORT", 587),
		SMTPUsername: os.Getenv("SMTP_USERNAME"),
		SMTPPassword: os.Getenv("SMTP_PASSWORD"),
		SMTPFrom:     os.Getenv("SMTP_FROM"),

		TelegramToken: os.Getenv("TELEGRAM_TOKEN"),

		PolicyFile:   os.Getenv("POLICY_FILE"),
		TemplatesDir: os.Getenv("TEMPLATES_DIR"),
	}

	if adminIDStr := os.Getenv("ADMIN_TELEGRAM_ID"); adminIDStr != "" {
		id, err := strconv.ParseInt(adminIDStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_TELEGRAM_ID: %w", err)
		}
		cfg.AdminTelegramID = id
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required settings and their combinations.
func (c *AppConfig) Validate() error {
	var errs []string

	if c.DatabaseURL == "" {
		errs = append(errs, "DATABASE_URL is required")
	}
	if c.PublicBaseURL == "" {
		errs = append(errs, "PUBLIC_BASE_URL is required")
	}
	switch c.SourceKind {
	case SourceSheet, SourceOrderLines:
	default:
		errs = append(errs, fmt.Sprintf("SOURCE_KIND must be %q or %q", SourceSheet, SourceOrderLines))
	}
	if c.SourcePath == "" {
		errs = append(errs, "SOURCE_PATH is required")
	}
	if c.SMTPHost == "" || c.SMTPFrom == "" {
		errs = append(errs, "SMTP_HOST and SMTP_FROM are required")
	}
	if c.TelegramToken != "" && c.AdminTelegramID == 0 {
		errs = append(errs, "ADMIN_TELEGRAM_ID is required when TELEGRAM_TOKEN is set")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		errs = append(errs, "RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}

	if len(errs) > 0 {
		return errors.New("configuration errors:\n  - " + strings.Join(errs, "\n  - "))
	}
	return nil
}

// IsProduction returns true for environments that log as JSON.
func (c *AppConfig) IsProduction() bool {
	return c.Environment == "production" || c.Environment == "staging"
}

// TelegramEnabled reports whether the operator bot should start.
func (c *AppConfig) TelegramEnabled() bool {
	return c.TelegramToken != ""
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
