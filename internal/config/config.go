package config

import (
	"fmt"
	"os"

	"github.com/Dan9191/budget-ledger/internal/models"
	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port              string
	LogLevel          string
	StoreKind         string
	StoreDSN          string
	Mode              models.Mode
	Currency          string
	RecurringSchedule string
	JWTSecret         string
	OwnerPasswordHash string
	SMTPHost          string
	SMTPPort          string
	SMTPUsername      string
	SMTPPassword      string
	SenderEmail       string
	NotifyEmail       string
}

// NewConfig loads configuration from environment variables.
// A .env file is read first when present; an explicit path must exist.
func NewConfig(envPath ...string) (*Config, error) {
	if len(envPath) > 0 && envPath[0] != "" {
		if err := godotenv.Load(envPath[0]); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	} else {
		_ = godotenv.Load()
	}

	mode, err := models.ParseMode(getEnv("LEDGER_MODE", "double"))
	if err != nil {
		return nil, fmt.Errorf("invalid LEDGER_MODE: %w", err)
	}

	cfg := &Config{
		Port:              getEnv("PORT", "8080"),
		LogLevel:          getEnv("LOG_LEVEL", "INFO"),
		StoreKind:         getEnv("LEDGER_STORE", "bolt"),
		StoreDSN:          getEnv("LEDGER_DSN", "data/ledger.db"),
		Mode:              mode,
		Currency:          getEnv("CURRENCY", "USD"),
		RecurringSchedule: getEnv("RECURRING_SCHEDULE", "@daily"),
		JWTSecret:         getEnv("JWT_SECRET", ""),
		OwnerPasswordHash: getEnv("OWNER_PASSWORD_HASH", ""),
		SMTPHost:          getEnv("SMTP_HOST", ""),
		SMTPPort:          getEnv("SMTP_PORT", "587"),
		SMTPUsername:      getEnv("SMTP_USERNAME", ""),
		SMTPPassword:      getEnv("SMTP_PASSWORD", ""),
		SenderEmail:       getEnv("SENDER_EMAIL", ""),
		NotifyEmail:       getEnv("NOTIFY_EMAIL", ""),
	}

	if cfg.StoreKind == "postgres" && cfg.StoreDSN == "" {
		return nil, fmt.Errorf("LEDGER_DSN is required for the postgres store")
	}
	if cfg.OwnerPasswordHash != "" && cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required when OWNER_PASSWORD_HASH is set")
	}
	if cfg.SMTPHost != "" && (cfg.SenderEmail == "" || cfg.NotifyEmail == "") {
		return nil, fmt.Errorf("SENDER_EMAIL and NOTIFY_EMAIL are required when SMTP_HOST is set")
	}

	return cfg, nil
}

// AuthEnabled reports whether API routes require a bearer token.
func (c *Config) AuthEnabled() bool {
	return c.OwnerPasswordHash != ""
}

// NotificationsEnabled reports whether email notifications can be sent.
func (c *Config) NotificationsEnabled() bool {
	return c.SMTPHost != ""
}

func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}
