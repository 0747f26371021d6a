package config

import (
	"fmt"
	"os"
	"strconv"
	"strings" // For LogLevel normalization
	"time"
	_ "time/tzdata" // TIMEZONE must resolve on images without zoneinfo

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	DatabaseURL       string
	TelegramToken     string
	AdminTelegramID   int64
	ManagerTelegramID int64
	LogLevel          string
	Environment       string
	CronSpecDailyPlan string // When the daily plan is built and delivered
	HTTPAddr          string
	Timezone          string // IANA name; cron and "today" are evaluated here
}

// Load reads configuration from environment variables and .env file (if present).
// Only defaults and format checks happen here; ValidateForServe checks what the
// long-running process needs, so the offline CLI works without bot credentials.
func Load() (*AppConfig, error) {
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")

	if cfg.AdminTelegramID, err = parseOptionalID("ADMIN_TELEGRAM_ID"); err != nil {
		return nil, err
	}
	if cfg.ManagerTelegramID, err = parseOptionalID("MANAGER_TELEGRAM_ID"); err != nil {
		return nil, err
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	cfg.CronSpecDailyPlan = os.Getenv("CRON_SPEC_DAILY_PLAN")
	if cfg.CronSpecDailyPlan == "" {
		cfg.CronSpecDailyPlan = "0 9 * * *" // 9 AM daily; non-business days are skipped by the job
	}

	cfg.HTTPAddr = os.Getenv("HTTP_ADDR")
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}

	cfg.Timezone = os.Getenv("TIMEZONE")
	if cfg.Timezone == "" {
		cfg.Timezone = "Asia/Tokyo"
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE %q: %w", cfg.Timezone, err)
	}

	return cfg, nil
}

// ValidateForServe checks the settings required by the bot, scheduler and HTTP server.
func (c *AppConfig) ValidateForServe() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is not set")
	}
	if c.TelegramToken == "" {
		return fmt.Errorf("TELEGRAM_TOKEN is not set")
	}
	if c.AdminTelegramID == 0 {
		return fmt.Errorf("ADMIN_TELEGRAM_ID is not set")
	}
	if c.ManagerTelegramID == 0 {
		return fmt.Errorf("MANAGER_TELEGRAM_ID is not set")
	}
	return nil
}

// Location returns the configured time zone. Load has already validated it.
func (c *AppConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func parseOptionalID(key string) (int64, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return id, nil
}
