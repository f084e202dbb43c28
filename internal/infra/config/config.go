package config

import (
	"fmt"
	"os"
	"strconv"
	"strings" // For LogLevel normalization
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"
)

// AppConfig holds all configuration for the application
type AppConfig struct {
	HTTPAddr              string
	StorageDriver         string
	DatabaseURL           string
	JWTSecret             string
	JWTIssuer             string
	TokenTTL              time.Duration
	TelegramToken         string // empty disables the bot
	AdminTelegramID       int64
	AdminEmail            string // identity used for actions taken from the bot
	LogLevel              string
	Environment           string
	CronSpecPendingDigest string
}

// BotEnabled reports whether a Telegram token was supplied.
func (c *AppConfig) BotEnabled() bool {
	return c.TelegramToken != ""
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.HTTPAddr = getenv("HTTP_ADDR", ":8080")

	cfg.StorageDriver = strings.ToLower(getenv("STORAGE_DRIVER", StorageDriverPostgres))
	switch cfg.StorageDriver {
	case StorageDriverPostgres:
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is not set")
		}
	case StorageDriverMemory:
	default:
		return nil, fmt.Errorf("invalid STORAGE_DRIVER %q: want %q or %q", cfg.StorageDriver, StorageDriverPostgres, StorageDriverMemory)
	}

	cfg.JWTSecret = os.Getenv("JWT_SECRET")
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is not set")
	}
	cfg.JWTIssuer = getenv("JWT_ISSUER", "teacher-timetable")

	cfg.TokenTTL, err = time.ParseDuration(getenv("TOKEN_TTL", "12h"))
	if err != nil {
		return nil, fmt.Errorf("invalid TOKEN_TTL: %w", err)
	}
	if cfg.TokenTTL <= 0 {
		return nil, fmt.Errorf("TOKEN_TTL must be positive")
	}

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")

	if adminIDStr := os.Getenv("ADMIN_TELEGRAM_ID"); adminIDStr != "" {
		cfg.AdminTelegramID, err = strconv.ParseInt(adminIDStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid ADMIN_TELEGRAM_ID: %w", err)
		}
	}
	cfg.AdminEmail = strings.ToLower(strings.TrimSpace(os.Getenv("ADMIN_EMAIL")))
	if cfg.BotEnabled() && (cfg.AdminTelegramID == 0 || cfg.AdminEmail == "") {
		return nil, fmt.Errorf("ADMIN_TELEGRAM_ID and ADMIN_EMAIL are required when TELEGRAM_TOKEN is set")
	}

	cfg.LogLevel = strings.ToLower(getenv("LOG_LEVEL", "info"))
	cfg.Environment = strings.ToLower(getenv("ENVIRONMENT", "development"))

	cfg.CronSpecPendingDigest = getenv("CRON_SPEC_PENDING_DIGEST", "0 8 * * 1-6") // 08:00 Monday to Saturday

	return cfg, nil
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
