// Package config loads settings from the environment, an optional .env file
// and command-line flags bound through viper.
package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/hray3182/LifeLedger/internal/common"
)

// Keys are the environment variable names; cobra flags bind to the same keys.
const (
	KeyDatabaseURI       = "DATABASE_URI"
	KeyBranchDSNTemplate = "NEON_BRANCH_DSN_TEMPLATE"
	KeyJWTSecret         = "JWT_SECRET"
	KeyCronSecret        = "CRON_SECRET"
	KeyPort              = "PORT"
	KeyTimezone          = "TIMEZONE"
	KeyCronInterval      = "CRON_INTERVAL"
	KeyLogLevel          = "LOG_LEVEL"
	KeyLogFormat         = "LOG_FORMAT"
	KeyTelegramToken     = "TELEGRAM_TOKEN"
	KeyTelegramChatID    = "TELEGRAM_CHAT_ID"
	KeyAIAPIKey          = "AI_API_KEY"
	KeyAIBaseURL         = "AI_BASE_URL"
	KeyAIModel           = "AI_MODEL"
	KeyRateLimitMax      = "RATE_LIMIT_MAX"
)

type Config struct {
	DatabaseURI       string
	BranchDSNTemplate string
	JWTSecret         string
	CronSecret        string
	Port              int
	Location          *time.Location
	CronInterval      time.Duration
	LogLevel          string
	LogFormat         string
	TelegramToken     string
	TelegramChatID    int64
	AIAPIKey          string
	AIBaseURL         string
	AIModel           string
	RateLimitMax      int
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyPort, 8080)
	v.SetDefault(KeyTimezone, "UTC")
	v.SetDefault(KeyCronInterval, time.Hour)
	v.SetDefault(KeyLogLevel, "info")
	v.SetDefault(KeyLogFormat, "text")
	v.SetDefault(KeyAIBaseURL, "https://openrouter.ai/api/v1")
	v.SetDefault(KeyAIModel, "openai/gpt-4o-mini")
	v.SetDefault(KeyRateLimitMax, 120)
}

// Load reads .env (optional) into the environment and builds a Config from v.
func Load(v *viper.Viper) (*Config, error) {
	// .env file is optional in production
	_ = godotenv.Load()

	SetDefaults(v)
	v.AutomaticEnv()

	loc, err := time.LoadLocation(v.GetString(KeyTimezone))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", common.ErrInvalidConfig, KeyTimezone, err)
	}

	return &Config{
		DatabaseURI:       v.GetString(KeyDatabaseURI),
		BranchDSNTemplate: v.GetString(KeyBranchDSNTemplate),
		JWTSecret:         v.GetString(KeyJWTSecret),
		CronSecret:        v.GetString(KeyCronSecret),
		Port:              v.GetInt(KeyPort),
		Location:          loc,
		CronInterval:      v.GetDuration(KeyCronInterval),
		LogLevel:          v.GetString(KeyLogLevel),
		LogFormat:         v.GetString(KeyLogFormat),
		TelegramToken:     v.GetString(KeyTelegramToken),
		TelegramChatID:    v.GetInt64(KeyTelegramChatID),
		AIAPIKey:          v.GetString(KeyAIAPIKey),
		AIBaseURL:         v.GetString(KeyAIBaseURL),
		AIModel:           v.GetString(KeyAIModel),
		RateLimitMax:      v.GetInt(KeyRateLimitMax),
	}, nil
}

// ValidateServer checks the settings the HTTP server cannot run without.
func (c *Config) ValidateServer() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("%w: %s", common.ErrMissingConfig, KeyJWTSecret)
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("%w: %s must be between 1 and 65535", common.ErrInvalidConfig, KeyPort)
	}
	if c.CronInterval < time.Minute {
		return fmt.Errorf("%w: %s must be at least 1m", common.ErrInvalidConfig, KeyCronInterval)
	}
	if c.TelegramToken != "" && c.TelegramChatID == 0 {
		return fmt.Errorf("%w: %s is required with %s", common.ErrMissingConfig, KeyTelegramChatID, KeyTelegramToken)
	}
	return nil
}

// RequireDatabase reports ErrMissingConfig when no database is configured.
func (c *Config) RequireDatabase() error {
	if c.DatabaseURI == "" {
		return fmt.Errorf("%w: %s", common.ErrMissingConfig, KeyDatabaseURI)
	}
	return nil
}

func (c *Config) AIEnabled() bool {
	return c.AIAPIKey != ""
}

func (c *Config) TelegramEnabled() bool {
	return c.TelegramToken != ""
}
