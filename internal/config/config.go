package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"dota-tracker/internal/constants"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

type Config struct {
	StratzToken   string
	TelegramToken string
	DBPath        string
	StatusPort    string
	LogLevel      string
	Platform      string

	LookbackDays   int
	IngestInterval time.Duration
	ReportInterval time.Duration
	AlertInterval  time.Duration
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		StratzToken:    getEnv("STRATZ_API_TOKEN", ""),
		TelegramToken:  getEnv("TELEGRAM_TOKEN", ""),
		DBPath:         getEnv("DB_PATH", "matchlog.db"),
		StatusPort:     getEnv("STATUS_PORT", "8000"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		Platform:       getEnv("PLATFORM", "telegram"),
		LookbackDays:   getEnvInt("LOOKBACK_DAYS", constants.DefaultLookbackDays),
		IngestInterval: getEnvDuration("INGEST_INTERVAL", 30*time.Minute),
		ReportInterval: getEnvDuration("REPORT_INTERVAL", 24*time.Hour),
		AlertInterval:  getEnvDuration("ALERT_INTERVAL", 15*time.Minute),
	}

	if cfg.StratzToken == "" {
		return nil, fmt.Errorf("STRATZ_API_TOKEN is required")
	}

	logger.Info().
		Str("db_path", cfg.DBPath).
		Str("status_port", cfg.StatusPort).
		Str("log_level", cfg.LogLevel).
		Str("platform", cfg.Platform).
		Int("lookback_days", cfg.LookbackDays).
		Dur("ingest_interval", cfg.IngestInterval).
		Msg("configuration loaded")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

var Module = fx.Provide(Load)
