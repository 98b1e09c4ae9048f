package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

type Config struct {
	OpenDotaAPIKey  string
	OpenDotaBaseURL string
	DBPath          string
	ServerPort      string
	LogLevel        string
	RateLimit       RateLimit
}

type RateLimit struct {
	PerSecond int
	PerMinute int
	MinGap    time.Duration
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		OpenDotaAPIKey:  getEnv("OPENDOTA_API_KEY", ""),
		OpenDotaBaseURL: getEnv("OPENDOTA_BASE_URL", "https://api.opendota.com/api"),
		DBPath:          getEnv("DB_PATH", "dota.db"),
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		RateLimit: RateLimit{
			PerSecond: getEnvInt(logger, "RATE_LIMIT_PER_SECOND", 15),
			PerMinute: getEnvInt(logger, "RATE_LIMIT_PER_MINUTE", 200),
			MinGap:    getEnvDuration(logger, "RATE_LIMIT_MIN_GAP", 80*time.Millisecond),
		},
	}

	// the key is only needed once something talks to OpenDota
	if cfg.OpenDotaAPIKey == "" {
		logger.Warn().Msg("OPENDOTA_API_KEY is not set, API calls will fail until it is configured")
	}

	logger.Info().
		Str("db_path", cfg.DBPath).
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Str("opendota_base_url", cfg.OpenDotaBaseURL).
		Int("rate_limit_per_second", cfg.RateLimit.PerSecond).
		Int("rate_limit_per_minute", cfg.RateLimit.PerMinute).
		Dur("rate_limit_min_gap", cfg.RateLimit.MinGap).
		Msg("configuration loaded")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(logger zerolog.Logger, key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		logger.Warn().Str("key", key).Str("value", v).Int("fallback", fallback).Msg("invalid integer in environment, using default")
		return fallback
	}
	return n
}

func getEnvDuration(logger zerolog.Logger, key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil || d < 0 {
		logger.Warn().Str("key", key).Str("value", v).Dur("fallback", fallback).Msg("invalid duration in environment, using default")
		return fallback
	}
	return d
}

var Module = fx.Provide(Load)
