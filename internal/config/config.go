package config

import (
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"os"
	"strconv"
)

// Config holds all application configuration
type Config struct {
	Port         string `env:"PORT" envDefault:"5000"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`
	ModelPath    string `env:"MODEL_PATH" envDefault:"model.json"`
	CorpusSize   int    `env:"CORPUS_SIZE" envDefault:"1000"`
	ForecastSeed int64  `env:"FORECAST_SEED" envDefault:"0"` // 0 = wall clock
	RateLimitRPS int    `env:"RATE_LIMIT_RPS" envDefault:"10"`

	// Forecast history store; disabled when DB_HOST is empty.
	DBHost     string `env:"DB_HOST" envDefault:""`
	DBPort     string `env:"DB_PORT" envDefault:"5432"`
	DBUser     string `env:"DB_USER" envDefault:"postgres"`
	DBPassword string `env:"DB_PASSWORD" envDefault:""`
	DBName     string `env:"DB_NAME" envDefault:"iopcast"`
	DBSSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`

	// Critical-risk alerting; disabled when the token is empty.
	TelegramBotToken string `env:"TELEGRAM_BOT_TOKEN" envDefault:""`
	TelegramChatID   int64  `env:"TELEGRAM_CHAT_ID" envDefault:"0"`
}

// Load initializes configuration from environment variables
func Load() (*Config, error) {
	// Load environment variables from .env file if present
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	var cfg Config

	cfg.Port = getEnvWithDefault("PORT", "5000")
	cfg.LogLevel = getEnvWithDefault("LOG_LEVEL", "info")
	cfg.ModelPath = getEnvWithDefault("MODEL_PATH", "model.json")
	cfg.CorpusSize = getEnvIntWithDefault("CORPUS_SIZE", 1000)
	cfg.ForecastSeed = getEnvInt64WithDefault("FORECAST_SEED", 0)
	cfg.RateLimitRPS = getEnvIntWithDefault("RATE_LIMIT_RPS", 10)

	cfg.DBHost = os.Getenv("DB_HOST")
	cfg.DBPort = getEnvWithDefault("DB_PORT", "5432")
	cfg.DBUser = getEnvWithDefault("DB_USER", "postgres")
	cfg.DBPassword = os.Getenv("DB_PASSWORD")
	cfg.DBName = getEnvWithDefault("DB_NAME", "iopcast")
	cfg.DBSSLMode = getEnvWithDefault("DB_SSLMODE", "disable")

	cfg.TelegramBotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	cfg.TelegramChatID = getEnvInt64WithDefault("TELEGRAM_CHAT_ID", 0)

	return &cfg, nil
}

// Helper functions for environment variable handling
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64WithDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
