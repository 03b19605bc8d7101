package main

import (
	"os"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/ocutrend/iopcast/internal/config"
	"github.com/ocutrend/iopcast/internal/database"
	"github.com/ocutrend/iopcast/internal/forecast"
	"github.com/ocutrend/iopcast/internal/notify"
	"github.com/ocutrend/iopcast/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Loading configuration failed")
	}

	lvl, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(lvl)

	engine := forecast.New(forecast.Options{
		Strategy:   forecast.StrategyCircadianAdjust,
		ModelPath:  cfg.ModelPath,
		Seed:       cfg.ForecastSeed,
		NoiseSigma: forecast.NoiseSigma,
	})
	// The model must be ready before the first request is accepted;
	// afterwards the artifact is read-only and safe for concurrent use.
	if err := engine.Init(); err != nil {
		log.Fatal().Err(err).Msg("Model initialization failed")
	}
	log.Info().Str("model", string(engine.ModelSource())).Msg("Forecast engine ready")

	var db *database.DB
	if cfg.DBHost != "" {
		db, err = database.New(database.ConnectionParams{
			Host:     cfg.DBHost,
			Port:     cfg.DBPort,
			User:     cfg.DBUser,
			Password: cfg.DBPassword,
			DBName:   cfg.DBName,
			SSLMode:  cfg.DBSSLMode,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Database initialization failed")
		}
		defer db.Close()
		log.Info().Msg("Forecast history store enabled")
	}

	var notifier *notify.Notifier
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != 0 {
		notifier, err = notify.New(cfg.TelegramBotToken, cfg.TelegramChatID)
		if err != nil {
			log.Fatal().Err(err).Msg("Notifier initialization failed")
		}
		log.Info().Int64("chat_id", cfg.TelegramChatID).Msg("Critical-risk alerting enabled")
	}

	srv := server.New(engine, db, notifier, cfg.RateLimitRPS)
	log.Info().Str("port", cfg.Port).Msg("Starting IOP forecast API server")
	if err := srv.Router().Run(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("Server stopped")
	}
}
