package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"animal-watch-bot/config"
	telegram "animal-watch-bot/internal/api"
	"animal-watch-bot/internal/container"
	"animal-watch-bot/internal/infrastructure/httpserver"
	"animal-watch-bot/internal/infrastructure/logging"
	"animal-watch-bot/internal/infrastructure/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	logger := logging.New(cfg.LogLevel, cfg.LogFormat)

	if cfg.TelegramToken == "" {
		logger.Fatal().Msg("TELEGRAM_TOKEN is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	metrics.MustRegister()

	api, err := telegram.Connect(cfg.TelegramToken)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to telegram")
	}
	sender := telegram.NewSender(api)

	// Собираем сервисы приложения
	appContainer, err := container.New(ctx, cfg, sender, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to build container")
	}
	defer appContainer.Close()

	// Поднимаем наблюдение за животными из сохранённых подписок
	if err := appContainer.Watch.Restore(ctx); err != nil {
		logger.Warn().Err(err).Msg("some subscriptions were not restored")
	}

	srv := httpserver.NewServer(cfg.HTTPAddr, appContainer.Alerts, logging.Component(logger, "http"))
	go func() {
		if err := srv.Start(); err != nil {
			logger.Error().Err(err).Msg("http server stopped")
		}
	}()

	bot := telegram.NewBot(api, sender, appContainer.Watch, cfg.StickerFile, logging.Component(logger, "bot"))

	logger.Info().Msg("bot is running")
	if err := bot.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("bot stopped")
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn().Err(err).Msg("http server shutdown")
	}
}
