package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"berry-quality/config"
	telegram "berry-quality/internal/api"
	"berry-quality/internal/api/rest"
	"berry-quality/internal/container"
	"berry-quality/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.SetLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Собираем сервисы приложения
	appContainer := container.New(cfg)
	defer func() {
		if err := appContainer.Close(); err != nil {
			logger.WithError(err).Warn("failed to release resources")
		}
	}()

	server := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: rest.NewHandler(appContainer.QualityService, rest.Options{
			MaxRequestBodySize: cfg.MaxRequestBodySize,
			RequestTimeout:     cfg.RequestTimeout,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logger.WithField("addr", cfg.HTTPAddr).Info("HTTP server is running")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Error("HTTP server failed")
			stop()
		}
	}()

	if cfg.TelegramToken != "" {
		bot, err := telegram.NewBot(cfg.TelegramToken, appContainer.UserService, appContainer.QualityService, cfg.HTTPTimeout)
		if err != nil {
			log.Fatalf("Failed to create bot: %v", err)
		}
		go func() {
			logger.Info("Bot is running...")
			if err := bot.Run(ctx); err != nil {
				logger.WithError(err).Error("bot stopped")
			}
		}()
	} else {
		logger.Warn("TELEGRAM_TOKEN is not set, bot is disabled")
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("HTTP server shutdown")
	}
}
