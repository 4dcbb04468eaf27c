package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"colorify/config"
	"colorify/internal/api/telegram"
	"colorify/internal/api/web"
	"colorify/internal/container"
	"colorify/internal/infrastructure/observability"
)

var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load config: %v", err)
	}

	log := observability.NewLogger(cfg.Log.Level, cfg.Log.JSON, os.Stdout)

	// Кэш моделей внутри проекта, путь публикуется в окружение процесса.
	if err := cfg.PrepareCache(); err != nil {
		log.Fatalf("Failed to prepare model cache: %v", err)
	}

	metrics := observability.NewMetrics()
	reporter, err := observability.NewSentryReporter(cfg.SentryDSN, cfg.Environment, version)
	if err != nil {
		log.Fatalf("Failed to init sentry: %v", err)
	}
	defer reporter.Flush(2 * time.Second)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	appContainer := container.New(cfg, observability.Multi{metrics, reporter}, log)
	defer appContainer.Models.Close()

	// Модель грузится в фоне, страница доступна сразу.
	appContainer.Models.Start(ctx)

	gin.SetMode(gin.ReleaseMode)
	server, err := web.NewServer(web.Options{
		Colorizer:   appContainer.Colorize,
		Models:      appContainer.Models,
		Results:     appContainer.Results,
		Metrics:     metrics.Handler(),
		UploadDir:   cfg.TempDir,
		MaxUploadMB: cfg.MaxUploadMB,
		Log:         log,
	})
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	var wg sync.WaitGroup
	if cfg.TelegramToken != "" {
		bot, err := telegram.NewBot(cfg.TelegramToken, appContainer.Users, appContainer.Colorize, cfg.TempDir, log)
		if err != nil {
			log.Fatalf("Failed to create bot: %v", err)
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := bot.Run(ctx); err != nil {
				log.WithError(err).Error("bot stopped")
			}
		}()
	}

	log.WithFields(logrus.Fields{
		"model":   cfg.Model.ID,
		"task":    cfg.Model.Task,
		"cache":   cfg.Model.CacheDir,
		"version": version,
	}).Info("Colorify is starting")

	if err := server.Run(ctx, cfg.Addr); err != nil {
		log.WithError(err).Error("server error")
	}

	stop()
	wg.Wait()
}
