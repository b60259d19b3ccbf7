package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"coinheist/internal/auth"
	"coinheist/internal/bot"
	"coinheist/internal/config"
	"coinheist/internal/economy"
	"coinheist/internal/handlers"
	"coinheist/internal/logger"
	"coinheist/internal/service"
	"coinheist/internal/storage"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		zap.NewExample().Fatal("config", zap.Error(err))
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		zap.NewExample().Fatal("logger", zap.Error(err))
	}
	defer log.Sync()

	store, err := storage.Open(cfg.DBPath)
	if err != nil {
		log.Fatal("failed to open database", zap.String("path", cfg.DBPath), zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()

	catalog, err := economy.LoadCatalog(cfg.ItemsPath)
	if err != nil {
		log.Fatal("failed to load item catalog", zap.String("path", cfg.ItemsPath), zap.Error(err))
	}
	if err := store.SeedItems(ctx, catalog); err != nil {
		log.Fatal("failed to seed shop items", zap.Error(err))
	}

	checker := auth.NewChecker(store, cfg.SuperAdmins, log)

	engine := economy.New(store, nil, nil, nil, log)
	tgBot, err := bot.New(cfg.BotToken, store, engine, checker, log)
	if err != nil {
		log.Fatal("failed to create bot", zap.Error(err))
	}

	// The notifier needs the live telebot client, which in turn needs the
	// engine, so it is attached after both exist.
	engine.SetNotifier(service.NewNotificationService(tgBot.Telebot(), checker, log))

	go tgBot.Start()
	defer tgBot.Stop()

	mux := http.NewServeMux()
	handlers.New(store, log).Register(mux)

	srv := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: mux,
	}
	go func() {
		log.Info("http server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
}
