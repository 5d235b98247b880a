package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"servis-kayit-backend/internal/config"
	"servis-kayit-backend/internal/database"
	"servis-kayit-backend/internal/logger"
	"servis-kayit-backend/internal/metrics"
	"servis-kayit-backend/internal/records"
	"servis-kayit-backend/internal/server"

	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config yüklenemedi: %v", err)
	}

	zl, err := logger.New(logger.Options{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		Environment: cfg.Environment,
	})
	if err != nil {
		log.Fatalf("logger oluşturulamadı: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	for _, w := range cfg.Warnings {
		zl.Warn(w)
	}

	provider := database.NewProvider(cfg.DatabaseURL, zl,
		database.WithGormLogger(logger.NewGormLogger(zl, logger.GormLevel(cfg.LogLevel))),
	)
	m := metrics.New()
	repo := records.NewRepository(provider, m, zl)

	addr, err := cfg.ListenAddr()
	if err != nil {
		zl.Fatal("dinleme adresi geçersiz", zap.Error(err))
	}

	app := server.New(cfg, zl, repo, m)

	go func() {
		zl.Info("server çalışıyor", zap.String("addr", addr))
		if err := app.Listen(addr); err != nil {
			zl.Fatal("server başlatılamadı", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zl.Info("server kapatılıyor")
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.ShutdownWithContext(ctx); err != nil {
		zl.Error("server düzgün kapatılamadı", zap.Error(err))
	}
}
