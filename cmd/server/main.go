package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/esaudezap/backend/internal/config"
	"github.com/esaudezap/backend/internal/db"
	"github.com/esaudezap/backend/internal/httpapi"
	"github.com/esaudezap/backend/internal/httpapi/middleware"
	"github.com/esaudezap/backend/internal/secrets"
	"github.com/esaudezap/backend/internal/store/redisstore"
)

var configPath = flag.String("config", "", "Path to config file")

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	gdb, err := db.Connect(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	if err := db.Migrate(gdb); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}

	box, err := secrets.NewBox(cfg.Secrets.KeyHex)
	if err != nil {
		logger.Fatal("Failed to init secret box", zap.Error(err))
	}
	if cfg.Secrets.KeyHex == "" {
		logger.Warn("secrets.key_hex not set, api keys stored unencrypted")
	}

	var limiter middleware.ExchangeLimiter
	if cfg.RateLimit.Enabled {
		rl := redisstore.NewLimiter(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.RateLimit.RequestsPerHour)
		defer rl.Close()
		limiter = rl
	}

	router := httpapi.NewRouter(gdb, cfg, logger, box, limiter)

	srv := &http.Server{
		Addr:         cfg.Address(),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("Starting eSaúdeZap server", zap.String("address", cfg.Address()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}
