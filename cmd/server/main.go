package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xaubot/xaubot/internal/config"
	"github.com/xaubot/xaubot/internal/domain"
	"github.com/xaubot/xaubot/internal/infrastructure/logger"
	"github.com/xaubot/xaubot/internal/infrastructure/market"
	"github.com/xaubot/xaubot/internal/infrastructure/storage"
	"github.com/xaubot/xaubot/internal/usecase"
	"github.com/xaubot/xaubot/internal/web"
)

func main() {
	// .env is optional; it only overrides the environment for local runs.
	_ = godotenv.Load()

	cfg, err := config.Load("config/config.yaml")
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(cfg.Logging.Level, cfg.Logging.Encoding)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	var positions domain.PositionRepository
	switch cfg.Storage.Driver {
	case "sqlite":
		store, err := storage.NewSQLiteStore(cfg.Storage.Path)
		if err != nil {
			log.Fatal("Failed to init sqlite", zap.Error(err))
		}
		defer store.Close()
		positions = store
	default:
		positions = storage.NewMemoryStore()
	}
	log.Info("storage initialized", zap.String("driver", cfg.Storage.Driver))

	simulator := market.NewSimulator(cfg.Market.Seed, time.Duration(cfg.Market.TickMs)*time.Millisecond, log)

	trading := usecase.NewTradingService(positions, log)
	risk := usecase.NewRiskService(positions, simulator, decimal.NewFromFloat(cfg.Trading.AccountValue), log)

	server := web.NewServer(cfg.Server.Port, trading, risk, simulator, usecase.BacktestConfig{}, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go simulator.Run(ctx)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Info("Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Shutdown failed", zap.Error(err))
	}
}
