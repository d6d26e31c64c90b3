package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"virtual-bank/internal/config"
	"virtual-bank/internal/observability"
	"virtual-bank/internal/server"
)

func main() {
	_ = config.LoadDotEnv(".env")

	// Load configuration
	cfg := config.Load()

	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	if err := cfg.Validate(); err != nil {
		logger.Fatal("Invalid configuration", zap.Error(err))
	}

	shutdownTracer, err := observability.InitTracer(cfg.OTLPEndpoint, "virtual-bank")
	if err != nil {
		logger.Fatal("Failed to initialize tracer", zap.Error(err))
	}

	serverInstance, port, err := server.StartServer(cfg)
	if err != nil {
		logger.Fatal("Failed to start server", zap.Error(err))
	}

	logger.Info("Server started successfully",
		zap.String("port", port),
		zap.String("storage", cfg.StorageBackend),
		zap.String("daily_limit_policy", cfg.DailyLimitPolicy))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	// Create context with timeout for shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := serverInstance.Stop(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}
	if err := shutdownTracer(shutdownCtx); err != nil {
		logger.Error("Tracer shutdown failed", zap.Error(err))
	}

	logger.Info("Server stopped")
}
