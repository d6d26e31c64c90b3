package repository

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"virtual-bank/internal/config"
	"virtual-bank/internal/observability"
	"virtual-bank/internal/resilience"
)

// Open builds the Store for the configured backend.
func Open(ctx context.Context, cfg *config.Config, metrics *observability.Metrics, logger *zap.Logger) (*Store, error) {
	switch cfg.StorageBackend {
	case config.BackendSnapshot:
		backend, err := OpenSnapshot(cfg.SnapshotPath, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("Using snapshot storage", zap.String("path", cfg.SnapshotPath))
		return NewStore(backend, logger), nil

	case config.BackendPostgres:
		backend, err := OpenPostgres(ctx, cfg.GetDBConnectionString(), resilience.Config{
			MaxRetries:     cfg.DBMaxRetries,
			InitialBackoff: cfg.DBInitialBackoff,
			MaxConcurrency: cfg.DBMaxConcurrency,
		}, metrics, logger)
		if err != nil {
			return nil, err
		}
		logger.Info("Successfully connected to database",
			zap.String("host", cfg.DBHost), zap.String("database", cfg.DBName))
		return NewStore(backend, logger), nil
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
}
