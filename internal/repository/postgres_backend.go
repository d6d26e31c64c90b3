package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/lib/pq"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"virtual-bank/internal/errors"
	"virtual-bank/internal/observability"
	"virtual-bank/internal/resilience"
)

const (
	selectCollection          = `SELECT payload FROM collections WHERE key = $1`
	selectCollectionForUpdate = `SELECT payload FROM collections WHERE key = $1 FOR UPDATE`
	lockCollection            = `SELECT pg_advisory_xact_lock(hashtext($1))`
	upsertCollection          = `
		INSERT INTO collections (key, payload, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE
		SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at
	`
)

// SQLExecutor represents both sql.DB and sql.Tx
type SQLExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// DB represents a database that can begin transactions
type DB interface {
	SQLExecutor
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
	PingContext(ctx context.Context) error
	Close() error
}

// Ensure sql.DB and sql.Tx implement the interfaces
var (
	_ DB          = (*sql.DB)(nil)
	_ SQLExecutor = (*sql.Tx)(nil)
)

// PostgresBackend keeps collections as JSONB rows. Inside a transaction every
// key read takes a transaction-scoped advisory lock first, so concurrent
// transactions touching the same owner are serialized even when the row does
// not exist yet.
type PostgresBackend struct {
	db       DB
	executor SQLExecutor
	inTx     bool

	breaker  *gobreaker.CircuitBreaker
	bulkhead *resilience.Bulkhead
	retry    resilience.Config
	metrics  *observability.Metrics
	logger   *zap.Logger
}

func NewPostgresBackend(db DB, cfg resilience.Config, metrics *observability.Metrics, logger *zap.Logger) *PostgresBackend {
	return &PostgresBackend{
		db:       db,
		executor: db,
		breaker:  resilience.NewCircuitBreaker("postgres", isSuccessful),
		bulkhead: resilience.NewBulkhead(cfg.MaxConcurrency),
		retry:    cfg,
		metrics:  metrics,
		logger:   logger,
	}
}

// OpenPostgres opens a connection pool and waits for the database to answer,
// retrying with backoff.
func OpenPostgres(ctx context.Context, dsn string, cfg resilience.Config, metrics *observability.Metrics, logger *zap.Logger) (*PostgresBackend, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, errors.Internal("failed to open database", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	err = resilience.RetryWithBackoff(ctx, cfg, nil, func() error {
		if err := db.PingContext(ctx); err != nil {
			logger.Warn("Database not ready", zap.Error(err))
			return err
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, errors.ErrStorageUnavailable.WithDetails(err.Error())
	}

	return NewPostgresBackend(db, cfg, metrics, logger), nil
}

func (b *PostgresBackend) Get(ctx context.Context, key string) ([]byte, error) {
	if !b.inTx {
		var payload []byte
		err := b.guard(ctx, func() error {
			var err error
			payload, err = b.get(ctx, selectCollection, key)
			return err
		})
		return payload, err
	}

	if _, err := b.executor.ExecContext(ctx, lockCollection, key); err != nil {
		return nil, err
	}
	return b.get(ctx, selectCollectionForUpdate, key)
}

func (b *PostgresBackend) get(ctx context.Context, query, key string) ([]byte, error) {
	var payload []byte
	err := b.executor.QueryRowContext(ctx, query, key).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return payload, nil
}

func (b *PostgresBackend) Put(ctx context.Context, key string, payload []byte) error {
	put := func() error {
		// lib/pq sends []byte as bytea; jsonb needs the text form.
		_, err := b.executor.ExecContext(ctx, upsertCollection, key, string(payload), time.Now().UTC())
		return err
	}
	if b.inTx {
		return put()
	}
	return b.guard(ctx, put)
}

func (b *PostgresBackend) WithTransaction(ctx context.Context, fn func(Backend) error) error {
	if b.inTx {
		return fn(b)
	}

	attempt := 0
	return b.guard(ctx, func() error {
		return resilience.RetryWithBackoff(ctx, b.retry, isSerializationFailure, func() error {
			if attempt > 0 {
				b.metrics.IncrStorageRetry()
				b.logger.Warn("Retrying storage transaction", zap.Int("attempt", attempt))
			}
			attempt++
			return b.runTx(ctx, fn)
		})
	})
}

func (b *PostgresBackend) runTx(ctx context.Context, fn func(Backend) error) (err error) {
	tx, err := b.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	txBackend := &PostgresBackend{
		db:       b.db,
		executor: tx,
		inTx:     true,
		metrics:  b.metrics,
		logger:   b.logger,
	}

	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p)
		}
	}()

	if err := fn(txBackend); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit()
}

// guard runs op behind the bulkhead and the circuit breaker. An open breaker
// surfaces as storage_unavailable.
func (b *PostgresBackend) guard(ctx context.Context, op func() error) error {
	if err := b.bulkhead.Acquire(ctx); err != nil {
		return errors.ErrStorageUnavailable.WithDetails(err.Error())
	}
	defer b.bulkhead.Release()

	_, err := b.breaker.Execute(func() (interface{}, error) {
		return nil, op()
	})
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		b.logger.Error("Storage circuit open", zap.Error(err))
		return errors.ErrStorageUnavailable.WithDetails(err.Error())
	}
	return err
}

func (b *PostgresBackend) Ping(ctx context.Context) error {
	return b.db.PingContext(ctx)
}

func (b *PostgresBackend) Close() error {
	return b.db.Close()
}

// isSuccessful keeps rejected requests from tripping the breaker; only
// infrastructure errors count as failures.
func isSuccessful(err error) bool {
	if err == nil {
		return true
	}
	appErr, ok := errors.As(err)
	return ok && appErr.IsBusiness()
}

func isSerializationFailure(err error) bool {
	if pqErr, ok := err.(*pq.Error); ok {
		switch pqErr.Code {
		case "40001", "40P01": // serialization_failure, deadlock_detected
			return true
		}
	}
	return false
}
