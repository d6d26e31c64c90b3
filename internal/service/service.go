// Package service runs the ledger operations and projections against the
// store. Every mutation happens inside one store transaction.
package service

import (
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"virtual-bank/internal/errors"
	"virtual-bank/internal/observability"
)

var tracer = otel.Tracer("service/ledger")

func requireOwner(ownerID string) error {
	if strings.TrimSpace(ownerID) == "" {
		return errors.ErrInvalidInput.WithDetails("user id is required")
	}
	return nil
}

// resultCode is the metric label for an operation outcome.
func resultCode(err error) string {
	if err == nil {
		return "ok"
	}
	if appErr, ok := errors.As(err); ok {
		return string(appErr.Code)
	}
	return string(errors.InternalError)
}

// finish records the outcome of an operation on its span, its metrics and
// the log. Rejected requests log at Warn, infrastructure failures at Error.
func finish(span trace.Span, metrics *observability.Metrics, logger *zap.Logger, op string, start time.Time, err error, fields ...zap.Field) {
	metrics.ObserveOperation(op, resultCode(err), time.Since(start))

	if err == nil {
		logger.Info(op+" completed", fields...)
		return
	}

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	fields = append(fields, zap.Error(err))
	if appErr, ok := errors.As(err); ok && appErr.IsBusiness() {
		logger.Warn(op+" rejected", fields...)
		return
	}
	logger.Error(op+" failed", fields...)
}
