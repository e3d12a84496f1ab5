package obs

import (
	"context"
	"time"

	"bin-telemetry-service/internal/metrics"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Time logs and records the duration of an operation.
//
//	defer obs.Time(ctx, log, "readings.List")(&err)
func Time(ctx context.Context, log *zap.Logger, name string) func(errp *error) {
	start := time.Now()
	reqID := middleware.GetReqID(ctx)

	return func(errp *error) {
		dur := time.Since(start)

		status := "ok"
		fields := []zap.Field{
			zap.String("req_id", reqID),
			zap.String("op", name),
			zap.Int64("dur_ms", dur.Milliseconds()),
		}
		if errp != nil && *errp != nil {
			status = "error"
			log.Warn("operation failed", append(fields, zap.Error(*errp))...)
		} else {
			log.Debug("operation done", fields...)
		}

		metrics.OperationDuration.WithLabelValues(name, status).Observe(dur.Seconds())
	}
}
