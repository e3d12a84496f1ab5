package ports

import (
	"context"
	"time"

	"bin-telemetry-service/internal/domain"
)

// Cache for insight reports keyed by date range.
// A miss returns (nil, false, nil).
type InsightCache interface {
	Get(ctx context.Context, from, to time.Time) (map[string]domain.Insight, bool, error)
	Put(ctx context.Context, from, to time.Time, insights map[string]domain.Insight) error
	// Drop every cached range, e.g. after new readings arrive.
	Invalidate(ctx context.Context) error
}
