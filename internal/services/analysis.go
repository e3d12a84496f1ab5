package services

import (
	"context"
	"fmt"
	"time"

	"bin-telemetry-service/internal/analytics"
	"bin-telemetry-service/internal/domain"
	"bin-telemetry-service/internal/metrics"
	"bin-telemetry-service/internal/platform/obs"
	"bin-telemetry-service/internal/ports"

	"go.uber.org/zap"
)

// AnalysisService runs the analytics engine over stored readings.
type AnalysisService struct {
	readings ports.ReadingRepository
	engine   *analytics.Engine
	cache    ports.InsightCache
	log      *zap.Logger
}

// NewAnalysisService wires the service. cache may be nil.
func NewAnalysisService(
	readings ports.ReadingRepository,
	engine *analytics.Engine,
	cache ports.InsightCache,
	log *zap.Logger,
) *AnalysisService {
	return &AnalysisService{readings: readings, engine: engine, cache: cache, log: log}
}

// Analyze fetches the readings in [from, to] once and produces fill-rate
// estimates, full-time predictions and the pickup list relative to now.
func (s *AnalysisService) Analyze(ctx context.Context, from, to, now time.Time) (_ *analytics.Report, err error) {
	defer obs.Time(ctx, s.log, "analysis.Analyze")(&err)
	start := time.Now()

	readings, err := s.readings.ListReadings(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}

	report, err := s.engine.Run(ctx, readings, now.UTC())
	if err != nil {
		return nil, fmt.Errorf("analyze: %w", err)
	}

	metrics.AnalysisLatency.Observe(time.Since(start).Seconds())
	metrics.DevicesAnalyzed.Set(float64(len(report.Estimates)))
	metrics.DevicesDue.Set(float64(len(report.Due)))
	metrics.DevicesLowFillRate.Set(float64(len(report.LowFillRate)))

	return report, nil
}

// Insights returns the per-device insight report for [from, to], served
// from the cache when possible. Cache failures degrade to recomputation.
func (s *AnalysisService) Insights(ctx context.Context, from, to time.Time) (_ map[string]domain.Insight, err error) {
	defer obs.Time(ctx, s.log, "analysis.Insights")(&err)

	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, from, to)
		switch {
		case err != nil:
			metrics.InsightCacheRequests.WithLabelValues("error").Inc()
			s.log.Warn("insight cache read failed", zap.Error(err))
		case ok:
			metrics.InsightCacheRequests.WithLabelValues("hit").Inc()
			return cached, nil
		default:
			metrics.InsightCacheRequests.WithLabelValues("miss").Inc()
		}
	}

	readings, err := s.readings.ListReadings(ctx, from, to)
	if err != nil {
		return nil, fmt.Errorf("insights: %w", err)
	}

	insights, err := s.engine.Insights(ctx, readings, from, to)
	if err != nil {
		return nil, fmt.Errorf("insights: %w", err)
	}

	anomalies := 0
	for _, ins := range insights {
		anomalies += ins.AnomalyCount
	}
	metrics.AnomaliesReported.Add(float64(anomalies))

	if s.cache != nil {
		if err := s.cache.Put(ctx, from, to, insights); err != nil {
			s.log.Warn("insight cache write failed", zap.Error(err))
		}
	}

	return insights, nil
}

// InvalidateInsights drops cached insight reports after new readings land.
func (s *AnalysisService) InvalidateInsights(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		s.log.Warn("insight cache invalidation failed", zap.Error(err))
	}
}
