package analytics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"bin-telemetry-service/internal/domain"

	"golang.org/x/sync/errgroup"
)

// Report is the scheduling output of one analysis pass.
type Report struct {
	GeneratedAt time.Time
	Estimates   map[string]domain.FillRateEstimate
	Predictions map[string]domain.FullTimePrediction
	Due         []string
	LowFillRate []string
}

// Engine runs analysis passes over an immutable snapshot of readings.
// Devices are independent and processed concurrently; each device's series
// is processed sequentially.
type Engine struct {
	cfg Config
}

func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("new engine: %w", err)
	}
	return &Engine{cfg: cfg}, nil
}

func (e *Engine) Config() Config { return e.cfg }

type deviceResult struct {
	estimate   domain.FillRateEstimate
	prediction domain.FullTimePrediction
}

// Run estimates fill rates, predicts full times and selects devices due for
// pickup relative to now. Empty input yields an empty report.
func (e *Engine) Run(ctx context.Context, readings []domain.Reading, now time.Time) (*Report, error) {
	series := GroupByDevice(readings)

	var mu sync.Mutex
	results := make(map[string]deviceResult, len(series))

	err := e.forEachDevice(ctx, series, func(id string, s domain.DeviceSeries) {
		est := EstimateFillRate(s, e.cfg.EstimatorReset())
		est.DeviceID = id

		latest, _ := Latest(s)
		latest.DeviceID = id
		pred := PredictFullTime(latest, est.RatePercentPerHour, e.cfg)

		mu.Lock()
		results[id] = deviceResult{estimate: est, prediction: pred}
		mu.Unlock()
	})
	if err != nil {
		return nil, fmt.Errorf("run analysis: %w", err)
	}

	report := &Report{
		GeneratedAt: now,
		Estimates:   make(map[string]domain.FillRateEstimate, len(results)),
		Predictions: make(map[string]domain.FullTimePrediction, len(results)),
	}
	for id, r := range results {
		report.Estimates[id] = r.estimate
		report.Predictions[id] = r.prediction
	}
	report.Due = DueForPickup(report.Predictions, now, e.cfg)
	report.LowFillRate = LowFillRate(report.Estimates, e.cfg)

	return report, nil
}

// Insights builds the descriptive report for every device over [from, to].
func (e *Engine) Insights(ctx context.Context, readings []domain.Reading, from, to time.Time) (map[string]domain.Insight, error) {
	series := GroupByDevice(readings)

	var mu sync.Mutex
	out := make(map[string]domain.Insight, len(series))

	err := e.forEachDevice(ctx, series, func(id string, s domain.DeviceSeries) {
		ins := AnalyzeInsights(s, from, to, e.cfg)
		ins.DeviceID = id

		mu.Lock()
		out[id] = ins
		mu.Unlock()
	})
	if err != nil {
		return nil, fmt.Errorf("analyze insights: %w", err)
	}
	return out, nil
}

func (e *Engine) forEachDevice(
	ctx context.Context,
	series map[string]domain.DeviceSeries,
	fn func(id string, s domain.DeviceSeries),
) error {
	g, ctx := errgroup.WithContext(ctx)
	if e.cfg.Parallelism > 0 {
		g.SetLimit(e.cfg.Parallelism)
	}

	for id, s := range series {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			fn(id, s)
			return nil
		})
	}
	return g.Wait()
}
