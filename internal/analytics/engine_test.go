package analytics

import (
	"context"
	"fmt"
	"testing"
	"time"

	"bin-telemetry-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngineRun(t *testing.T) {
	engine, err := NewEngine(DefaultConfig())
	require.NoError(t, err)

	readings := append(series("1", 2, 40, 0, 10), series("2", 0, 90, 1, 5)...)
	now := t0.Add(2 * time.Hour)

	report, err := engine.Run(context.Background(), readings, now)
	require.NoError(t, err)

	assert.InDelta(t, 15.0, report.Estimates["1"].RatePercentPerHour, 1e-9)
	assert.InDelta(t, 35.0/15.0, report.Predictions["1"].HoursUntilFull, 1e-9)
	assert.Equal(t, 0.0, report.Estimates["2"].RatePercentPerHour)
	assert.True(t, report.Predictions["2"].Never)

	assert.Equal(t, []string{"1"}, report.Due)
	assert.Equal(t, []string{"2"}, report.LowFillRate)
	assert.Equal(t, now, report.GeneratedAt)
}

func TestEngineRunEmpty(t *testing.T) {
	engine, err := NewEngine(DefaultConfig())
	require.NoError(t, err)

	report, err := engine.Run(context.Background(), nil, t0)
	require.NoError(t, err)
	assert.Empty(t, report.Estimates)
	assert.Empty(t, report.Due)
}

func TestEngineRunManyDevicesInParallel(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Parallelism = 3
	engine, err := NewEngine(cfg)
	require.NoError(t, err)

	var readings []domain.Reading
	for i := 0; i < 50; i++ {
		readings = append(readings, series(fmt.Sprintf("d%02d", i), 0, 10, 1, 10+float64(i))...)
	}

	report, err := engine.Run(context.Background(), readings, t0.Add(time.Hour))
	require.NoError(t, err)
	require.Len(t, report.Estimates, 50)
	for i := 0; i < 50; i++ {
		id := fmt.Sprintf("d%02d", i)
		assert.InDelta(t, float64(i), report.Estimates[id].RatePercentPerHour, 1e-9, id)
	}
}

func TestEngineRunHonorsCancellation(t *testing.T) {
	engine, err := NewEngine(DefaultConfig())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = engine.Run(ctx, series("1", 0, 10, 1, 20), t0)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestEngineInsights(t *testing.T) {
	engine, err := NewEngine(DefaultConfig())
	require.NoError(t, err)

	readings := append(series("a", 0, 115, 1, 40), series("b", 0, 60, 1, 8)...)
	insights, err := engine.Insights(context.Background(), readings, time.Time{}, time.Time{})
	require.NoError(t, err)

	require.Len(t, insights, 2)
	assert.Equal(t, 1, insights["a"].AnomalyCount)
	assert.Equal(t, 1, insights["b"].EmptyingEventCount)
}

func TestNewEngineRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxFillPercent = 0
	cfg.EmptyingToPercent = 50

	_, err := NewEngine(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_fill_percent")
	assert.Contains(t, err.Error(), "emptying drop")
}
