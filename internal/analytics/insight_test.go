package analytics

import (
	"testing"
	"time"

	"bin-telemetry-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeInsightsAnomaly(t *testing.T) {
	ins := AnalyzeInsights(series("9", 0, 50, 1, 115, 2, 60), time.Time{}, time.Time{}, DefaultConfig())

	assert.Equal(t, 1, ins.AnomalyCount)
	require.Len(t, ins.Anomalies, 1)
	assert.Equal(t, "115%", ins.Anomalies[0].Level)
	assert.Equal(t, 1, ins.Anomalies[0].Occurrences)
	assert.Equal(t, []time.Time{t0.Add(time.Hour)}, ins.Anomalies[0].Timestamps)
}

func TestAnalyzeInsightsGroupsAnomaliesByLevel(t *testing.T) {
	ins := AnalyzeInsights(series("9", 0, -5, 1, 115, 2, -5, 3, 40), time.Time{}, time.Time{}, DefaultConfig())

	assert.Equal(t, 3, ins.AnomalyCount)
	require.Len(t, ins.Anomalies, 2)
	assert.Equal(t, "-5%", ins.Anomalies[0].Level)
	assert.Equal(t, 2, ins.Anomalies[0].Occurrences)
	assert.Equal(t, "115%", ins.Anomalies[1].Level)
}

func TestAnalyzeInsightsSuddenChanges(t *testing.T) {
	// 10 -> 50 twice, 50 -> 80 is exactly 30 and does not count
	s := series("8", 0, 10, 1, 50, 2, 80, 3, 10, 4, 50)
	ins := AnalyzeInsights(s, time.Time{}, time.Time{}, DefaultConfig())

	assert.Equal(t, 3, ins.SuddenChangeCount)
	require.Len(t, ins.SuddenChanges, 2)

	first := ins.SuddenChanges[0]
	assert.Equal(t, "10% to 50%", first.Key)
	assert.Equal(t, 2, first.Occurrences)
	assert.Equal(t, []domain.ChangeInterval{
		{Start: t0, End: t0.Add(time.Hour)},
		{Start: t0.Add(3 * time.Hour), End: t0.Add(4 * time.Hour)},
	}, first.Intervals)

	assert.Equal(t, "80% to 10%", ins.SuddenChanges[1].Key)
}

func TestAnalyzeInsightsEmptyingEvents(t *testing.T) {
	// 60 -> 8 and 45 -> 10 are emptyings; 60 -> 12 and 15 -> 0 are not
	s := series("7", 0, 60, 1, 8, 2, 45, 3, 10, 4, 60, 5, 12, 6, 15, 7, 0)
	ins := AnalyzeInsights(s, time.Time{}, time.Time{}, DefaultConfig())
	assert.Equal(t, 2, ins.EmptyingEventCount)

	cfg := DefaultConfig()
	cfg.EmptyingToPercent = 5
	ins = AnalyzeInsights(s, time.Time{}, time.Time{}, cfg)
	assert.Equal(t, 0, ins.EmptyingEventCount)
}

func TestAnalyzeInsightsAverageFillRate(t *testing.T) {
	s := series("6", 0, 10, 3, 40, 4, 2, 6, 12)
	ins := AnalyzeInsights(s, time.Time{}, time.Time{}, DefaultConfig())
	assert.InDelta(t, 7.5, ins.AverageFillRate, 1e-9)
}

func TestAnalyzeInsightsDateRange(t *testing.T) {
	s := series("5", 0, 120, 1, 10, 2, 60, 3, -4)
	ins := AnalyzeInsights(s, t0.Add(time.Hour), t0.Add(2*time.Hour), DefaultConfig())

	assert.Equal(t, 2, ins.Pings)
	assert.Equal(t, 0, ins.AnomalyCount)
	assert.Equal(t, 1, ins.SuddenChangeCount)
	assert.Equal(t, t0.Add(2*time.Hour), ins.LastSeen)
}

func TestAnalyzeInsightsEmpty(t *testing.T) {
	ins := AnalyzeInsights(nil, time.Time{}, time.Time{}, DefaultConfig())
	assert.Zero(t, ins.AnomalyCount)
	assert.Zero(t, ins.SuddenChangeCount)
	assert.Zero(t, ins.EmptyingEventCount)
	assert.Zero(t, ins.AverageFillRate)
	assert.NotNil(t, ins.Anomalies)
}

func TestAnalyzeInsightsIsIdempotent(t *testing.T) {
	s := series("4", 3, 105, 0, 10, 1, 50, 2, 2, 4, 70)
	cfg := DefaultConfig()

	first := AnalyzeInsights(s, t0, t0.Add(5*time.Hour), cfg)
	second := AnalyzeInsights(s, t0, t0.Add(5*time.Hour), cfg)
	assert.Equal(t, first, second)
}
