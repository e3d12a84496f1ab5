package analytics

import (
	"testing"
	"time"

	"bin-telemetry-service/internal/domain"

	"github.com/stretchr/testify/assert"
)

var t0 = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

func series(id string, points ...float64) domain.DeviceSeries {
	// points are (hoursFromT0, level) pairs
	out := make(domain.DeviceSeries, 0, len(points)/2)
	for i := 0; i+1 < len(points); i += 2 {
		out = append(out, domain.Reading{
			DeviceID:     id,
			Timestamp:    t0.Add(time.Duration(points[i] * float64(time.Hour))),
			LevelPercent: points[i+1],
		})
	}
	return out
}

func TestEstimateFillRateSingleIncreasingRun(t *testing.T) {
	est := EstimateFillRate(series("1", 0, 10, 2, 40), AnyDecrease{})
	assert.Equal(t, "1", est.DeviceID)
	assert.InDelta(t, 15.0, est.RatePercentPerHour, 1e-9)

	est = EstimateFillRate(series("1", 0, 10, 1, 20, 3, 20, 6, 50), AnyDecrease{})
	assert.InDelta(t, 40.0/6.0, est.RatePercentPerHour, 1e-9)
}

func TestEstimateFillRateResetsOnEmptying(t *testing.T) {
	est := EstimateFillRate(series("2", 0, 90, 1, 5), AnyDecrease{})
	assert.Equal(t, 0.0, est.RatePercentPerHour)

	// accumulation restarts from the post-drop reading
	est = EstimateFillRate(series("2", 0, 10, 2, 50, 3, 5, 5, 25), AnyDecrease{})
	assert.InDelta(t, 10.0, est.RatePercentPerHour, 1e-9)
}

func TestEstimateFillRateDegenerateSeries(t *testing.T) {
	assert.Equal(t, 0.0, EstimateFillRate(nil, AnyDecrease{}).RatePercentPerHour)
	assert.Equal(t, 0.0, EstimateFillRate(series("3", 0, 40), AnyDecrease{}).RatePercentPerHour)
	assert.Equal(t, 0.0, EstimateFillRate(series("3", 0, 80, 1, 60, 2, 40, 3, 10), AnyDecrease{}).RatePercentPerHour)

	// identical timestamps never divide by zero
	assert.Equal(t, 0.0, EstimateFillRate(series("3", 1, 10, 1, 30), AnyDecrease{}).RatePercentPerHour)
}

func TestEstimateFillRateSortsInput(t *testing.T) {
	unsorted := series("4", 2, 40, 0, 10)
	est := EstimateFillRate(unsorted, AnyDecrease{})
	assert.InDelta(t, 15.0, est.RatePercentPerHour, 1e-9)

	// caller's slice is untouched
	assert.Equal(t, 40.0, unsorted[0].LevelPercent)
}

func TestResetStrategiesDiverge(t *testing.T) {
	s := series("5", 0, 30, 1, 25, 2, 45)

	anyDrop := EstimateFillRate(s, AnyDecrease{})
	assert.InDelta(t, 20.0, anyDrop.RatePercentPerHour, 1e-9)

	threshold := EstimateFillRate(s, ThresholdDrop{From: 20, To: 10})
	assert.InDelta(t, 7.5, threshold.RatePercentPerHour, 1e-9)
}

func TestThresholdDrop(t *testing.T) {
	d := ThresholdDrop{From: 20, To: 10}
	assert.True(t, d.IsReset(21, 10))
	assert.False(t, d.IsReset(20, 0), "previous level must exceed From")
	assert.False(t, d.IsReset(60, 11))
	assert.Equal(t, "drop>20<=10", d.Name())

	assert.True(t, AnyDecrease{}.IsReset(10, 9.5))
	assert.False(t, AnyDecrease{}.IsReset(10, 10))
}

func TestServiceIntervalRate(t *testing.T) {
	// 10 -> 40 over 3h (10%/h), emptied to 2, then 2 -> 12 over 2h (5%/h)
	s := series("6", 0, 10, 3, 40, 4, 2, 6, 12)
	assert.InDelta(t, 7.5, ServiceIntervalRate(s, ThresholdDrop{From: 20, To: 5}), 1e-9)

	assert.Equal(t, 0.0, ServiceIntervalRate(series("6", 0, 50), ThresholdDrop{From: 20, To: 5}))
}

func TestEstimateFillRates(t *testing.T) {
	grouped := map[string]domain.DeviceSeries{
		"a": series("a", 0, 10, 2, 40),
		"b": series("b", 0, 90, 1, 5),
	}
	got := EstimateFillRates(grouped, DefaultConfig())
	assert.Len(t, got, 2)
	assert.InDelta(t, 15.0, got["a"].RatePercentPerHour, 1e-9)
	assert.Equal(t, 0.0, got["b"].RatePercentPerHour)
}
