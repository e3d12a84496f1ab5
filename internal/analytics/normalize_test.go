package analytics

import (
	"testing"
	"time"

	"bin-telemetry-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupByDevice(t *testing.T) {
	readings := []domain.Reading{
		{DeviceID: "b", LevelPercent: 30, Timestamp: t0.Add(time.Hour)},
		{DeviceID: "a", LevelPercent: 20, Timestamp: t0.Add(2 * time.Hour)},
		{DeviceID: "a", LevelPercent: 10, Timestamp: t0},
		{DeviceID: "a", LevelPercent: 99, Timestamp: t0},
		{DeviceID: "b", LevelPercent: 25, Timestamp: t0},
	}

	grouped := GroupByDevice(readings)
	require.Len(t, grouped, 2)

	a := grouped["a"]
	require.Len(t, a, 2, "duplicate timestamp dropped")
	assert.Equal(t, 10.0, a[0].LevelPercent, "first duplicate wins")
	assert.Equal(t, 20.0, a[1].LevelPercent)

	b := grouped["b"]
	require.Len(t, b, 2)
	assert.True(t, b[0].Timestamp.Before(b[1].Timestamp))

	// input order preserved
	assert.Equal(t, "b", readings[0].DeviceID)
}

func TestFilterRange(t *testing.T) {
	s := series("x", 0, 1, 1, 2, 2, 3, 3, 4)

	assert.Len(t, FilterRange(s, time.Time{}, time.Time{}), 4)
	assert.Len(t, FilterRange(s, t0.Add(time.Hour), time.Time{}), 3)
	assert.Len(t, FilterRange(s, time.Time{}, t0.Add(time.Hour)), 2)
	assert.Len(t, FilterRange(s, t0.Add(4*time.Hour), time.Time{}), 0)
}

func TestLatest(t *testing.T) {
	_, ok := Latest(nil)
	assert.False(t, ok)

	r, ok := Latest(series("x", 3, 40, 1, 90, 2, 10))
	require.True(t, ok)
	assert.Equal(t, 40.0, r.LevelPercent)
}
