package cache

import (
	"context"
	"testing"
	"time"

	"bin-telemetry-service/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client, *RedisInsightCache) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return mr, client, NewRedisInsightCache(client, time.Minute, zap.NewNop())
}

var (
	from = time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to   = time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC)
)

func sampleInsights() map[string]domain.Insight {
	return map[string]domain.Insight{
		"1": {
			DeviceID:     "1",
			Pings:        4,
			LastSeen:     to.Add(-time.Hour),
			AnomalyCount: 1,
			Anomalies: []domain.AnomalyGroup{
				{Level: "115%", Occurrences: 1, Timestamps: []time.Time{from.Add(time.Hour)}},
			},
			SuddenChangeCount: 1,
			SuddenChanges: []domain.SuddenChangeGroup{{
				Key: "80% to 5%", From: 80, To: 5, Occurrences: 1,
				Intervals: []domain.ChangeInterval{{Start: from, End: from.Add(time.Hour)}},
			}},
			EmptyingEventCount: 1,
			AverageFillRate:    2.5,
		},
	}
}

func TestRedisInsightCacheMissThenHit(t *testing.T) {
	_, _, c := setupTestRedis(t)
	ctx := context.Background()

	got, ok, err := c.Get(ctx, from, to)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, got)

	want := sampleInsights()
	require.NoError(t, c.Put(ctx, from, to, want))

	got, ok, err = c.Get(ctx, from, to)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, want, got)

	_, ok, err = c.Get(ctx, from, time.Time{})
	require.NoError(t, err)
	assert.False(t, ok, "different range is a different key")
}

func TestRedisInsightCacheSubSecondRanges(t *testing.T) {
	_, _, c := setupTestRedis(t)
	ctx := context.Background()

	later := to.Add(500 * time.Millisecond)
	assert.NotEqual(t, c.key(from, to), c.key(from, later))

	require.NoError(t, c.Put(ctx, from, to, sampleInsights()))

	_, ok, err := c.Get(ctx, from, later)
	require.NoError(t, err)
	assert.False(t, ok, "ranges differing below one second do not share an entry")
}

func TestRedisInsightCacheTTL(t *testing.T) {
	mr, _, c := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, from, to, sampleInsights()))
	mr.FastForward(2 * time.Minute)

	_, ok, err := c.Get(ctx, from, to)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisInsightCacheInvalidate(t *testing.T) {
	mr, client, c := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Put(ctx, from, to, sampleInsights()))
	require.NoError(t, c.Put(ctx, time.Time{}, to, sampleInsights()))
	require.NoError(t, client.Set(ctx, "unrelated", "keep", 0).Err())

	require.NoError(t, c.Invalidate(ctx))

	_, ok, err := c.Get(ctx, from, to)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.True(t, mr.Exists("unrelated"))

	require.NoError(t, c.Invalidate(ctx), "empty cache")
}

func TestRedisInsightCacheCorruptEntry(t *testing.T) {
	_, client, c := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, c.key(from, to), "not json", 0).Err())

	_, _, err := c.Get(ctx, from, to)
	assert.Error(t, err)
}
