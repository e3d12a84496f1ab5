package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"bin-telemetry-service/internal/domain"
	"bin-telemetry-service/internal/platform/obs"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const DefaultKeyPrefix = "bins:insights:"

// RedisInsightCache stores insight reports per date range as JSON blobs.
type RedisInsightCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	log    *zap.Logger
}

func NewRedisInsightCache(client *redis.Client, ttl time.Duration, log *zap.Logger) *RedisInsightCache {
	return &RedisInsightCache{
		client: client,
		prefix: DefaultKeyPrefix,
		ttl:    ttl,
		log:    log,
	}
}

// NewRedisClient connects and pings, failing fast on a bad address.
func NewRedisClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		PoolSize:     20,
		MinIdleConns: 2,
		MaxRetries:   3,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis %s: %w", addr, err)
	}
	return client, nil
}

func (c *RedisInsightCache) key(from, to time.Time) string {
	return c.prefix + bound(from) + ":" + bound(to)
}

func bound(t time.Time) string {
	if t.IsZero() {
		return "open"
	}
	return strconv.FormatInt(t.UnixNano(), 10)
}

func (c *RedisInsightCache) Get(
	ctx context.Context,
	from, to time.Time,
) (_ map[string]domain.Insight, _ bool, err error) {
	defer obs.Time(ctx, c.log, "insights.cache.Get")(&err)

	raw, err := c.client.Get(ctx, c.key(from, to)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get insight cache: %w", err)
	}

	var out map[string]domain.Insight
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, false, fmt.Errorf("get insight cache: decode: %w", err)
	}
	return out, true, nil
}

func (c *RedisInsightCache) Put(
	ctx context.Context,
	from, to time.Time,
	insights map[string]domain.Insight,
) (err error) {
	defer obs.Time(ctx, c.log, "insights.cache.Put")(&err)

	raw, err := json.Marshal(insights)
	if err != nil {
		return fmt.Errorf("put insight cache: encode: %w", err)
	}

	if err := c.client.Set(ctx, c.key(from, to), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("put insight cache: %w", err)
	}
	return nil
}

// Invalidate drops every cached range under the prefix.
func (c *RedisInsightCache) Invalidate(ctx context.Context) (err error) {
	defer obs.Time(ctx, c.log, "insights.cache.Invalidate")(&err)

	iter := c.client.Scan(ctx, 0, c.prefix+"*", 100).Iterator()

	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("invalidate insight cache: scan: %w", err)
	}

	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("invalidate insight cache: del: %w", err)
	}
	return nil
}
