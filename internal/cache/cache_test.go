package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"opsdesk/internal/config"
)

func TestNoop(t *testing.T) {
	ctx := context.Background()
	var c Cache = Noop{}

	require.NoError(t, c.Set(ctx, "k", 1, time.Minute))
	var v int
	hit, err := c.Get(ctx, "k", &v)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.NoError(t, c.DeletePrefix(ctx, AnalyticsPrefix))
}

func TestRedisKey(t *testing.T) {
	r := NewRedis(nil, WithPrefix(":opsdesk:"), WithDefaultTTL(time.Minute))
	assert.Equal(t, "opsdesk:analytics:revenue", r.key("analytics:revenue"))
	assert.Equal(t, time.Minute, r.defaultTTL)

	r = NewRedis(nil, WithPrefix(""))
	assert.Equal(t, "analytics:revenue", r.key("analytics:revenue"))
}

func TestRedis_BackendDown(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()

	r := NewRedis(rdb)
	ctx := context.Background()

	var v map[string]any
	hit, err := r.Get(ctx, "analytics:x", &v)
	assert.False(t, hit)
	assert.ErrorContains(t, err, "redis get analytics:x")

	assert.ErrorContains(t, r.Set(ctx, "analytics:x", map[string]int{"a": 1}, 0), "redis set")
	assert.ErrorContains(t, r.DeletePrefix(ctx, AnalyticsPrefix), "redis scan")
}

func TestRedis_SetRejectsUnencodable(t *testing.T) {
	r := NewRedis(nil)
	err := r.Set(context.Background(), "k", make(chan int), time.Minute)
	assert.ErrorContains(t, err, "encode k")
}

func TestFromConfig(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled", func(t *testing.T) {
		c, closeFn := FromConfig(ctx, config.RedisConfig{}, nil)
		defer closeFn()
		assert.IsType(t, Noop{}, c)
	})

	t.Run("unreachable server degrades to noop", func(t *testing.T) {
		core, logs := observer.New(zapcore.WarnLevel)
		c, closeFn := FromConfig(ctx, config.RedisConfig{Enabled: true, Addr: "127.0.0.1:1"}, zap.New(core))
		defer closeFn()

		assert.IsType(t, Noop{}, c)
		require.Equal(t, 1, logs.FilterMessage("redis_unavailable").Len())
		assert.Equal(t, "127.0.0.1:1", logs.All()[0].ContextMap()["addr"])
	})
}
