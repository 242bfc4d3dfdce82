package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"opsdesk/internal/config"
)

// Redis is a Cache backed by a Redis server. Keys are namespaced under prefix.
type Redis struct {
	rdb        *redis.Client
	prefix     string
	defaultTTL time.Duration
	scanCount  int64
}

var _ Cache = (*Redis)(nil)

type RedisOption func(*Redis)

// WithPrefix namespaces every key as "<prefix>:<key>".
func WithPrefix(prefix string) RedisOption {
	return func(r *Redis) { r.prefix = strings.Trim(prefix, ":") }
}

// WithDefaultTTL is applied when Set is called with ttl <= 0.
func WithDefaultTTL(d time.Duration) RedisOption {
	return func(r *Redis) { r.defaultTTL = d }
}

func NewRedis(rdb *redis.Client, opts ...RedisOption) *Redis {
	r := &Redis{
		rdb:        rdb,
		prefix:     "opsdesk",
		defaultTTL: 5 * time.Minute,
		scanCount:  100,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// FromConfig returns a Redis cache when cfg enables it and the server answers,
// and Noop otherwise. The returned func closes the connection.
func FromConfig(ctx context.Context, cfg config.RedisConfig, log *zap.Logger) (Cache, func()) {
	if !cfg.Enabled {
		return Noop{}, func() {}
	}
	rdb, err := NewRedisClient(ctx, cfg)
	if err != nil {
		if log != nil {
			log.Warn("redis_unavailable", zap.String("addr", cfg.Addr), zap.Error(err))
		}
		return Noop{}, func() {}
	}
	return NewRedis(rdb, WithPrefix(cfg.Prefix), WithDefaultTTL(cfg.TTL)), func() { _ = rdb.Close() }
}

// NewRedisClient dials Redis from cfg and verifies the connection.
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if _, err := rdb.Ping(pingCtx).Result(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func (r *Redis) key(k string) string {
	if r.prefix == "" {
		return k
	}
	return r.prefix + ":" + k
}

func (r *Redis) Get(ctx context.Context, key string, dest any) (bool, error) {
	b, err := r.rdb.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("redis get %s: %w", key, err)
	}
	if err := json.Unmarshal(b, dest); err != nil {
		return false, fmt.Errorf("decode cached %s: %w", key, err)
	}
	return true, nil
}

func (r *Redis) Set(ctx context.Context, key string, val any, ttl time.Duration) error {
	b, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if ttl <= 0 {
		ttl = r.defaultTTL
	}
	if err := r.rdb.Set(ctx, r.key(key), b, ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// DeletePrefix walks matching keys with SCAN and deletes them in batches.
func (r *Redis) DeletePrefix(ctx context.Context, prefix string) error {
	iter := r.rdb.Scan(ctx, 0, r.key(prefix)+"*", r.scanCount).Iterator()

	batch := make([]string, 0, r.scanCount)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		err := r.rdb.Unlink(ctx, batch...).Err()
		batch = batch[:0]
		return err
	}

	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if int64(len(batch)) >= r.scanCount {
			if err := flush(); err != nil {
				return fmt.Errorf("redis unlink: %w", err)
			}
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("redis scan %s: %w", prefix, err)
	}
	if err := flush(); err != nil {
		return fmt.Errorf("redis unlink: %w", err)
	}
	return nil
}
