package cache

import (
	"context"
	"errors"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/wanderblog/apiserver/config"
)

// Redis is a Cache backed by a Redis server. All keys are namespaced
// under a configurable prefix.
type Redis struct {
	client redis.UniversalClient
	prefix string
	logger *slog.Logger
}

// New returns a Redis cache when an address is configured, otherwise the
// Disabled cache.
func New(cfg config.RedisConfig, logger *slog.Logger) Cache {
	if cfg.Addr == "" {
		return Disabled{}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	return NewRedis(client, cfg.Prefix, logger)
}

// NewRedis wraps an existing client. Useful for tests.
func NewRedis(client redis.UniversalClient, prefix string, logger *slog.Logger) *Redis {
	if logger == nil {
		logger = slog.Default()
	}
	return &Redis{client: client, prefix: prefix, logger: logger}
}

func (r *Redis) key(key string) string {
	if r.prefix == "" {
		return key
	}
	return r.prefix + ":" + key
}

func (r *Redis) Get(ctx context.Context, key string) (string, bool) {
	value, err := r.client.Get(ctx, r.key(key)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn("cache get degraded to miss", "key", key, "error", err)
		}
		return "", false
	}
	return value, true
}

func (r *Redis) Set(ctx context.Context, key, value string) {
	if err := r.client.Set(ctx, r.key(key), value, 0).Err(); err != nil {
		r.logger.Warn("cache set skipped", "key", key, "error", err)
	}
}

func (r *Redis) Exists(ctx context.Context, key string) bool {
	n, err := r.client.Exists(ctx, r.key(key)).Result()
	if err != nil {
		r.logger.Warn("cache exists degraded to false", "key", key, "error", err)
		return false
	}
	return n > 0
}

func (r *Redis) Del(ctx context.Context, key string) {
	cacheKey := r.key(key)
	n, err := r.client.Exists(ctx, cacheKey).Result()
	if err != nil || n == 0 {
		if err != nil {
			r.logger.Warn("cache delete skipped", "key", key, "error", err)
		}
		return
	}
	if err := r.client.Del(ctx, cacheKey).Err(); err != nil {
		r.logger.Warn("cache delete skipped", "key", key, "error", err)
	}
}

func (r *Redis) Enabled() bool {
	return true
}
