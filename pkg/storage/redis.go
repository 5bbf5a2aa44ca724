package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bookbuddy/storefront/pkg/config"
	"github.com/bookbuddy/storefront/pkg/logger"
	"github.com/redis/go-redis/v9"
)

type cmdable interface {
	Ping(context.Context) *redis.StatusCmd
	Set(context.Context, string, any, time.Duration) *redis.StatusCmd
	Get(context.Context, string) *redis.StringCmd
	Del(context.Context, ...string) *redis.IntCmd
}

// RedisStore mirrors values under "<namespace>:<key>" without expiry.
type RedisStore struct {
	store     cmdable
	raw       *redis.Client
	namespace string
}

// OpenRedis bootstraps a Redis client with pooling/timeouts and verifies connectivity.
func OpenRedis(ctx context.Context, cfg config.RedisConfig, namespace string, logg *logger.Logger) (*RedisStore, error) {
	opts, err := optionsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	raw := redis.NewClient(opts)
	if err := raw.Ping(ctx).Err(); err != nil {
		_ = raw.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	if logg != nil {
		logg.Info(logg.WithField(ctx, "driver", config.StorageDriverRedis), "storage connection established")
	}
	return &RedisStore{store: raw, raw: raw, namespace: normalizeNamespace(namespace)}, nil
}

func newRedisStore(store cmdable, namespace string) *RedisStore {
	return &RedisStore{store: store, namespace: normalizeNamespace(namespace)}
}

func optionsFromConfig(cfg config.RedisConfig) (*redis.Options, error) {
	if cfg.URL == "" && cfg.Address == "" {
		return nil, errors.New("redis url or address is required")
	}
	var opts *redis.Options
	if cfg.URL != "" {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("parsing redis url: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{
			Addr:     cfg.Address,
			Password: cfg.Password,
			DB:       cfg.DB,
		}
	}
	if opts.DB == 0 {
		opts.DB = cfg.DB
	}
	if opts.DialTimeout == 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}
	if opts.WriteTimeout == 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}
	return opts, nil
}

func (r *RedisStore) Get(ctx context.Context, key string) (string, error) {
	key, err := normalizeKey(key)
	if err != nil {
		return "", err
	}
	if r.store == nil {
		return "", errors.New("redis client not initialized")
	}
	v, err := r.store.Get(ctx, r.buildKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("reading %q: %w", key, err)
	}
	return v, nil
}

func (r *RedisStore) Set(ctx context.Context, key, value string) error {
	key, err := normalizeKey(key)
	if err != nil {
		return err
	}
	if r.store == nil {
		return errors.New("redis client not initialized")
	}
	if err := r.store.Set(ctx, r.buildKey(key), value, 0).Err(); err != nil {
		return fmt.Errorf("writing %q: %w", key, err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, key string) error {
	key, err := normalizeKey(key)
	if err != nil {
		return err
	}
	if r.store == nil {
		return errors.New("redis client not initialized")
	}
	if err := r.store.Del(ctx, r.buildKey(key)).Err(); err != nil {
		return fmt.Errorf("deleting %q: %w", key, err)
	}
	return nil
}

// Ping verifies the connection.
func (r *RedisStore) Ping(ctx context.Context) error {
	if r.store == nil {
		return errors.New("redis client not initialized")
	}
	return r.store.Ping(ctx).Err()
}

// Close shuts down the underlying client if available.
func (r *RedisStore) Close() error {
	if r.raw == nil {
		return nil
	}
	return r.raw.Close()
}

func (r *RedisStore) buildKey(key string) string {
	return r.namespace + ":" + key
}
