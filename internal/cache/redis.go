package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/BaSui01/agentbridge/config"
)

// Redis is a Store backed by a Redis server, for deployments where several
// bridge instances should share one decision cache.
type Redis struct {
	client     *redis.Client
	defaultTTL time.Duration
	logger     *zap.Logger

	mu     sync.RWMutex
	closed bool
}

// NewRedis connects to Redis and verifies the connection before returning.
func NewRedis(cfg config.RedisConfig, defaultTTL time.Duration, logger *zap.Logger) (*Redis, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultTTL <= 0 {
		defaultTTL = 5 * time.Minute
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	logger = logger.With(zap.String("component", "cache"))
	logger.Info("redis cache connected", zap.String("addr", cfg.Addr))

	return &Redis{client: client, defaultTTL: defaultTTL, logger: logger}, nil
}

// Get returns the value for key, or ErrMiss.
func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return "", fmt.Errorf("cache store is closed")
	}

	val, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", ErrMiss
	}
	if err != nil {
		r.logger.Error("cache get failed", zap.String("key", key), zap.Error(err))
		return "", fmt.Errorf("cache get: %w", err)
	}
	return val, nil
}

// Set stores value under key.
func (r *Redis) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return fmt.Errorf("cache store is closed")
	}

	if ttl <= 0 {
		ttl = r.defaultTTL
	}
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		r.logger.Error("cache set failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Delete removes keys.
func (r *Redis) Delete(ctx context.Context, keys ...string) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return fmt.Errorf("cache store is closed")
	}

	if len(keys) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("cache delete: %w", err)
	}
	return nil
}

// Ping verifies the Redis connection.
func (r *Redis) Ping(ctx context.Context) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return fmt.Errorf("cache store is closed")
	}
	return r.client.Ping(ctx).Err()
}

// Close releases the connection pool.
func (r *Redis) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return nil
	}
	r.closed = true
	return r.client.Close()
}
