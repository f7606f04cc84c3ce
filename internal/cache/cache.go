// Package cache provides the key-value store behind the routing decision
// cache: an in-process TTL map for single-node deployments and a Redis
// backend for shared ones, both behind one Store interface.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/agentbridge/config"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("cache miss")

// IsMiss reports whether err is a cache miss.
func IsMiss(err error) bool {
	return errors.Is(err, ErrMiss)
}

// Store is a TTL key-value store. Implementations are safe for concurrent
// use.
type Store interface {
	// Get returns the value for key, or ErrMiss.
	Get(ctx context.Context, key string) (string, error)
	// Set stores value under key. ttl == 0 applies the store's default.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Delete removes keys. Missing keys are not an error.
	Delete(ctx context.Context, keys ...string) error
	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error
	// Close releases backend resources.
	Close() error
}

// GetJSON reads key and unmarshals it into dest.
func GetJSON(ctx context.Context, s Store, key string, dest any) error {
	val, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return fmt.Errorf("unmarshal cached value: %w", err)
	}
	return nil
}

// SetJSON marshals value and stores it under key.
func SetJSON(ctx context.Context, s Store, key string, value any, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value: %w", err)
	}
	return s.Set(ctx, key, string(data), ttl)
}

// FromConfig builds the store the configuration names. Backend "off" (or
// empty) returns nil: callers treat a nil Store as caching disabled.
func FromConfig(cfg config.CacheConfig, redisCfg config.RedisConfig, logger *zap.Logger) (Store, error) {
	switch cfg.Backend {
	case "", "off":
		return nil, nil
	case "memory":
		return NewMemory(cfg.TTL), nil
	case "redis":
		return NewRedis(redisCfg, cfg.TTL, logger)
	default:
		return nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}
