// Package redis implements the cache store: short-TTL aggregate view blobs
// and the append-only per-fact audit blobs.
package redis

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"salesync/internal/config"
)

// Store wraps the cache store connection.
type Store struct {
	client *redis.Client
	logger *slog.Logger
}

// Open connects to the cache store and verifies the connection with a ping.
func Open(ctx context.Context, cfg config.RedisConfig, logger *slog.Logger) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return &Store{
		client: client,
		logger: logger.With("component", "redis-store"),
	}, nil
}

// GetBlob reads a raw value. An absent key is not an error.
func (s *Store) GetBlob(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

// SetBlob writes a raw value with the given TTL. A zero TTL means no expiry.
func (s *Store) SetBlob(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return s.client.Set(ctx, key, value, ttl).Err()
}

// Probe checks liveness for the health monitor.
func (s *Store) Probe(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.client.Close()
}
