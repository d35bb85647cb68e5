// Package cache provides the shared TTL-based key/value cache used by the
// aggregation engine and, optionally, the request throttle.
//
// Every operation is best-effort: an underlying failure is logged and treated
// as a miss (get) or a silent no-op (set/delete). No caller may assume a
// value survives here; every read path keeps a from-scratch computation
// fallback.
package cache

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/ita004/analytics-engine/pkg/observability"
)

// Store is the cache contract consumed by the write and read paths
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration)
	Delete(ctx context.Context, key string)
	DeleteByPrefix(ctx context.Context, prefix string)
}

// RedisStore implements Store on a shared Redis client
type RedisStore struct {
	client *redis.Client
	logger *observability.Logger
}

// NewRedisStore creates a cache store over an injected Redis client
func NewRedisStore(client *redis.Client, logger *observability.Logger) *RedisStore {
	return &RedisStore{client: client, logger: logger}
}

// Get returns the cached value for key, reporting absence on any failure
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("cache get failed, treating as miss")
		return nil, false
	}
	return data, true
}

// Set stores value under key with the given TTL
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("cache set failed")
	}
}

// Delete removes an exact key
func (s *RedisStore) Delete(ctx context.Context, key string) {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		s.logger.WithError(err).WithField("key", key).Warn("cache delete failed")
	}
}

// DeleteByPrefix removes every key under the given prefix using SCAN, so a
// large namespace never blocks the server the way KEYS would
func (s *RedisStore) DeleteByPrefix(ctx context.Context, prefix string) {
	iter := s.client.Scan(ctx, 0, prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			s.logger.WithError(err).WithField("key", iter.Val()).Warn("cache prefix delete failed")
		}
	}
	if err := iter.Err(); err != nil {
		s.logger.WithError(err).WithField("prefix", prefix).Warn("cache scan failed")
	}
}
