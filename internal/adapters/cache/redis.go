package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/baditaflorin/go_invariant_normalizer/internal/core/domain"
	"github.com/baditaflorin/go_invariant_normalizer/internal/ports"
	"github.com/redis/go-redis/v9"
)

// RedisClient is the subset of the go-redis client the cache needs.
type RedisClient interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Close() error
}

// Redis stores JSON-encoded responses in Redis with a TTL.
type Redis struct {
	client RedisClient
	ttl    time.Duration
	prefix string
	logger ports.Logger
}

// NewRedis creates a Redis-backed cache. prefix is prepended to every key.
func NewRedis(client RedisClient, ttl time.Duration, prefix string, logger ports.Logger) *Redis {
	return &Redis{
		client: client,
		ttl:    ttl,
		prefix: prefix,
		logger: logger,
	}
}

// Get returns the cached response for key. An undecodable entry is treated
// as a miss.
func (r *Redis) Get(ctx context.Context, key string) (*domain.ExtractResponse, bool, error) {
	val, err := r.client.Get(ctx, r.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache: redis get: %w", err)
	}

	var resp domain.ExtractResponse
	if err := json.Unmarshal([]byte(val), &resp); err != nil {
		r.logger.Warn("Discarding undecodable cache entry", "cache_key", key, "error", err)
		return nil, false, nil
	}
	return &resp, true, nil
}

// Set stores resp under key for the configured TTL.
func (r *Redis) Set(ctx context.Context, key string, resp *domain.ExtractResponse) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("cache: encode %s: %w", key, err)
	}
	if err := r.client.Set(ctx, r.prefix+key, data, r.ttl).Err(); err != nil {
		return fmt.Errorf("cache: redis set: %w", err)
	}
	return nil
}

// Close closes the underlying client.
func (r *Redis) Close() error {
	return r.client.Close()
}
