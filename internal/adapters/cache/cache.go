// Package cache stores extraction responses keyed by request fingerprint.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/baditaflorin/go_invariant_normalizer/internal/core/domain"
	"github.com/baditaflorin/go_invariant_normalizer/internal/ports"
	"github.com/redis/go-redis/v9"
)

// ErrUnknownBackend is returned for an unsupported Config.Backend.
var ErrUnknownBackend = errors.New("cache: unknown backend")

// Backends accepted by New.
const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config selects and sizes a cache backend.
type Config struct {
	Backend       string
	TTL           time.Duration
	Size          int
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	KeyPrefix     string
}

// DefaultConfig returns an in-memory cache holding responses for a day.
func DefaultConfig() Config {
	return Config{
		Backend: BackendMemory,
		TTL:     24 * time.Hour,
		Size:    1024,
	}
}

// Validate checks if the configuration is valid.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendNone:
		return nil
	case BackendMemory:
		if c.Size <= 0 {
			return errors.New("cache size must be greater than 0")
		}
	case BackendRedis:
		if c.RedisAddr == "" {
			return errors.New("redis address is required")
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Backend)
	}
	if c.TTL <= 0 {
		return errors.New("cache ttl must be greater than 0")
	}
	return nil
}

// Cache is a ResponseCache that owns resources to release.
type Cache interface {
	ports.ResponseCache
	Close() error
}

// New creates the backend named by cfg.Backend.
func New(cfg Config, logger ports.Logger) (Cache, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Backend {
	case BackendMemory:
		logger.Info("Using in-memory response cache", "size", cfg.Size, "ttl", cfg.TTL)
		return NewMemory(cfg.Size, cfg.TTL), nil
	case BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		logger.Info("Using redis response cache", "addr", cfg.RedisAddr, "db", cfg.RedisDB, "ttl", cfg.TTL)
		return NewRedis(client, cfg.TTL, cfg.KeyPrefix, logger), nil
	default:
		return Nop{}, nil
	}
}

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, string) (*domain.ExtractResponse, bool, error) { return nil, false, nil }
func (Nop) Set(context.Context, string, *domain.ExtractResponse) error { return nil }
func (Nop) Close() error { return nil }
