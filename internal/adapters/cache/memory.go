package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/baditaflorin/go_invariant_normalizer/internal/core/domain"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Memory is a size-bounded in-process cache whose entries expire after a
// fixed TTL. Responses are stored encoded so callers never share state with
// the cache.
type Memory struct {
	lru *expirable.LRU[string, []byte]
}

// NewMemory creates a cache holding at most size responses for ttl each.
func NewMemory(size int, ttl time.Duration) *Memory {
	return &Memory{lru: expirable.NewLRU[string, []byte](size, nil, ttl)}
}

// Get returns a copy of the cached response for key.
func (m *Memory) Get(_ context.Context, key string) (*domain.ExtractResponse, bool, error) {
	data, ok := m.lru.Get(key)
	if !ok {
		return nil, false, nil
	}
	var resp domain.ExtractResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, false, fmt.Errorf("cache: decode %s: %w", key, err)
	}
	return &resp, true, nil
}

// Set stores a copy of resp under key.
func (m *Memory) Set(_ context.Context, key string, resp *domain.ExtractResponse) error {
	data, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("cache: encode %s: %w", key, err)
	}
	m.lru.Add(key, data)
	return nil
}

// Len reports the number of live entries.
func (m *Memory) Len() int {
	return m.lru.Len()
}

// Close drops every entry.
func (m *Memory) Close() error {
	m.lru.Purge()
	return nil
}
