package mocks

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// MockCacher is a mock implementation of the cache interface
// for testing the handler layer. Without funcs it behaves like an empty cache.
type MockCacher struct {
	GetFunc   func(ctx context.Context, key string, dest any) error
	SetFunc   func(ctx context.Context, key string, value any, expiration time.Duration) error
	CloseFunc func() error
}

func (m *MockCacher) Get(ctx context.Context, key string, dest any) error {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key, dest)
	}
	return redis.Nil
}

func (m *MockCacher) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	if m.SetFunc != nil {
		return m.SetFunc(ctx, key, value, expiration)
	}
	return nil
}

func (m *MockCacher) Close() error {
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// MemoryCacher stores JSON encoded values in a map, the way the Redis cache does.
type MemoryCacher struct {
	mu      sync.Mutex
	entries map[string][]byte
	sets    int
}

func NewMemoryCacher() *MemoryCacher {
	return &MemoryCacher{entries: make(map[string][]byte)}
}

func (m *MemoryCacher) Get(ctx context.Context, key string, dest any) error {
	m.mu.Lock()
	raw, ok := m.entries[key]
	m.mu.Unlock()
	if !ok {
		return redis.Nil
	}
	return json.Unmarshal(raw, dest)
}

func (m *MemoryCacher) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = raw
	m.sets++
	return nil
}

func (m *MemoryCacher) Close() error { return nil }

// Has reports whether key holds a value.
func (m *MemoryCacher) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[key]
	return ok
}

// Sets returns how many writes reached the cache.
func (m *MemoryCacher) Sets() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sets
}
