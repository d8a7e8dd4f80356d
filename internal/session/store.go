package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned when a key is absent or expired
var ErrNotFound = errors.New("session not found")

// Store is a key-value store for session tokens
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// RedisStore keeps sessions in Redis so they survive restarts
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a new Redis-backed session store
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func redisKey(key string) string {
	return fmt.Sprintf("session:token:%s", key)
}

// Get returns the value stored under key
func (s *RedisStore) Get(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, redisKey(key)).Result()
	if err == redis.Nil {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read session: %w", err)
	}
	return value, nil
}

// Set stores value under key until ttl elapses
func (s *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		// Already expired, nothing worth keeping
		return nil
	}

	if err := s.client.Set(ctx, redisKey(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Delete removes key
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, redisKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// MemoryStore keeps sessions in process memory. They are lost on restart.
// Expired sessions are evicted in the background until Close is called.
type MemoryStore struct {
	entries   *ttlcache.Cache[string, string]
	closeOnce sync.Once
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	entries := ttlcache.New[string, string](
		ttlcache.WithDisableTouchOnHit[string, string](),
	)
	go entries.Start()

	return &MemoryStore{entries: entries}
}

// Get returns the value stored under key
func (s *MemoryStore) Get(_ context.Context, key string) (string, error) {
	item := s.entries.Get(key)
	if item == nil {
		return "", ErrNotFound
	}
	return item.Value(), nil
}

// Set stores value under key until ttl elapses
func (s *MemoryStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	s.entries.Set(key, value, ttl)
	return nil
}

// Delete removes key
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.entries.Delete(key)
	return nil
}

// Len returns the number of sessions not yet evicted
func (s *MemoryStore) Len() int {
	return s.entries.Len()
}

// Close stops background eviction
func (s *MemoryStore) Close() {
	s.closeOnce.Do(s.entries.Stop)
}
