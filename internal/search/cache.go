package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/FranksOps/leadscout/internal/model"
)

// Cache stores raw search pages so repeated runs over the same companies do
// not spend search credits twice.
type Cache interface {
	Get(ctx context.Context, key string) ([]model.SearchResult, bool, error)
	Set(ctx context.Context, key string, results []model.SearchResult) error
}

func cacheKey(query string, start, num int) string {
	return query + "|" + strconv.Itoa(start) + "|" + strconv.Itoa(num)
}

type memoryEntry struct {
	results []model.SearchResult
	expires time.Time
}

// MemoryCache is an in-process Cache with a fixed TTL.
type MemoryCache struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[string]memoryEntry
}

// NewMemoryCache returns a MemoryCache. A ttl of zero or less never expires.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{ttl: ttl, now: time.Now, entries: make(map[string]memoryEntry)}
}

func (m *MemoryCache) Get(_ context.Context, key string) ([]model.SearchResult, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.entries[key]
	if !ok {
		return nil, false, nil
	}
	if !e.expires.IsZero() && !m.now().Before(e.expires) {
		delete(m.entries, key)
		return nil, false, nil
	}
	return append([]model.SearchResult(nil), e.results...), true, nil
}

func (m *MemoryCache) Set(_ context.Context, key string, results []model.SearchResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	e := memoryEntry{results: append([]model.SearchResult(nil), results...)}
	if m.ttl > 0 {
		e.expires = m.now().Add(m.ttl)
	}
	m.entries[key] = e
	return nil
}

const redisPrefix = "leadscout:search:"

// RedisCache shares search pages between processes through Redis.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// RedisOptions configures NewRedisCache.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// NewRedisCache connects to Redis and verifies the connection with PING.
func NewRedisCache(ctx context.Context, opts RedisOptions) (*RedisCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("search: redis ping %s: %w", opts.Addr, err)
	}
	return &RedisCache{client: rdb, ttl: opts.TTL}, nil
}

func (r *RedisCache) Get(ctx context.Context, key string) ([]model.SearchResult, bool, error) {
	raw, err := r.client.Get(ctx, redisPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("search: redis get: %w", err)
	}
	var results []model.SearchResult
	if err := json.Unmarshal(raw, &results); err != nil {
		return nil, false, fmt.Errorf("search: decode cached page: %w", err)
	}
	return results, true, nil
}

func (r *RedisCache) Set(ctx context.Context, key string, results []model.SearchResult) error {
	raw, err := json.Marshal(results)
	if err != nil {
		return fmt.Errorf("search: encode page: %w", err)
	}
	if err := r.client.Set(ctx, redisPrefix+key, raw, r.ttl).Err(); err != nil {
		return fmt.Errorf("search: redis set: %w", err)
	}
	return nil
}

// Close releases the Redis connection pool.
func (r *RedisCache) Close() error {
	return r.client.Close()
}
