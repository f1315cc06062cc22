package search

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/FranksOps/leadscout/internal/model"
)

func TestMemoryCache_TTL(t *testing.T) {
	c := NewMemoryCache(time.Minute)
	now := time.Now()
	c.now = func() time.Time { return now }
	ctx := context.Background()

	page := []model.SearchResult{{Title: "Acme CEO", URL: "https://news.example/a"}}
	if err := c.Set(ctx, cacheKey("acme", 0, 10), page); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, ok, err := c.Get(ctx, cacheKey("acme", 0, 10))
	if err != nil || !ok || len(got) != 1 {
		t.Fatalf("expected cache hit, got %v %v %v", got, ok, err)
	}
	if _, ok, _ := c.Get(ctx, cacheKey("acme", 10, 10)); ok {
		t.Errorf("expected miss for a different page")
	}

	now = now.Add(2 * time.Minute)
	if _, ok, _ := c.Get(ctx, cacheKey("acme", 0, 10)); ok {
		t.Errorf("expected entry to expire")
	}
}

func TestRedisCache(t *testing.T) {
	addr := os.Getenv("LEADSCOUT_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("Skipping Redis test: LEADSCOUT_TEST_REDIS_ADDR not set")
	}

	ctx := context.Background()
	c, err := NewRedisCache(ctx, RedisOptions{Addr: addr, TTL: time.Minute})
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	defer c.Close()

	key := cacheKey("leadscout-test-"+time.Now().Format(time.RFC3339Nano), 0, 10)
	if _, ok, err := c.Get(ctx, key); err != nil || ok {
		t.Fatalf("expected clean miss, got ok=%v err=%v", ok, err)
	}

	page := []model.SearchResult{{Title: "Acme CEO", URL: "https://news.example/a", Query: "acme"}}
	if err := c.Set(ctx, key, page); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, ok, err := c.Get(ctx, key)
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if len(got) != 1 || got[0].Query != "acme" {
		t.Errorf("unexpected cached page %+v", got)
	}
}
