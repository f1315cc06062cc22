package proxy

import (
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestPool_AddAndNext(t *testing.T) {
	pool := NewPool(Config{})

	if err := pool.Add("127.0.0.1:8080", "http://127.0.0.1:8081", "socks5://127.0.0.1:9050", "http://127.0.0.1:8081"); err != nil {
		t.Fatalf("unexpected error adding proxies: %v", err)
	}
	if pool.Len() != 3 {
		t.Fatalf("expected duplicates to be ignored, got %d proxies", pool.Len())
	}

	want := []string{"http://127.0.0.1:8080", "http://127.0.0.1:8081", "socks5://127.0.0.1:9050", "http://127.0.0.1:8080"}
	for i, w := range want {
		u := pool.Next()
		if u == nil || u.String() != w {
			t.Errorf("call %d: expected %s, got %v", i, w, u)
		}
	}
}

func TestPool_HealthTracking(t *testing.T) {
	pool := NewPool(Config{MaxFailures: 2, Cooldown: time.Minute})
	now := time.Now()
	pool.now = func() time.Time { return now }

	if err := pool.Add("http://a", "http://b"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	a := pool.Next()
	_ = pool.MarkFailure(a)
	_ = pool.MarkFailure(a)

	if u := pool.Next(); u.String() != "http://b" {
		t.Fatalf("expected http://b, got %v", u)
	}
	if u := pool.Next(); u.String() != "http://b" {
		t.Fatalf("expected http://b while a cools down, got %v", u)
	}

	now = now.Add(2 * time.Minute)
	if u := pool.Next(); u.String() != "http://a" {
		t.Fatalf("expected http://a after cooldown, got %v", u)
	}
}

func TestPool_SuccessForgivesFailure(t *testing.T) {
	pool := NewPool(Config{MaxFailures: 2, Cooldown: time.Hour})
	_ = pool.Add("http://a")

	a := pool.Next()
	_ = pool.MarkFailure(a)
	_ = pool.MarkSuccess(a)
	_ = pool.MarkFailure(a)

	if u := pool.Next(); u == nil {
		t.Fatalf("expected proxy to stay healthy after a success in between failures")
	}
}

func TestPool_AllDisabled(t *testing.T) {
	pool := NewPool(Config{MaxFailures: 1, Cooldown: time.Hour})
	_ = pool.Add("http://a")

	_ = pool.MarkFailure(pool.Next())
	if u := pool.Next(); u != nil {
		t.Errorf("expected nil when all proxies disabled, got %v", u)
	}
}

func TestPool_LoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "proxies.txt")
	content := `
# residential
http://proxy1.com
proxy2.com:80

socks5://proxy3.com:1080
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write proxy file: %v", err)
	}

	pool := NewPool(Config{})
	if err := pool.LoadFile(path); err != nil {
		t.Fatalf("failed to load file: %v", err)
	}

	for _, want := range []string{"http://proxy1.com", "http://proxy2.com:80", "socks5://proxy3.com:1080"} {
		u := pool.Next()
		if u == nil || u.String() != want {
			t.Errorf("expected %s, got %v", want, u)
		}
	}
}

func TestPool_MarkUnknown(t *testing.T) {
	pool := NewPool(Config{})
	_ = pool.Add("http://a")

	unknown, _ := url.Parse("http://unknown")
	if err := pool.MarkSuccess(unknown); !errors.Is(err, ErrUnknownProxy) {
		t.Errorf("expected ErrUnknownProxy, got %v", err)
	}
	if err := pool.MarkFailure(unknown); !errors.Is(err, ErrUnknownProxy) {
		t.Errorf("expected ErrUnknownProxy, got %v", err)
	}
	if err := pool.MarkFailure(nil); err == nil {
		t.Errorf("expected error for nil url")
	}
}

func TestPool_Empty(t *testing.T) {
	if u := NewPool(Config{}).Next(); u != nil {
		t.Errorf("expected nil on empty pool, got %v", u)
	}
}
