package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestLimiter_NoBlockWhenZeroRPS(t *testing.T) {
	limiter := NewLimiter(0, 0.5)

	start := time.Now()
	if err := limiter.Wait(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if time.Since(start) > 10*time.Millisecond {
		t.Errorf("limiter with 0 RPS should not block")
	}
}

func TestLimiter_NilIsNoop(t *testing.T) {
	var limiter *Limiter
	if err := limiter.Wait(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	limiter.Stop()
}

func TestLimiter_Wait(t *testing.T) {
	limiter := NewLimiter(10, 0) // 100ms interval
	defer limiter.Stop()

	ctx := context.Background()
	_ = limiter.Wait(ctx)

	start := time.Now()
	if err := limiter.Wait(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	duration := time.Since(start)
	if duration < 50*time.Millisecond || duration > 150*time.Millisecond {
		t.Errorf("expected wait around 100ms, took %v", duration)
	}
}

func TestLimiter_ContextCancellation(t *testing.T) {
	limiter := NewLimiter(1, 0)
	defer limiter.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := limiter.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context canceled error, got %v", err)
	}
}

func TestPacer_FirstCallIsImmediate(t *testing.T) {
	p := NewPacer(200*time.Millisecond, 300*time.Millisecond)

	start := time.Now()
	if err := p.Pause(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if time.Since(start) > 20*time.Millisecond {
		t.Errorf("first pause should not sleep")
	}
}

func TestPacer_DelayWithinRange(t *testing.T) {
	p := NewPacer(30*time.Millisecond, 60*time.Millisecond)
	ctx := context.Background()
	_ = p.Pause(ctx)

	start := time.Now()
	if err := p.Pause(ctx); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	d := time.Since(start)
	if d < 30*time.Millisecond || d > 200*time.Millisecond {
		t.Errorf("expected delay between 30ms and 60ms (plus slack), took %v", d)
	}
}

func TestPacer_Cancelled(t *testing.T) {
	p := NewPacer(time.Second, 2*time.Second)
	_ = p.Pause(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := p.Pause(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}

func TestSleep(t *testing.T) {
	if err := Sleep(context.Background(), 0); err != nil {
		t.Errorf("zero sleep should succeed, got %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	start := time.Now()
	if err := Sleep(ctx, time.Second); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Errorf("sleep ignored the context deadline")
	}
}
