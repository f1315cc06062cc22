package ratelimit

import (
	"context"
	"math/rand"
	"sync"
	"time"
)

// Limiter enforces a steady request rate with optional jitter.
// It is safe for concurrent use by multiple goroutines.
type Limiter struct {
	ticker   *time.Ticker
	jitter   float64 // 0.0 to 1.0
	interval time.Duration
	ch       <-chan time.Time
}

// NewLimiter creates a limiter allowing rps operations per second. jitter is
// clamped to [0, 1]. If rps is <= 0 the limiter never blocks.
func NewLimiter(rps float64, jitter float64) *Limiter {
	if rps <= 0 {
		return &Limiter{}
	}

	if jitter < 0 {
		jitter = 0
	} else if jitter > 1 {
		jitter = 1
	}

	interval := time.Duration(float64(time.Second) / rps)
	ticker := time.NewTicker(interval)

	return &Limiter{
		ticker:   ticker,
		jitter:   jitter,
		interval: interval,
		ch:       ticker.C,
	}
}

// Wait blocks until the next tick, plus any positive jitter, or until ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	if l == nil || l.ch == nil {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-l.ch:
	}

	if l.jitter > 0 {
		// Negative jitter is absorbed by the ticker; only the positive half sleeps.
		extra := time.Duration(float64(l.interval) * l.jitter * (rand.Float64()*2 - 1))
		if extra > 0 {
			return Sleep(ctx, extra)
		}
	}
	return nil
}

// Stop releases the ticker.
func (l *Limiter) Stop() {
	if l != nil && l.ticker != nil {
		l.ticker.Stop()
	}
}

// Pacer spaces successive calls by a random delay drawn from [min, max].
// The first call to Pause returns immediately.
type Pacer struct {
	min, max time.Duration

	mu      sync.Mutex
	started bool
	rnd     *rand.Rand
}

// NewPacer returns a Pacer. If max < min, max is raised to min.
func NewPacer(min, max time.Duration) *Pacer {
	if min < 0 {
		min = 0
	}
	if max < min {
		max = min
	}
	return &Pacer{min: min, max: max, rnd: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

// Pause sleeps for the next delay unless this is the first call.
func (p *Pacer) Pause(ctx context.Context) error {
	if p == nil {
		return nil
	}
	p.mu.Lock()
	if !p.started {
		p.started = true
		p.mu.Unlock()
		return nil
	}
	d := p.min
	if span := p.max - p.min; span > 0 {
		d += time.Duration(p.rnd.Int63n(int64(span) + 1))
	}
	p.mu.Unlock()
	return Sleep(ctx, d)
}

// Sleep waits for d or until ctx is done, returning ctx.Err() in the latter case.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
