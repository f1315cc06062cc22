package proxy

import (
	"bufio"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"
)

// ErrUnknownProxy is returned when marking a proxy that was never added.
var ErrUnknownProxy = errors.New("proxy: not found in pool")

// Proxy is one endpoint with its health counters.
type Proxy struct {
	URL           *url.URL
	Failures      int
	Successes     int
	LastUsed      time.Time
	DisabledUntil time.Time
}

func (p *Proxy) disabled(now time.Time) bool {
	return !p.DisabledUntil.IsZero() && now.Before(p.DisabledUntil)
}

// Config defines settings for the Proxy Pool.
type Config struct {
	// MaxFailures before a proxy is benched.
	MaxFailures int
	// Cooldown is how long a benched proxy sits out.
	Cooldown time.Duration
}

// Pool rotates through proxies round-robin, skipping any that are cooling down.
type Pool struct {
	mu          sync.Mutex
	proxies     []*Proxy
	byURL       map[string]*Proxy
	next        int
	maxFailures int
	cooldown    time.Duration
	now         func() time.Time
}

// NewPool creates an empty pool. Zero config values select 3 failures and a 5 minute cooldown.
func NewPool(cfg Config) *Pool {
	if cfg.MaxFailures <= 0 {
		cfg.MaxFailures = 3
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 5 * time.Minute
	}
	return &Pool{
		byURL:       make(map[string]*Proxy),
		maxFailures: cfg.MaxFailures,
		cooldown:    cfg.Cooldown,
		now:         time.Now,
	}
}

// LoadFile adds one proxy URL per line. Blank lines and '#' comments are skipped.
func (p *Pool) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("proxy: open %s: %w", path, err)
	}
	defer f.Close()

	var urls []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("proxy: read %s: %w", path, err)
	}
	return p.Add(urls...)
}

// Add parses and appends proxies. A missing scheme defaults to http.
// Duplicates are ignored.
func (p *Pool) Add(rawURLs ...string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, raw := range rawURLs {
		if !strings.Contains(raw, "://") {
			raw = "http://" + raw
		}
		u, err := url.Parse(raw)
		if err != nil {
			return fmt.Errorf("proxy: parse %q: %w", raw, err)
		}
		key := u.String()
		if _, dup := p.byURL[key]; dup {
			continue
		}
		prx := &Proxy{URL: u}
		p.byURL[key] = prx
		p.proxies = append(p.proxies, prx)
	}
	return nil
}

// Len returns the number of proxies in the pool.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.proxies)
}

// Next returns the next healthy proxy, or nil when the pool is empty or every
// proxy is cooling down.
func (p *Pool) Next() *url.URL {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	for range p.proxies {
		prx := p.proxies[p.next]
		p.next = (p.next + 1) % len(p.proxies)

		if prx.disabled(now) {
			continue
		}
		if !prx.DisabledUntil.IsZero() {
			// Back from the bench with a clean slate.
			prx.DisabledUntil = time.Time{}
			prx.Failures = 0
		}
		prx.LastUsed = now
		return prx.URL
	}
	return nil
}

// MarkSuccess records a successful request and forgives one failure.
func (p *Pool) MarkSuccess(proxyURL *url.URL) error {
	return p.mark(proxyURL, func(prx *Proxy) {
		prx.Successes++
		if prx.Failures > 0 {
			prx.Failures--
		}
	})
}

// MarkFailure records a failure and benches the proxy after MaxFailures.
func (p *Pool) MarkFailure(proxyURL *url.URL) error {
	return p.mark(proxyURL, func(prx *Proxy) {
		prx.Failures++
		if prx.Failures >= p.maxFailures {
			prx.DisabledUntil = p.now().Add(p.cooldown)
		}
	})
}

func (p *Pool) mark(proxyURL *url.URL, fn func(*Proxy)) error {
	if proxyURL == nil {
		return errors.New("proxy: url cannot be nil")
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	prx, ok := p.byURL[proxyURL.String()]
	if !ok {
		return ErrUnknownProxy
	}
	fn(prx)
	return nil
}
