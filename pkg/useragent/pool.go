package useragent

import (
	"crypto/rand"
	"math/big"
	"sync"
	"sync/atomic"
)

// DefaultPool is a set of current desktop browser User-Agents.
var DefaultPool = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:126.0) Gecko/20100101 Firefox/126.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 14.4; rv:126.0) Gecko/20100101 Firefox/126.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36 Edg/124.0.0.0",
}

// Pool is a fixed set of User-Agents.
type Pool struct {
	uas     []string
	counter atomic.Uint64
}

// NewPool copies uas into a new pool. An empty slice selects DefaultPool.
func NewPool(uas []string) *Pool {
	if len(uas) == 0 {
		uas = DefaultPool
	}
	copied := make([]string, len(uas))
	copy(copied, uas)
	return &Pool{uas: copied}
}

// GetSequential returns the pool entries round-robin.
func (p *Pool) GetSequential() string {
	if len(p.uas) == 0 {
		return ""
	}
	idx := p.counter.Add(1) - 1
	return p.uas[idx%uint64(len(p.uas))]
}

// GetRandom returns a uniformly chosen entry.
func (p *Pool) GetRandom() string {
	if len(p.uas) == 0 {
		return ""
	}
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(p.uas))))
	if err != nil {
		return p.GetSequential()
	}
	return p.uas[n.Int64()]
}

// Len returns the number of User-Agents in the pool.
func (p *Pool) Len() int { return len(p.uas) }

// Rotator hands out the same random User-Agent for a run of requests and
// draws a new one every N calls. A page fetch followed by a few more from
// the same client looks like one browser session.
type Rotator struct {
	pool  *Pool
	every int

	mu      sync.Mutex
	current string
	used    int
}

// NewRotator returns a Rotator over pool. every <= 0 means a new draw on each call.
func NewRotator(pool *Pool, every int) *Rotator {
	if pool == nil {
		pool = NewPool(nil)
	}
	if every <= 0 {
		every = 1
	}
	return &Rotator{pool: pool, every: every}
}

// Next returns the User-Agent for the next request.
func (r *Rotator) Next() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.current == "" || r.used >= r.every {
		r.current = r.pool.GetRandom()
		r.used = 0
	}
	r.used++
	return r.current
}
