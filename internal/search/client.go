// Package search finds candidate news articles about a company's executives
// through a web-search backend, dropping results that cannot carry useful
// leads.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/time/rate"

	"github.com/FranksOps/leadscout/internal/analyzer"
	"github.com/FranksOps/leadscout/internal/metrics"
	"github.com/FranksOps/leadscout/internal/model"
)

// pageSize is the number of organic results requested per page.
const pageSize = 10

// Backend returns one page of raw organic results for query.
type Backend interface {
	Page(ctx context.Context, query string, start, num int) ([]model.SearchResult, error)
}

// Config tunes a Client.
type Config struct {
	// DenyDomains drops results on these hosts; nil selects DefaultDenyDomains.
	DenyDomains []string
	// Keywords must appear in a result's title or snippet; nil selects DefaultKeywords.
	Keywords []string
	// MaxPages bounds pagination per query. Zero selects 5.
	MaxPages int
	// RatePerSecond paces backend calls. Zero or less disables pacing.
	RatePerSecond float64
	Cache         Cache
	Logger        *slog.Logger
}

// Client wraps a Backend with pagination, filtering, pacing and caching.
type Client struct {
	backend Backend
	cfg     Config
	limiter *rate.Limiter
	logger  *slog.Logger
}

// New returns a Client over backend.
func New(backend Backend, cfg Config) *Client {
	if cfg.DenyDomains == nil {
		cfg.DenyDomains = DefaultDenyDomains
	}
	if cfg.Keywords == nil {
		cfg.Keywords = DefaultKeywords
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 5
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	return &Client{
		backend: backend,
		cfg:     cfg,
		limiter: rate.NewLimiter(limit, 1),
		logger:  cfg.Logger,
	}
}

// Search returns up to max filtered results for query. Backend failures end
// pagination and the results gathered so far are returned.
func (c *Client) Search(ctx context.Context, query string, max int) []model.SearchResult {
	if max <= 0 {
		return nil
	}

	var out []model.SearchResult
	for page := 0; page < c.cfg.MaxPages && len(out) < max; page++ {
		results, err := c.page(ctx, query, page*pageSize, pageSize)
		if err != nil {
			c.logger.Warn("search page failed", "query", query, "page", page, "err", err)
			break
		}
		for _, r := range results {
			if !c.keep(r) {
				continue
			}
			out = append(out, r)
			if len(out) == max {
				break
			}
		}
		if len(results) < pageSize {
			break
		}
	}

	c.logger.Debug("search complete", "query", query, "results", len(out))
	return out
}

// SearchMany runs Search for each query and removes results whose URL was
// already returned by an earlier query.
func (c *Client) SearchMany(ctx context.Context, queries []string, maxPerQuery int) []model.SearchResult {
	seen := make(map[string]bool)
	var out []model.SearchResult
	for _, q := range queries {
		if ctx.Err() != nil {
			break
		}
		for _, r := range c.Search(ctx, q, maxPerQuery) {
			if seen[r.URL] {
				continue
			}
			seen[r.URL] = true
			out = append(out, r)
		}
	}
	return out
}

// Lookup returns the first max raw results for query without any filtering.
// Enrichment uses it to inspect profile and contact hits that the article
// filters would drop.
func (c *Client) Lookup(ctx context.Context, query string, max int) ([]model.SearchResult, error) {
	if max <= 0 {
		max = pageSize
	}
	results, err := c.page(ctx, query, 0, max)
	if err != nil {
		return nil, err
	}
	if len(results) > max {
		results = results[:max]
	}
	return results, nil
}

func (c *Client) page(ctx context.Context, query string, start, num int) ([]model.SearchResult, error) {
	key := cacheKey(query, start, num)
	if c.cfg.Cache != nil {
		cached, ok, err := c.cfg.Cache.Get(ctx, key)
		if err != nil {
			c.logger.Debug("search cache read failed", "key", key, "err", err)
		} else if ok {
			metrics.SearchRequestsTotal.WithLabelValues("cached").Inc()
			return cached, nil
		}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	results, err := c.backend.Page(ctx, query, start, num)
	if err != nil {
		metrics.SearchRequestsTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("search: %q: %w", query, err)
	}
	metrics.SearchRequestsTotal.WithLabelValues("ok").Inc()

	for i := range results {
		results[i].Query = query
	}
	if c.cfg.Cache != nil {
		if err := c.cfg.Cache.Set(ctx, key, results); err != nil {
			c.logger.Debug("search cache write failed", "key", key, "err", err)
		}
	}
	return results, nil
}

func (c *Client) keep(r model.SearchResult) bool {
	if strings.TrimSpace(r.URL) == "" || URLDenied(r.URL, c.cfg.DenyDomains) {
		return false
	}
	return analyzer.ContainsAny(r.Title+" "+r.Snippet, c.cfg.Keywords)
}
