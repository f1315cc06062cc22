// Package serpapi implements search.Backend on top of SerpAPI's Google engine.
package serpapi

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	g "github.com/serpapi/google-search-results-golang"

	"github.com/FranksOps/leadscout/internal/model"
)

// ErrMissingAPIKey is returned by New when no key is configured.
var ErrMissingAPIKey = errors.New("serpapi: api key is not set")

type fetchFunc func(params map[string]string, apiKey string) (map[string]any, error)

func googleSearch(params map[string]string, apiKey string) (map[string]any, error) {
	search := g.NewGoogleSearch(params, apiKey)
	return search.GetJSON()
}

// Option customises a Backend.
type Option func(*Backend)

// WithTimeout bounds each page request. The default is 30 seconds.
func WithTimeout(d time.Duration) Option {
	return func(b *Backend) { b.timeout = d }
}

// WithLocale overrides the hl and gl parameters.
func WithLocale(hl, gl string) Option {
	return func(b *Backend) { b.hl, b.gl = hl, gl }
}

// Backend queries SerpAPI.
type Backend struct {
	apiKey  string
	timeout time.Duration
	hl, gl  string
	fetch   fetchFunc
}

// New returns a Backend. An empty apiKey is a configuration error.
func New(apiKey string, opts ...Option) (*Backend, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, ErrMissingAPIKey
	}
	b := &Backend{
		apiKey:  apiKey,
		timeout: 30 * time.Second,
		hl:      "en",
		gl:      "us",
		fetch:   googleSearch,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// Page fetches one page of organic results. The SerpAPI client has no
// context support, so the call runs in its own goroutine and is abandoned
// when ctx ends or the timeout passes.
func (b *Backend) Page(ctx context.Context, query string, start, num int) ([]model.SearchResult, error) {
	params := map[string]string{
		"engine": "google",
		"q":      query,
		"start":  strconv.Itoa(start),
		"num":    strconv.Itoa(num),
		"hl":     b.hl,
		"gl":     b.gl,
	}

	type reply struct {
		data map[string]any
		err  error
	}
	ch := make(chan reply, 1)
	go func() {
		data, err := b.fetch(params, b.apiKey)
		ch <- reply{data, err}
	}()

	timer := time.NewTimer(b.timeout)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, fmt.Errorf("serpapi: timed out after %s", b.timeout)
	case r := <-ch:
		if r.err != nil {
			return nil, fmt.Errorf("serpapi: %w", r.err)
		}
		if msg, ok := r.data["error"].(string); ok && msg != "" {
			return nil, fmt.Errorf("serpapi: %s", msg)
		}
		return parseOrganic(r.data), nil
	}
}

func parseOrganic(data map[string]any) []model.SearchResult {
	items, ok := data["organic_results"].([]any)
	if !ok {
		return nil
	}
	out := make([]model.SearchResult, 0, len(items))
	for _, item := range items {
		res, ok := item.(map[string]any)
		if !ok {
			continue
		}
		link, _ := res["link"].(string)
		if link == "" {
			continue
		}
		title, _ := res["title"].(string)
		snippet, _ := res["snippet"].(string)
		out = append(out, model.SearchResult{Title: title, URL: link, Snippet: snippet})
	}
	return out
}
