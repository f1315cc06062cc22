package scraper

import (
	"context"
	"log/slog"
	"net/url"
	"sync"

	"github.com/temoto/robotstxt"

	"github.com/FranksOps/leadscout/pkg/httpclient"
)

// getFunc performs a GET with the given User-Agent.
type getFunc func(ctx context.Context, rawURL, userAgent string) (*httpclient.Response, error)

// RobotsAuditor fetches and caches robots.txt per origin.
type RobotsAuditor struct {
	get    getFunc
	logger *slog.Logger

	mu    sync.Mutex
	cache map[string]*robotstxt.RobotsData
}

// NewRobotsAuditor returns an auditor that downloads robots.txt through get.
func NewRobotsAuditor(get getFunc, logger *slog.Logger) *RobotsAuditor {
	if logger == nil {
		logger = slog.Default()
	}
	return &RobotsAuditor{
		get:    get,
		logger: logger,
		cache:  make(map[string]*robotstxt.RobotsData),
	}
}

// IsAllowed reports whether userAgent may fetch u. Hosts whose robots.txt is
// missing, unreachable or unparsable are treated as allowing everything.
func (r *RobotsAuditor) IsAllowed(ctx context.Context, u *url.URL, userAgent string) bool {
	data := r.lookup(ctx, u.Scheme+"://"+u.Host, userAgent)
	if data == nil {
		return true
	}
	return data.TestAgent(u.EscapedPath(), userAgent)
}

func (r *RobotsAuditor) lookup(ctx context.Context, origin, userAgent string) *robotstxt.RobotsData {
	r.mu.Lock()
	defer r.mu.Unlock()

	if data, ok := r.cache[origin]; ok {
		return data
	}

	var data *robotstxt.RobotsData
	resp, err := r.get(ctx, origin+"/robots.txt", userAgent)
	switch {
	case err != nil:
		r.logger.Debug("robots.txt fetch failed, allowing", "origin", origin, "err", err)
	case resp.StatusCode >= 400:
	default:
		data, err = robotstxt.FromStatusAndBytes(resp.StatusCode, resp.Body)
		if err != nil {
			r.logger.Debug("robots.txt parse failed, allowing", "origin", origin, "err", err)
			data = nil
		}
	}
	r.cache[origin] = data
	return data
}
