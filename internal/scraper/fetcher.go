package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/FranksOps/leadscout/internal/analyzer"
	"github.com/FranksOps/leadscout/internal/bypass"
	"github.com/FranksOps/leadscout/internal/fingerprint"
	"github.com/FranksOps/leadscout/internal/metrics"
	"github.com/FranksOps/leadscout/internal/model"
	"github.com/FranksOps/leadscout/pkg/httpclient"
	"github.com/FranksOps/leadscout/pkg/proxy"
	"github.com/FranksOps/leadscout/pkg/ratelimit"
	"github.com/FranksOps/leadscout/pkg/useragent"
)

var (
	// ErrSkipped means the URL was rejected before any request was made.
	ErrSkipped = errors.New("scraper: url skipped")
	// ErrStatus means the server answered with a non-2xx status.
	ErrStatus = errors.New("scraper: unexpected status")
	// ErrBlocked means a bot-protection challenge page was served.
	ErrBlocked = errors.New("scraper: blocked by bot protection")
	// ErrDisallowed means robots.txt forbids the path.
	ErrDisallowed = errors.New("scraper: disallowed by robots.txt")
	// ErrTooShort means the cleaned text is below the minimum size.
	ErrTooShort = errors.New("scraper: content too short")
	// ErrTooLong means the cleaned text is above the maximum size.
	ErrTooLong = errors.New("scraper: content too long")
	// ErrIrrelevant means no executive keyword appears in the text.
	ErrIrrelevant = errors.New("scraper: no executive keywords")
)

type contextKey string

const proxyKey contextKey = "proxy_url"

// FetchConfig configures the article fetcher.
type FetchConfig struct {
	Timeout      time.Duration
	MaxRedirects int
	// MaxBodyBytes caps a page download. Larger pages are rejected as too long.
	// Zero selects 5 MiB.
	MaxBodyBytes int64
	UseCookieJar bool
	ProxyPool    *proxy.Pool
	UAPool       *useragent.Pool
	// RotateEvery is how many requests share one User-Agent.
	RotateEvery int
	Fingerprint fingerprint.Profile
	Limiter     *ratelimit.Limiter
	// MinDelay and MaxDelay bound the random pause between fetches.
	// Both zero disables pacing.
	MinDelay time.Duration
	MaxDelay time.Duration
	MinChars int
	MaxChars int
	// Keywords gate relevance; nil selects RelevanceKeywords.
	Keywords []string
	// SkipDomains are never requested; nil selects DefaultSkipDomains.
	SkipDomains   []string
	RespectRobots bool
	// InsecureSkipVerify disables TLS verification. Only tests set it.
	InsecureSkipVerify bool
	Logger             *slog.Logger
}

// Fetcher downloads search hits and turns them into Articles.
type Fetcher struct {
	config FetchConfig
	client *httpclient.Client
	ua     *useragent.Rotator
	pacer  *ratelimit.Pacer
	robots *RobotsAuditor
	logger *slog.Logger
}

// NewFetcher builds a Fetcher. A single client is held across requests so
// connections and cookies are reused for the fetcher's lifetime.
func NewFetcher(cfg FetchConfig) (*Fetcher, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.UAPool == nil {
		cfg.UAPool = useragent.NewPool(nil)
	}
	if cfg.RotateEvery <= 0 {
		cfg.RotateEvery = 5
	}
	if cfg.Fingerprint == "" {
		cfg.Fingerprint = fingerprint.ProfileChrome
	}
	if cfg.MinChars <= 0 {
		cfg.MinChars = 200
	}
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = 50000
	}
	if cfg.Keywords == nil {
		cfg.Keywords = RelevanceKeywords
	}
	if cfg.SkipDomains == nil {
		cfg.SkipDomains = DefaultSkipDomains
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	// The proxy is chosen per request and carried on the request context,
	// so one transport serves every proxy in the pool.
	proxyFunc := func(req *http.Request) (*url.URL, error) {
		if u, ok := req.Context().Value(proxyKey).(*url.URL); ok {
			return u, nil
		}
		return nil, nil
	}

	transport, err := fingerprint.Transport(cfg.Fingerprint, fingerprint.Options{
		Proxy:              proxyFunc,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
	})
	if err != nil {
		return nil, fmt.Errorf("scraper: transport: %w", err)
	}

	client, err := httpclient.New(httpclient.Config{
		Timeout:      cfg.Timeout,
		MaxRedirects: cfg.MaxRedirects,
		UseCookieJar: cfg.UseCookieJar,
		Transport:    transport,
		MaxBodyBytes: cfg.MaxBodyBytes,
		Header: http.Header{
			"Accept":          {"text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"},
			"Accept-Language": {"en-US,en;q=0.5"},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("scraper: client: %w", err)
	}

	f := &Fetcher{
		config: cfg,
		client: client,
		ua:     useragent.NewRotator(cfg.UAPool, cfg.RotateEvery),
		logger: cfg.Logger,
	}
	if cfg.MinDelay > 0 || cfg.MaxDelay > 0 {
		f.pacer = ratelimit.NewPacer(cfg.MinDelay, cfg.MaxDelay)
	}
	if cfg.RespectRobots {
		f.robots = NewRobotsAuditor(f.get, cfg.Logger)
	}
	return f, nil
}

// Fetch downloads targetURL and returns the cleaned article. Every rejection
// returns a nil article and an error wrapping one of the package sentinels.
func (f *Fetcher) Fetch(ctx context.Context, targetURL string) (*model.Article, error) {
	u, err := url.Parse(strings.TrimSpace(targetURL))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSkipped, err)
	}
	domain := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	if reason := SkipReason(u, f.config.SkipDomains); reason != "" {
		metrics.RecordFetch(domain, "skipped", 0, 0)
		return nil, fmt.Errorf("%w: %s", ErrSkipped, reason)
	}

	if err := f.pacer.Pause(ctx); err != nil {
		return nil, err
	}
	if err := f.config.Limiter.Wait(ctx); err != nil {
		return nil, err
	}

	ua := f.ua.Next()
	if f.robots != nil && !f.robots.IsAllowed(ctx, u, ua) {
		metrics.RecordFetch(domain, "disallowed", 0, 0)
		return nil, fmt.Errorf("%w: %s", ErrDisallowed, u.EscapedPath())
	}

	resp, err := f.get(ctx, u.String(), ua)
	if err != nil {
		metrics.RecordFetch(domain, "error", 0, 0)
		return nil, fmt.Errorf("scraper: fetch %s: %w", u, err)
	}

	if src, blocked := bypass.Analyze(bypass.Page{StatusCode: resp.StatusCode, Header: resp.Header, Body: resp.Body}, bypass.DefaultDetectors()); blocked {
		metrics.RecordFetch(domain, "blocked", resp.Duration, len(resp.Body))
		return nil, fmt.Errorf("%w: %s", ErrBlocked, src)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		metrics.RecordFetch(domain, "status", resp.Duration, len(resp.Body))
		return nil, fmt.Errorf("%w: %d", ErrStatus, resp.StatusCode)
	}

	if resp.Truncated {
		metrics.RecordFetch(domain, "too_long", resp.Duration, len(resp.Body))
		return nil, fmt.Errorf("%w: body exceeds %d bytes", ErrTooLong, len(resp.Body))
	}

	art, outcome, err := f.build(u, domain, resp.Body)
	metrics.RecordFetch(domain, outcome, resp.Duration, len(resp.Body))
	if err != nil {
		return nil, err
	}
	return art, nil
}

func (f *Fetcher) build(u *url.URL, domain string, body []byte) (*model.Article, string, error) {
	content, err := ExtractContent(body, u, f.config.MinChars)
	if err != nil {
		return nil, "parse", err
	}

	n := utf8.RuneCountInString(content.Text)
	switch {
	case n < f.config.MinChars:
		return nil, "too_short", fmt.Errorf("%w: %d chars", ErrTooShort, n)
	case n > f.config.MaxChars:
		return nil, "too_long", fmt.Errorf("%w: %d chars", ErrTooLong, n)
	}

	matches := analyzer.FindTermMatches(content.Title+". "+content.Text, u.String(), f.config.Keywords)
	if len(matches) == 0 {
		return nil, "irrelevant", ErrIrrelevant
	}
	matched := make([]string, len(matches))
	for i, m := range matches {
		matched[i] = m.Term
		if len(m.Sentences) > 0 {
			f.logger.Debug("relevance term", "url", u.String(), "term", m.Term, "count", m.Count, "sentence", m.Sentences[0])
		}
	}

	return &model.Article{
		URL:       u.String(),
		Title:     content.Title,
		Text:      content.Text,
		WordCount: len(strings.Fields(content.Text)),
		Domain:    domain,
		Keywords:  matched,
	}, "ok", nil
}

// get performs one GET through the configured proxy pool.
func (f *Fetcher) get(ctx context.Context, rawURL, ua string) (*httpclient.Response, error) {
	var activeProxy *url.URL
	if f.config.ProxyPool != nil {
		activeProxy = f.config.ProxyPool.Next()
	}
	if activeProxy != nil {
		ctx = context.WithValue(ctx, proxyKey, activeProxy)
	}

	resp, err := f.client.Get(ctx, rawURL, http.Header{"User-Agent": {ua}})
	if activeProxy != nil {
		if err != nil {
			_ = f.config.ProxyPool.MarkFailure(activeProxy)
			metrics.ProxyFailures.WithLabelValues(activeProxy.String()).Inc()
		} else {
			_ = f.config.ProxyPool.MarkSuccess(activeProxy)
		}
	}
	return resp, err
}

// FetchArticles fetches results in order until max usable articles are
// collected. Rejections are logged and skipped; only ctx cancellation stops early.
func (f *Fetcher) FetchArticles(ctx context.Context, results []model.SearchResult, max int) []model.Article {
	var out []model.Article
	for _, r := range results {
		if max > 0 && len(out) >= max {
			break
		}
		if ctx.Err() != nil {
			break
		}
		art, err := f.Fetch(ctx, r.URL)
		if err != nil {
			level := slog.LevelInfo
			if errors.Is(err, ErrSkipped) {
				level = slog.LevelDebug
			}
			f.logger.Log(ctx, level, "article rejected", "url", r.URL, "err", err)
			continue
		}
		if art.Title == "" {
			art.Title = r.Title
		}
		f.logger.Info("article fetched", "url", art.URL, "chars", utf8.RuneCountInString(art.Text), "keywords", art.Keywords)
		out = append(out, *art)
	}
	return out
}
