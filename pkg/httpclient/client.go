package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"time"
)

const (
	defaultTimeout      = 30 * time.Second
	defaultMaxRedirects = 10
	defaultMaxBodyBytes = 5 << 20
)

// Config defines the setup for the HTTP Client.
type Config struct {
	Timeout time.Duration
	// MaxRedirects caps redirect hops. Zero selects the default of 10;
	// a negative value disables redirects entirely.
	MaxRedirects int
	UseCookieJar bool
	// Transport overrides the round tripper, e.g. for proxies or uTLS fingerprinting.
	Transport http.RoundTripper
	// Header is applied to every request that does not already set the key.
	Header http.Header
	// MaxBodyBytes bounds how much of a response Get reads. Zero selects 5 MiB.
	MaxBodyBytes int64
}

// Client wraps http.Client with a fixed timeout, a redirect policy, optional
// cookie persistence and default headers.
type Client struct {
	*http.Client
	header  http.Header
	maxBody int64
}

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Duration   time.Duration
	// Truncated is set when the body exceeded MaxBodyBytes.
	Truncated bool
}

// New creates a Client from cfg.
func New(cfg Config) (*Client, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxRedirects == 0 {
		cfg.MaxRedirects = defaultMaxRedirects
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}

	c := &http.Client{Timeout: cfg.Timeout}

	if cfg.MaxRedirects > 0 {
		limit := cfg.MaxRedirects
		c.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			if len(via) >= limit {
				return fmt.Errorf("httpclient: stopped after %d redirects", limit)
			}
			return nil
		}
	} else {
		c.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}

	if cfg.UseCookieJar {
		jar, err := cookiejar.New(nil)
		if err != nil {
			return nil, fmt.Errorf("httpclient: cookie jar: %w", err)
		}
		c.Jar = jar
	}

	if cfg.Transport != nil {
		c.Transport = cfg.Transport
	}

	return &Client{Client: c, header: cfg.Header.Clone(), maxBody: cfg.MaxBodyBytes}, nil
}

// Do executes req under ctx after applying the default headers.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if ctx == nil {
		return nil, errors.New("httpclient: context cannot be nil")
	}

	r := req.Clone(ctx)
	for k, vals := range c.header {
		if r.Header.Get(k) == "" {
			for _, v := range vals {
				r.Header.Add(k, v)
			}
		}
	}

	resp, err := c.Client.Do(r)
	if err != nil {
		return nil, fmt.Errorf("httpclient: %w", err)
	}
	return resp, nil
}

// Get fetches rawURL and reads at most MaxBodyBytes of the body. header
// entries override the client defaults.
func (c *Client) Get(ctx context.Context, rawURL string, header http.Header) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("httpclient: build request: %w", err)
	}
	for k, vals := range header {
		req.Header.Del(k)
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}

	start := time.Now()
	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("httpclient: read body: %w", err)
	}
	out := &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Duration:   time.Since(start),
	}
	if int64(len(body)) > c.maxBody {
		body = body[:c.maxBody]
		out.Truncated = true
	}
	out.Body = body
	return out, nil
}
