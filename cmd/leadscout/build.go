package main

import (
	"context"
	"fmt"

	"github.com/FranksOps/leadscout/internal/agent"
	"github.com/FranksOps/leadscout/internal/config"
	"github.com/FranksOps/leadscout/internal/extractor"
	"github.com/FranksOps/leadscout/internal/fingerprint"
	"github.com/FranksOps/leadscout/internal/llm"
	"github.com/FranksOps/leadscout/internal/llm/gemini"
	"github.com/FranksOps/leadscout/internal/llm/openai"
	"github.com/FranksOps/leadscout/internal/scraper"
	"github.com/FranksOps/leadscout/internal/search"
	"github.com/FranksOps/leadscout/internal/search/serpapi"
	"github.com/FranksOps/leadscout/internal/storage"
	"github.com/FranksOps/leadscout/internal/storage/csvbackend"
	"github.com/FranksOps/leadscout/internal/storage/jsonbackend"
	"github.com/FranksOps/leadscout/internal/storage/postgres"
	"github.com/FranksOps/leadscout/internal/storage/sqlite"
	"github.com/FranksOps/leadscout/pkg/proxy"
	"github.com/FranksOps/leadscout/pkg/ratelimit"
)

// Token budgets per LLM use.
const (
	extractMaxTokens = 1000
	enrichMaxTokens  = 50
	agentMaxTokens   = 1500
	agentTemperature = 0.3
)

// components are the long-lived collaborators of one command.
type components struct {
	search    *search.Client
	fetcher   *scraper.Fetcher
	extractor *extractor.Extractor
	enricher  *extractor.Enricher
	store     storage.Backend
	closers   []func() error
}

func (c *components) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		_ = c.closers[i]()
	}
}

// newCompleter returns nil without error when no key is configured; callers
// that cannot work without a model check config.ValidateKeys first.
func (a *app) newCompleter(ctx context.Context, system string, temperature float64, maxTokens int) (llm.Completer, error) {
	cfg := a.cfg.LLM
	if cfg.Key() == "" {
		return nil, nil
	}

	if cfg.Provider == "gemini" {
		c, err := gemini.New(ctx, gemini.Config{
			APIKey:      cfg.GeminiAPIKey,
			Model:       cfg.Model,
			BaseURL:     cfg.BaseURL,
			Temperature: float32(temperature),
			MaxTokens:   int32(maxTokens),
		})
		if err != nil {
			return nil, err
		}
		if system == "" {
			return c, nil
		}
		return llm.CompleterFunc(func(ctx context.Context, prompt string) (string, error) {
			return c.Complete(ctx, system+"\n\n"+prompt)
		}), nil
	}

	c, err := openai.New(openai.Config{
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Model,
		System:      system,
		Temperature: temperature,
		MaxTokens:   maxTokens,
		Timeout:     cfg.Timeout,
		Logger:      a.logger,
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (a *app) newIdentifier(ctx context.Context) (*agent.Identifier, error) {
	c, err := a.newCompleter(ctx, agent.SystemPrompt, agentTemperature, agentMaxTokens)
	if err != nil {
		return nil, err
	}
	return agent.New(c, a.logger), nil
}

func (a *app) newSearchClient(ctx context.Context, comps *components) (*search.Client, error) {
	cfg := a.cfg.Search
	backend := a.searchBackend
	if backend == nil {
		sb, err := serpapi.New(a.cfg.SerpAPIKey,
			serpapi.WithTimeout(cfg.Timeout),
			serpapi.WithLocale(cfg.Language, cfg.Country),
		)
		if err != nil {
			return nil, err
		}
		backend = sb
	}

	var cache search.Cache = search.NewMemoryCache(cfg.CacheTTL)
	if cfg.RedisAddr != "" {
		rc, err := search.NewRedisCache(ctx, search.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			TTL:      cfg.CacheTTL,
		})
		if err != nil {
			return nil, err
		}
		comps.closers = append(comps.closers, rc.Close)
		cache = rc
	}

	return search.New(backend, search.Config{
		MaxPages:      cfg.MaxPages,
		RatePerSecond: cfg.RatePerSecond,
		Cache:         cache,
		Logger:        a.logger,
	}), nil
}

func (a *app) newFetcher(comps *components) (*scraper.Fetcher, error) {
	cfg := a.cfg.Fetch
	profile, err := fingerprint.ParseProfile(cfg.Fingerprint)
	if err != nil {
		return nil, err
	}

	var pool *proxy.Pool
	if cfg.ProxyFile != "" || len(cfg.Proxies) > 0 {
		pool = proxy.NewPool(proxy.Config{})
		if cfg.ProxyFile != "" {
			if err := pool.LoadFile(cfg.ProxyFile); err != nil {
				return nil, err
			}
		}
		if err := pool.Add(cfg.Proxies...); err != nil {
			return nil, err
		}
		a.logger.Info("using proxy pool", "proxies", pool.Len())
	}

	var limiter *ratelimit.Limiter
	if cfg.RatePerSecond > 0 {
		limiter = ratelimit.NewLimiter(cfg.RatePerSecond, 0.2)
		comps.closers = append(comps.closers, func() error { limiter.Stop(); return nil })
	}

	return scraper.NewFetcher(scraper.FetchConfig{
		Timeout:       cfg.Timeout,
		ProxyPool:     pool,
		RotateEvery:   cfg.RotateEvery,
		Fingerprint:   profile,
		Limiter:       limiter,
		MinDelay:      cfg.MinDelay,
		MaxDelay:      cfg.MaxDelay,
		MinChars:      cfg.MinChars,
		MaxChars:      cfg.MaxChars,
		RespectRobots: cfg.RespectRobots,
		Logger:        a.logger,
	})
}

// newEnricher builds the search client itself when comps has none yet.
func (a *app) newEnricher(ctx context.Context, comps *components) (*extractor.Enricher, error) {
	if comps.search == nil {
		sc, err := a.newSearchClient(ctx, comps)
		if err != nil {
			return nil, err
		}
		comps.search = sc
	}
	completer, err := a.newCompleter(ctx, "", 0, enrichMaxTokens)
	if err != nil {
		return nil, err
	}
	return extractor.NewEnricher(extractor.EnrichConfig{
		Searcher:  comps.search,
		Completer: completer,
		Delay:     a.cfg.Batch.EnrichDelay,
		Logger:    a.logger,
	}), nil
}

// buildPipelineComponents wires everything a batch run needs. The enricher is
// built only in full mode.
func (a *app) buildPipelineComponents(ctx context.Context) (*components, error) {
	comps := &components{}
	fail := func(err error) (*components, error) {
		comps.Close()
		return nil, err
	}

	sc, err := a.newSearchClient(ctx, comps)
	if err != nil {
		return fail(err)
	}
	comps.search = sc

	if comps.fetcher, err = a.newFetcher(comps); err != nil {
		return fail(err)
	}

	completer, err := a.newCompleter(ctx, "", 0, extractMaxTokens)
	if err != nil {
		return fail(err)
	}
	if completer == nil {
		a.logger.Warn("no LLM key configured, extracting with entity recognition only")
	}
	comps.extractor = extractor.New(extractor.Config{Completer: completer, Logger: a.logger})

	if a.cfg.Batch.Mode == "full" {
		if comps.enricher, err = a.newEnricher(ctx, comps); err != nil {
			return fail(err)
		}
	}

	if comps.store, err = openStore(ctx, a.cfg.Storage); err != nil {
		return fail(err)
	}
	if comps.store != nil {
		comps.closers = append(comps.closers, comps.store.Close)
	}
	return comps, nil
}

// openStore returns nil when storage is disabled.
func openStore(ctx context.Context, cfg config.StorageConfig) (storage.Backend, error) {
	switch cfg.Driver {
	case "", "none":
		return nil, nil
	case "csv":
		return csvbackend.New(cfg.DSN)
	case "json":
		return jsonbackend.New(cfg.DSN)
	case "sqlite":
		return sqlite.New(cfg.DSN)
	case "postgres":
		return postgres.New(ctx, cfg.DSN)
	}
	return nil, fmt.Errorf("%w: %q", config.ErrInvalidStorageDriver, cfg.Driver)
}
