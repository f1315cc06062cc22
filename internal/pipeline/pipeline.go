// Package pipeline drives the per-company lead search from planned queries
// through to extracted, and in full mode enriched, executives.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/FranksOps/leadscout/internal/metrics"
	"github.com/FranksOps/leadscout/internal/model"
	"github.com/FranksOps/leadscout/internal/planner"
	"github.com/FranksOps/leadscout/internal/storage"
	"github.com/FranksOps/leadscout/pkg/ratelimit"
)

// ErrInvalidMode is returned by New for a mode other than basic or full.
var ErrInvalidMode = errors.New("pipeline: invalid mode")

// Searcher returns filtered search results for a query.
type Searcher interface {
	Search(ctx context.Context, query string, max int) []model.SearchResult
}

// Fetcher turns search results into usable articles.
type Fetcher interface {
	FetchArticles(ctx context.Context, results []model.SearchResult, max int) []model.Article
}

// Extractor finds executives in articles, stopping once target is reached.
type Extractor interface {
	Extract(ctx context.Context, articles []model.Article, target int) []model.ExecutiveRecord
}

// Enricher adds LinkedIn and email details to the first target records.
type Enricher interface {
	Enrich(ctx context.Context, records []model.ExecutiveRecord, target int) []model.ExecutiveRecord
}

// Mode selects how much work is done per company.
type Mode string

const (
	// ModeBasic extracts only.
	ModeBasic Mode = "basic"
	// ModeFull extracts with a larger target and enriches the results.
	ModeFull Mode = "full"
)

// State is where a company is in its processing cycle.
type State string

const (
	StatePending          State = "pending"
	StateQueriesGenerated State = "queries-generated"
	StateSearching        State = "searching"
	StateFetching         State = "fetching"
	StateExtracting       State = "extracting"
	StateNoResultsRetry   State = "no-results-retry"
	StateSuccess          State = "success"
	StateExhausted        State = "exhausted"
	// StateInvalid marks a company rejected before any query was planned.
	StateInvalid State = "invalid"
)

// Config holds the tunables of one run.
type Config struct {
	Mode Mode
	// MaxRetries caps how many planned queries are tried per company.
	MaxRetries       int
	ResultsPerQuery  int
	ArticlesPerQuery int
	// Target caps executives per company. Zero selects 3 in basic mode and 5 in full mode.
	Target       int
	QueryDelay   time.Duration
	CompanyDelay time.Duration
	// OnCompany, when set, is called after each company finishes.
	OnCompany func(Outcome, []model.ExecutiveRecord)
}

func (c *Config) applyDefaults() error {
	if c.Mode == "" {
		c.Mode = ModeBasic
	}
	if c.Mode != ModeBasic && c.Mode != ModeFull {
		return fmt.Errorf("%w: %q", ErrInvalidMode, c.Mode)
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.ResultsPerQuery <= 0 {
		c.ResultsPerQuery = 5
	}
	if c.ArticlesPerQuery <= 0 {
		c.ArticlesPerQuery = 3
	}
	if c.Target <= 0 {
		c.Target = 3
		if c.Mode == ModeFull {
			c.Target = 5
		}
	}
	return nil
}

// Deps are the collaborators of a Pipeline. Enricher is used only in full
// mode and Store is optional.
type Deps struct {
	Searcher  Searcher
	Fetcher   Fetcher
	Extractor Extractor
	Enricher  Enricher
	Store     storage.Backend
	Logger    *slog.Logger
}

// Outcome is the terminal state of one company.
type Outcome struct {
	Company  model.Company
	State    State
	Attempts int
	Found    int
	Err      error
}

// Result is everything a run produced.
type Result struct {
	RunID    string
	Records  []model.ExecutiveRecord
	Outcomes []Outcome
}

// Pipeline processes companies one at a time.
type Pipeline struct {
	deps   Deps
	cfg    Config
	logger *slog.Logger
}

// New validates deps and cfg and fills config defaults.
func New(deps Deps, cfg Config) (*Pipeline, error) {
	if deps.Searcher == nil || deps.Fetcher == nil || deps.Extractor == nil {
		return nil, errors.New("pipeline: searcher, fetcher and extractor are required")
	}
	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Mode == ModeFull && deps.Enricher == nil {
		logger.Warn("full mode without an enricher, records will not be enriched")
	}
	return &Pipeline{deps: deps, cfg: cfg, logger: logger}, nil
}

// Config returns the effective configuration.
func (p *Pipeline) Config() Config { return p.cfg }

// Run processes companies in order. Failures inside one company never stop
// the run. If ctx is cancelled, Run returns what was gathered so far along
// with ctx.Err().
func (p *Pipeline) Run(ctx context.Context, companies []model.Company) (Result, error) {
	res := Result{RunID: uuid.NewString()}
	log := p.logger.With("run_id", res.RunID)
	log.Info("run started", "companies", len(companies), "mode", p.cfg.Mode, "target", p.cfg.Target)

	for i, c := range companies {
		if i > 0 {
			if err := ratelimit.Sleep(ctx, p.cfg.CompanyDelay); err != nil {
				return p.finish(log, res, err)
			}
		} else if err := ctx.Err(); err != nil {
			return p.finish(log, res, err)
		}

		log.Info("processing company", "index", i+1, "of", len(companies), "company", c.Name)
		records, out := p.processCompany(ctx, log, c)

		if p.cfg.Mode == ModeFull && p.deps.Enricher != nil && len(records) > 0 && ctx.Err() == nil {
			records = p.deps.Enricher.Enrich(ctx, records, p.cfg.Target)
		}
		if len(records) > p.cfg.Target {
			records = records[:p.cfg.Target]
		}
		for j := range records {
			if records[j].Industry == "" {
				records[j].Industry = c.Industry
			}
		}
		out.Found = len(records)

		p.store(ctx, log, res.RunID, records)
		metrics.CompanyOutcomes.WithLabelValues(string(out.State)).Inc()
		if p.cfg.OnCompany != nil {
			p.cfg.OnCompany(out, records)
		}

		res.Records = append(res.Records, records...)
		res.Outcomes = append(res.Outcomes, out)

		if err := ctx.Err(); err != nil {
			return p.finish(log, res, err)
		}
	}
	return p.finish(log, res, nil)
}

func (p *Pipeline) finish(log *slog.Logger, res Result, err error) (Result, error) {
	if err != nil {
		log.Warn("run interrupted", "companies_done", len(res.Outcomes), "executives", len(res.Records), "err", err)
		return res, err
	}
	log.Info("run finished", "companies", len(res.Outcomes), "executives", len(res.Records))
	return res, nil
}

// processCompany walks one company through
// pending → queries-generated → searching → fetching → extracting → success | exhausted,
// moving on to the next planned query whenever a step yields nothing.
func (p *Pipeline) processCompany(ctx context.Context, log *slog.Logger, c model.Company) ([]model.ExecutiveRecord, Outcome) {
	out := Outcome{Company: c, State: StatePending}
	log = log.With("company", c.Name)

	queries, err := planner.Queries(c)
	if err != nil {
		out.State, out.Err = StateInvalid, err
		log.Warn("skipping company", "err", err)
		return nil, out
	}
	out.State = StateQueriesGenerated
	log.Debug("queries planned", "count", len(queries))

	attempts := min(p.cfg.MaxRetries, len(queries))
	for i := 0; i < attempts; i++ {
		if i > 0 {
			if err := ratelimit.Sleep(ctx, p.cfg.QueryDelay); err != nil {
				out.Err = err
				break
			}
		}
		out.Attempts++
		query := queries[i]
		alog := log.With("attempt", i+1, "of", attempts, "query", query)

		out.State = StateSearching
		results := p.deps.Searcher.Search(ctx, query, p.cfg.ResultsPerQuery)
		if len(results) == 0 {
			out.State = StateNoResultsRetry
			alog.Info("no search results, trying next query")
			continue
		}

		out.State = StateFetching
		articles := p.deps.Fetcher.FetchArticles(ctx, results, p.cfg.ArticlesPerQuery)
		if len(articles) == 0 {
			out.State = StateNoResultsRetry
			alog.Info("no usable articles, trying next query", "results", len(results))
			continue
		}

		out.State = StateExtracting
		records := p.deps.Extractor.Extract(ctx, articles, p.cfg.Target)
		if len(records) > 0 {
			out.State = StateSuccess
			alog.Info("executives found", "found", len(records), "articles", len(articles))
			return records, out
		}
		out.State = StateNoResultsRetry
		alog.Info("no executives found, trying next query", "articles", len(articles))
	}

	out.State = StateExhausted
	if out.Err == nil {
		out.Err = ctx.Err()
	}
	log.Warn("no executives found", "attempts", out.Attempts)
	return nil, out
}

// store saves records as soon as their company finishes so an interrupted
// run keeps what it found.
func (p *Pipeline) store(ctx context.Context, log *slog.Logger, runID string, records []model.ExecutiveRecord) {
	if p.deps.Store == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	for _, r := range records {
		if err := p.deps.Store.Save(ctx, storage.NewRecord(runID, r)); err != nil {
			log.Error("failed to store executive", "name", r.Name, "company", r.Company, "err", err)
		}
	}
}
