package extractor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/FranksOps/leadscout/internal/llm"
	"github.com/FranksOps/leadscout/internal/metrics"
	"github.com/FranksOps/leadscout/internal/model"
	"github.com/FranksOps/leadscout/pkg/ratelimit"
)

// Searcher runs an unfiltered web search.
type Searcher interface {
	Lookup(ctx context.Context, query string, max int) ([]model.SearchResult, error)
}

// EnrichConfig configures an Enricher.
type EnrichConfig struct {
	Searcher Searcher
	// Completer is asked to read a search hit when regexes find nothing. Optional.
	Completer llm.Completer
	// Delay separates successive executives.
	Delay time.Duration
	// ResultsPerLookup zero selects 3.
	ResultsPerLookup int
	Logger           *slog.Logger
}

// Enricher looks up LinkedIn profiles and email addresses for executives.
type Enricher struct {
	cfg    EnrichConfig
	logger *slog.Logger
}

// NewEnricher returns an Enricher.
func NewEnricher(cfg EnrichConfig) *Enricher {
	if cfg.ResultsPerLookup <= 0 {
		cfg.ResultsPerLookup = 3
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Enricher{cfg: cfg, logger: cfg.Logger}
}

// EnrichmentQueries returns the lookup queries for r, or nil when r has no
// name or company.
func EnrichmentQueries(r model.ExecutiveRecord) []string {
	name, company := strings.TrimSpace(r.Name), strings.TrimSpace(r.Company)
	if name == "" || company == "" {
		return nil
	}
	return []string{
		fmt.Sprintf("%q %q LinkedIn profile", name, company),
		fmt.Sprintf("%q %q email contact", name, company),
		strings.Join(strings.Fields(fmt.Sprintf("%q %q %s contact information", name, company, r.Title)), " "),
		fmt.Sprintf("%q %q executive contact", name, company),
	}
}

// Enrich fills LinkedIn, or failing that email, for the first target records
// (all of them when target <= 0). The slice is updated in place and returned.
// A failed lookup leaves that executive as it was.
func (e *Enricher) Enrich(ctx context.Context, records []model.ExecutiveRecord, target int) []model.ExecutiveRecord {
	n := len(records)
	if target > 0 && target < n {
		n = target
	}
	e.logger.Info("enriching executives", "count", n)

	for i := 0; i < n; i++ {
		if ctx.Err() != nil {
			break
		}
		e.enrichOne(ctx, &records[i])

		if i < n-1 {
			if err := ratelimit.Sleep(ctx, e.cfg.Delay); err != nil {
				break
			}
		}
	}
	return records
}

func (e *Enricher) enrichOne(ctx context.Context, r *model.ExecutiveRecord) {
	queries := EnrichmentQueries(*r)
	if len(queries) == 0 {
		return
	}
	log := e.logger.With("name", r.Name, "company", r.Company)

	if r.LinkedIn == "" {
		for _, q := range queries[:2] {
			if li := e.findLinkedIn(ctx, q, *r); li != "" {
				r.LinkedIn = li
				log.Info("linkedin found", "linkedin", li)
				break
			}
		}
		metrics.RecordEnrichment("linkedin", r.LinkedIn != "")
	}
	if r.LinkedIn != "" || r.Email != "" {
		return
	}

	for _, q := range queries[1:] {
		if email := e.findEmail(ctx, q, *r); email != "" {
			r.Email = email
			log.Info("email found", "email", email)
			break
		}
	}
	metrics.RecordEnrichment("email", r.Email != "")
}

func (e *Enricher) lookup(ctx context.Context, query string) []model.SearchResult {
	results, err := e.cfg.Searcher.Lookup(ctx, query, e.cfg.ResultsPerLookup)
	if err != nil {
		e.logger.Warn("enrichment search failed", "query", query, "err", err)
		return nil
	}
	return results
}

func (e *Enricher) findLinkedIn(ctx context.Context, query string, r model.ExecutiveRecord) string {
	for _, res := range e.lookup(ctx, query) {
		if strings.Contains(strings.ToLower(res.URL), "linkedin.com/in/") {
			return res.URL
		}
		if li := NormalizeLinkedIn(res.Snippet); li != "" {
			return li
		}
		if reply := e.ask(ctx, linkedInPrompt, res, r); reply != "" {
			if strings.HasPrefix(strings.ToLower(reply), "linkedin.com/") {
				if li := NormalizeLinkedIn(reply); li != "" {
					return li
				}
			}
		}
	}
	return ""
}

func (e *Enricher) findEmail(ctx context.Context, query string, r model.ExecutiveRecord) string {
	for _, res := range e.lookup(ctx, query) {
		if emails := Emails(res.Snippet); len(emails) > 0 {
			return emails[0]
		}
		if reply := e.ask(ctx, emailPrompt, res, r); strings.Contains(reply, "@") {
			if email := ValidEmail(reply); email != "" {
				return email
			}
		}
	}
	return ""
}

const linkedInPrompt = `Extract LinkedIn profile URL from this search result.

Title: %s
URL: %s
Snippet: %s

Executive: %s at %s

Return only the LinkedIn profile URL if found, or "NOT_FOUND" if not found.
Format: linkedin.com/in/username or NOT_FOUND`

const emailPrompt = `Extract email address from this search result.

Title: %s
URL: %s
Snippet: %s

Executive: %s at %s

Return only the email address if found, or "NOT_FOUND" if not found.
Format: email@domain.com or NOT_FOUND`

// ask returns the trimmed completion, or "" when no completer is set, the
// call fails or the model answers NOT_FOUND.
func (e *Enricher) ask(ctx context.Context, prompt string, res model.SearchResult, r model.ExecutiveRecord) string {
	if e.cfg.Completer == nil {
		return ""
	}
	reply, err := e.cfg.Completer.Complete(ctx, fmt.Sprintf(prompt, res.Title, res.URL, res.Snippet, r.Name, r.Company))
	if err != nil {
		e.logger.Debug("enrichment completion failed", "url", res.URL, "err", err)
		return ""
	}
	reply = strings.TrimSpace(reply)
	if strings.EqualFold(reply, "NOT_FOUND") {
		return ""
	}
	return reply
}
