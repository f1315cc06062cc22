// Package extractor turns article text into executive records and enriches
// those records with LinkedIn profiles and email addresses.
package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/mail"
	"regexp"
	"strings"

	"github.com/FranksOps/leadscout/internal/analyzer"
	"github.com/FranksOps/leadscout/internal/llm"
	"github.com/FranksOps/leadscout/internal/metrics"
	"github.com/FranksOps/leadscout/internal/model"
)

const (
	llmConfidence = 0.9
	nerConfidence = 0.7
)

var (
	emailPattern    = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	linkedInPattern = regexp.MustCompile(`(?i)(?:https?://)?(?:[a-z]{2,3}\.)?linkedin\.com/in/([A-Za-z0-9_-]+)`)
)

// Config configures an Extractor.
type Config struct {
	// Completer enables the LLM pass. Nil runs entity recognition only.
	Completer llm.Completer
	// Recognizer defaults to HeuristicRecognizer.
	Recognizer EntityRecognizer
	// MaxPersons bounds how many people per article are examined. Zero selects 10.
	MaxPersons int
	// Radius is the context window, in bytes, either side of a name. Zero selects 100.
	Radius int
	// ExcerptRunes bounds the article text sent to the LLM. Zero selects 4000.
	ExcerptRunes int
	Logger       *slog.Logger
}

// Extractor finds executives in articles.
type Extractor struct {
	cfg    Config
	logger *slog.Logger
}

// New returns an Extractor.
func New(cfg Config) *Extractor {
	if cfg.Recognizer == nil {
		cfg.Recognizer = HeuristicRecognizer{}
	}
	if cfg.MaxPersons <= 0 {
		cfg.MaxPersons = 10
	}
	if cfg.Radius <= 0 {
		cfg.Radius = 100
	}
	if cfg.ExcerptRunes <= 0 {
		cfg.ExcerptRunes = 4000
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Extractor{cfg: cfg, logger: cfg.Logger}
}

// Extract reads articles in order and returns deduplicated executives. Once
// the running deduplicated total reaches target, no further articles are
// read and the result is truncated to exactly target. A target of zero or
// less reads every article.
func (e *Extractor) Extract(ctx context.Context, articles []model.Article, target int) []model.ExecutiveRecord {
	var all []model.ExecutiveRecord
	for i, a := range articles {
		if ctx.Err() != nil {
			break
		}
		found := e.ExtractArticle(ctx, a)
		e.logger.Debug("article extracted", "index", i+1, "of", len(articles), "url", a.URL, "found", len(found))
		all = append(all, found...)

		if target > 0 {
			if unique := model.Dedupe(all); len(unique) >= target {
				e.logger.Info("executive target reached", "target", target, "articles_read", i+1)
				return unique[:target]
			}
		}
	}
	return model.Dedupe(all)
}

// ExtractArticle runs the LLM and entity passes over one article and
// backfills contact details found anywhere in its text. Records missing a
// name, title or company are dropped.
func (e *Extractor) ExtractArticle(ctx context.Context, a model.Article) []model.ExecutiveRecord {
	text := a.FullText()

	var recs []model.ExecutiveRecord
	if e.cfg.Completer != nil {
		recs = append(recs, e.fromLLM(ctx, text, a)...)
	}
	recs = append(recs, e.fromEntities(text, a)...)

	emails := Emails(text)
	profiles := LinkedInProfiles(text)

	out := recs[:0]
	for _, r := range recs {
		if r.Email == "" && len(emails) > 0 {
			r.Email = emails[0]
		}
		if r.LinkedIn == "" && len(profiles) > 0 {
			r.LinkedIn = profiles[0]
		}
		if err := r.Validate(); err != nil {
			e.logger.Debug("dropping executive", "url", a.URL, "method", r.Method, "err", err)
			continue
		}
		metrics.ExecutivesExtracted.WithLabelValues(r.Method).Inc()
		out = append(out, r)
	}
	return out
}

const extractPrompt = `Extract executive information from this article. Look for:
- Executive names
- Their titles/positions
- The company/organization they work for
- Any email addresses
- LinkedIn profile URLs

Article text:
%s

Return a JSON array of executives found, with this structure:
[
  {
    "name": "Full Name",
    "title": "Position Title",
    "company": "Company Name",
    "email": "email@domain.com",
    "linkedin": "linkedin.com/in/profile",
    "confidence": 0.9
  }
]

Leave email and linkedin empty when not found. Only include executives from companies/organizations.
If no executives are found, return an empty array [].`

type llmExecutive struct {
	Name       string   `json:"name"`
	Title      string   `json:"title"`
	Company    string   `json:"company"`
	Email      string   `json:"email"`
	LinkedIn   string   `json:"linkedin"`
	Confidence *float64 `json:"confidence"`
}

func (e *Extractor) fromLLM(ctx context.Context, text string, a model.Article) []model.ExecutiveRecord {
	excerpt := text
	if r := []rune(text); len(r) > e.cfg.ExcerptRunes {
		excerpt = string(r[:e.cfg.ExcerptRunes])
	}

	reply, err := e.cfg.Completer.Complete(ctx, fmt.Sprintf(extractPrompt, excerpt))
	if err != nil {
		e.logger.Warn("llm extraction failed", "url", a.URL, "err", err)
		return nil
	}

	var parsed []llmExecutive
	if err := json.Unmarshal([]byte(llm.CleanJSON(reply)), &parsed); err != nil {
		e.logger.Warn("llm extraction returned invalid json", "url", a.URL, "err", err)
		return nil
	}

	out := make([]model.ExecutiveRecord, 0, len(parsed))
	for _, p := range parsed {
		conf := llmConfidence
		if p.Confidence != nil {
			conf = min(max(*p.Confidence, 0), 1)
		}
		out = append(out, model.ExecutiveRecord{
			Name:        strings.TrimSpace(p.Name),
			Title:       strings.TrimSpace(p.Title),
			Company:     strings.TrimSpace(p.Company),
			Email:       ValidEmail(p.Email),
			LinkedIn:    NormalizeLinkedIn(p.LinkedIn),
			Confidence:  conf,
			SourceURL:   a.URL,
			SourceTitle: a.Title,
			Method:      model.MethodLLM,
		})
	}
	return out
}

func (e *Extractor) fromEntities(text string, a model.Article) []model.ExecutiveRecord {
	var persons, orgs []string
	for _, ent := range e.cfg.Recognizer.Entities(text) {
		switch ent.Label {
		case LabelPerson:
			persons = append(persons, ent.Text)
		case LabelOrg:
			orgs = append(orgs, ent.Text)
		}
	}
	if len(persons) > e.cfg.MaxPersons {
		persons = persons[:e.cfg.MaxPersons]
	}

	var out []model.ExecutiveRecord
	for _, person := range persons {
		pos := strings.Index(text, person)
		if pos < 0 {
			continue
		}
		window := analyzer.Window(text, pos, pos+len(person), e.cfg.Radius)

		title := TitleIn(window)
		if title == "" {
			continue
		}
		company := firstOrgIn(window, orgs)
		if company == "" {
			continue
		}
		out = append(out, model.ExecutiveRecord{
			Name:        person,
			Title:       title,
			Company:     company,
			Confidence:  nerConfidence,
			SourceURL:   a.URL,
			SourceTitle: a.Title,
			Method:      model.MethodNER,
		})
	}
	return out
}

// firstOrgIn returns the non-generic organization that occurs earliest in
// window. On a shared start the longer name wins.
func firstOrgIn(window string, orgs []string) string {
	best, bestAt := "", -1
	for _, org := range orgs {
		if genericOrg(org) {
			continue
		}
		at := strings.Index(window, org)
		if at < 0 {
			continue
		}
		if bestAt < 0 || at < bestAt || (at == bestAt && len(org) > len(best)) {
			best, bestAt = org, at
		}
	}
	return best
}

// Emails returns the syntactically valid addresses in text, in order.
func Emails(text string) []string {
	var out []string
	for _, m := range emailPattern.FindAllString(text, -1) {
		if v := ValidEmail(m); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// ValidEmail returns s trimmed if it is a bare, well-formed address with a
// dotted domain, and "" otherwise.
func ValidEmail(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s || addr.Name != "" {
		return ""
	}
	at := strings.LastIndexByte(s, '@')
	domain := s[at+1:]
	if !strings.Contains(domain, ".") || strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") || strings.Contains(domain, "..") {
		return ""
	}
	return s
}

// LinkedInProfiles returns the normalized profile URLs in text, in order.
func LinkedInProfiles(text string) []string {
	var out []string
	for _, m := range linkedInPattern.FindAllStringSubmatch(text, -1) {
		out = append(out, "https://www.linkedin.com/in/"+m[1])
	}
	return out
}

// NormalizeLinkedIn rewrites any linkedin.com/in/<handle> reference as
// https://www.linkedin.com/in/<handle>. Anything else yields "".
func NormalizeLinkedIn(s string) string {
	m := linkedInPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return ""
	}
	return "https://www.linkedin.com/in/" + m[1]
}
