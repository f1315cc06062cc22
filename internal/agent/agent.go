// Package agent turns a natural-language research request into a list of
// target companies.
package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/FranksOps/leadscout/internal/llm"
	"github.com/FranksOps/leadscout/internal/model"
)

var (
	// ErrNoCompleter is returned when the Identifier has no language model.
	ErrNoCompleter = errors.New("agent: no completer configured")
	// ErrNoCompanies is returned when nothing usable could be identified.
	ErrNoCompanies = errors.New("agent: no companies identified")
)

// SystemPrompt primes the model for company identification. Completers that
// support a system message should be built with it.
const SystemPrompt = `You are a Professional Investor Leads Generator specializing in finding CXO-level executives from companies.

Your role is to understand user queries about companies they want to research, find relevant companies,
respect quantity requests such as "top 5" or "first 3", and produce structured JSON for executive extraction.

For vague queries, use your knowledge to find relevant companies. Focus on UAE companies (primary market),
listed or public companies, major private companies and companies with significant CXO presence.`

const identifyPrompt = `Analyze this user query and find relevant companies for executive research:

User Query: %q

Your task:
1. Understand what type of companies the user wants
2. Pay attention to quantity requests (e.g., "top 5", "10 companies", "first 3")
3. Find relevant companies
4. Provide company details in a structured format

For each company, provide:
- name: Full company name
- city: Company's city/location
- country: Company's country (usually UAE)
- industry: Company's industry/sector

Quantity handling:
- Look for patterns like "top X", "first X", "X companies", "get X", "list X"
- If quantity specified, return exactly that many companies
- If no quantity specified, return 5-10 companies

Return a JSON object with:
{
  "query_type": "specific|vague|industry|regional",
  "companies": [
    {"name": "Company Name", "city": "City", "country": "Country", "industry": "Industry/Sector"}
  ],
  "reasoning": "Brief explanation of why these companies were selected",
  "quantity_requested": 0
}

If the query is about specific companies, focus on those. If vague, suggest relevant companies based on the context.`

// QueryTypeFallback marks an Identification recovered without valid JSON.
const QueryTypeFallback = "fallback"

// Identification is the agent's answer to one request.
type Identification struct {
	QueryType         string          `json:"query_type"`
	Companies         []model.Company `json:"companies"`
	Reasoning         string          `json:"reasoning"`
	QuantityRequested int             `json:"quantity_requested,omitempty"`
}

// BatchJSON encodes the companies in the batch input format accepted by the loader.
func (id Identification) BatchJSON() ([]byte, error) {
	return json.MarshalIndent(struct {
		Companies []model.Company `json:"companies"`
	}{id.Companies}, "", "  ")
}

// Identifier asks a language model which companies a request refers to.
type Identifier struct {
	completer llm.Completer
	logger    *slog.Logger
}

// New returns an Identifier. completer may be nil, in which case Identify
// always fails with ErrNoCompleter.
func New(completer llm.Completer, logger *slog.Logger) *Identifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Identifier{completer: completer, logger: logger}
}

// Identify returns the companies named or implied by request. Invalid
// companies are dropped. When the model's reply is not valid JSON the
// companies are recovered line by line, and failing that from a list of
// well-known names mentioned in the request.
func (a *Identifier) Identify(ctx context.Context, request string) (Identification, error) {
	if a.completer == nil {
		return Identification{}, ErrNoCompleter
	}
	request = strings.TrimSpace(request)
	if request == "" {
		return Identification{}, fmt.Errorf("%w: empty request", ErrNoCompanies)
	}

	reply, err := a.completer.Complete(ctx, fmt.Sprintf(identifyPrompt, request))
	if err != nil {
		if ctx.Err() != nil {
			return Identification{}, ctx.Err()
		}
		a.logger.Warn("company identification failed, using fallback", "err", err)
		reply = ""
	}

	id, err := parseIdentification(reply)
	if err != nil {
		a.logger.Warn("company identification reply unparsable, using fallback", "err", err)
		id = fallback(reply, request)
	}

	id.Companies = validCompanies(id.Companies, a.logger)
	if id.QuantityRequested > 0 && len(id.Companies) > id.QuantityRequested {
		id.Companies = id.Companies[:id.QuantityRequested]
	}
	if len(id.Companies) == 0 {
		return id, ErrNoCompanies
	}
	a.logger.Info("companies identified", "count", len(id.Companies), "query_type", id.QueryType)
	return id, nil
}

type rawIdentification struct {
	QueryType         string          `json:"query_type"`
	Companies         []model.Company `json:"companies"`
	Reasoning         string          `json:"reasoning"`
	QuantityRequested any             `json:"quantity_requested"`
}

func parseIdentification(reply string) (Identification, error) {
	var raw rawIdentification
	if err := json.Unmarshal([]byte(llm.CleanJSON(reply)), &raw); err != nil {
		return Identification{}, err
	}
	if raw.Companies == nil {
		return Identification{}, errors.New("missing companies array")
	}
	return Identification{
		QueryType:         raw.QueryType,
		Companies:         raw.Companies,
		Reasoning:         raw.Reasoning,
		QuantityRequested: quantity(raw.QuantityRequested),
	}, nil
}

var leadingInt = regexp.MustCompile(`\d+`)

// quantity accepts a number or a string such as "5" or "5 companies".
func quantity(v any) int {
	switch q := v.(type) {
	case float64:
		return int(q)
	case string:
		if m := leadingInt.FindString(q); m != "" {
			n, _ := strconv.Atoi(m)
			return n
		}
	}
	return 0
}

var (
	namePattern     = regexp.MustCompile(`"name":\s*"([^"]+)"`)
	cityPattern     = regexp.MustCompile(`"city":\s*"([^"]+)"`)
	countryPattern  = regexp.MustCompile(`"country":\s*"([^"]+)"`)
	industryPattern = regexp.MustCompile(`"industry":\s*"([^"]+)"`)
)

func fallback(reply, request string) Identification {
	var companies []model.Company
	for _, line := range strings.Split(reply, "\n") {
		if !strings.Contains(line, `"name"`) || !strings.Contains(line, `"city"`) {
			continue
		}
		m := namePattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		companies = append(companies, model.Company{
			Name:     m[1],
			City:     submatchOr(cityPattern, line, "Unknown"),
			Country:  submatchOr(countryPattern, line, "UAE"),
			Industry: submatchOr(industryPattern, line, "Unknown"),
		})
	}
	if len(companies) == 0 {
		companies = knownCompaniesIn(request)
	}
	return Identification{
		QueryType: QueryTypeFallback,
		Companies: companies,
		Reasoning: "Used fallback extraction due to parsing issues",
	}
}

func submatchOr(re *regexp.Regexp, s, def string) string {
	if m := re.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return def
}

// knownCompanies are recognised by name when the model gives nothing usable.
var knownCompanies = []model.Company{
	{Name: "Emirates NBD", City: "Dubai", Country: "UAE", Industry: "Banking"},
	{Name: "First Abu Dhabi Bank", City: "Abu Dhabi", Country: "UAE", Industry: "Banking"},
	{Name: "Abu Dhabi Islamic Bank", City: "Abu Dhabi", Country: "UAE", Industry: "Banking"},
	{Name: "Dubai Islamic Bank", City: "Dubai", Country: "UAE", Industry: "Banking"},
	{Name: "Mashreq Bank", City: "Dubai", Country: "UAE", Industry: "Banking"},
	{Name: "Commercial Bank of Dubai", City: "Dubai", Country: "UAE", Industry: "Banking"},
	{Name: "Abu Dhabi Commercial Bank", City: "Abu Dhabi", Country: "UAE", Industry: "Banking"},
	{Name: "ADNOC", City: "Abu Dhabi", Country: "UAE", Industry: "Energy"},
	{Name: "Emirates Airlines", City: "Dubai", Country: "UAE", Industry: "Aviation"},
	{Name: "Etisalat", City: "Abu Dhabi", Country: "UAE", Industry: "Telecommunications"},
	{Name: "Emaar", City: "Dubai", Country: "UAE", Industry: "Real Estate"},
	{Name: "Nakheel", City: "Dubai", Country: "UAE", Industry: "Real Estate"},
}

func knownCompaniesIn(request string) []model.Company {
	lower := strings.ToLower(request)
	var out []model.Company
	for _, c := range knownCompanies {
		if strings.Contains(lower, strings.ToLower(c.Name)) {
			out = append(out, c)
		}
	}
	return out
}

func validCompanies(in []model.Company, logger *slog.Logger) []model.Company {
	out := make([]model.Company, 0, len(in))
	for _, c := range in {
		c = c.Normalize()
		if err := c.Validate(); err != nil {
			logger.Debug("dropping company", "err", err)
			continue
		}
		out = append(out, c)
	}
	return out
}
