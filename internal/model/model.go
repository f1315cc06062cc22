// Package model holds the records that flow through the lead pipeline:
// companies in, search results and articles in the middle, executives out.
package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidCompany is wrapped by Company.Validate failures.
	ErrInvalidCompany = errors.New("invalid company")
	// ErrInvalidExecutive is wrapped by ExecutiveRecord.Validate failures.
	ErrInvalidExecutive = errors.New("invalid executive record")
)

// Extraction methods recorded on ExecutiveRecord.Method.
const (
	MethodLLM = "llm"
	MethodNER = "ner"
)

// Company is one target of a batch run.
type Company struct {
	Name     string `json:"name"`
	City     string `json:"city"`
	Country  string `json:"country"`
	Industry string `json:"industry"`
}

// Normalize returns a copy with surrounding whitespace removed from every field.
func (c Company) Normalize() Company {
	return Company{
		Name:     strings.TrimSpace(c.Name),
		City:     strings.TrimSpace(c.City),
		Country:  strings.TrimSpace(c.Country),
		Industry: strings.TrimSpace(c.Industry),
	}
}

// Validate reports the first missing field.
func (c Company) Validate() error {
	n := c.Normalize()
	switch {
	case n.Name == "":
		return fmt.Errorf("%w: name is empty", ErrInvalidCompany)
	case len([]rune(n.Name)) < 2:
		return fmt.Errorf("%w: name %q is too short", ErrInvalidCompany, n.Name)
	case n.City == "":
		return fmt.Errorf("%w: %s: city is empty", ErrInvalidCompany, n.Name)
	case n.Country == "":
		return fmt.Errorf("%w: %s: country is empty", ErrInvalidCompany, n.Name)
	case n.Industry == "":
		return fmt.Errorf("%w: %s: industry is empty", ErrInvalidCompany, n.Name)
	}
	return nil
}

// SearchResult is one organic hit returned by the search backend.
type SearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
	Query   string `json:"search_query"`
}

// Article is cleaned page text that passed the size and relevance gates.
type Article struct {
	URL       string   `json:"url"`
	Title     string   `json:"title"`
	Text      string   `json:"text"`
	WordCount int      `json:"word_count"`
	Domain    string   `json:"domain"`
	Keywords  []string `json:"keywords,omitempty"`
}

// FullText is the title and body joined the way extraction reads them.
func (a Article) FullText() string {
	if a.Title == "" {
		return a.Text
	}
	return a.Title + "\n\n" + a.Text
}

// ExecutiveRecord is one person found for a company.
type ExecutiveRecord struct {
	Name        string  `json:"name"`
	Title       string  `json:"title"`
	Company     string  `json:"company"`
	Email       string  `json:"email,omitempty"`
	LinkedIn    string  `json:"linkedin,omitempty"`
	Confidence  float64 `json:"confidence"`
	SourceURL   string  `json:"source_url"`
	SourceTitle string  `json:"source_title"`
	Method      string  `json:"extraction_method"`
	Industry    string  `json:"industry,omitempty"`
}

// Key is the identity used for deduplication: lower-cased name and company.
func (r ExecutiveRecord) Key() string {
	return strings.ToLower(strings.TrimSpace(r.Name)) + "\x00" + strings.ToLower(strings.TrimSpace(r.Company))
}

// Validate requires name, title and company.
func (r ExecutiveRecord) Validate() error {
	switch {
	case strings.TrimSpace(r.Name) == "":
		return fmt.Errorf("%w: name is empty", ErrInvalidExecutive)
	case strings.TrimSpace(r.Company) == "":
		return fmt.Errorf("%w: %s: company is empty", ErrInvalidExecutive, r.Name)
	case strings.TrimSpace(r.Title) == "":
		return fmt.Errorf("%w: %s: title is empty", ErrInvalidExecutive, r.Name)
	}
	return nil
}

// Merge combines two records that share a Key. The higher-confidence record
// supplies conflicting fields, ties keep existing, and any field left empty
// is filled from the other side. Name and Company always come from existing.
func Merge(existing, incoming ExecutiveRecord) ExecutiveRecord {
	base, other := existing, incoming
	if incoming.Confidence > existing.Confidence {
		base, other = incoming, existing
	}

	out := base
	out.Name = existing.Name
	out.Company = existing.Company
	fill(&out.Title, other.Title)
	fill(&out.Email, other.Email)
	fill(&out.LinkedIn, other.LinkedIn)
	fill(&out.SourceURL, other.SourceURL)
	fill(&out.SourceTitle, other.SourceTitle)
	fill(&out.Method, other.Method)
	fill(&out.Industry, other.Industry)
	if other.Confidence > out.Confidence {
		out.Confidence = other.Confidence
	}
	return out
}

func fill(dst *string, src string) {
	if strings.TrimSpace(*dst) == "" && strings.TrimSpace(src) != "" {
		*dst = src
	}
}

// Dedupe merges records sharing a Key, keeping first-seen order.
func Dedupe(records []ExecutiveRecord) []ExecutiveRecord {
	out := make([]ExecutiveRecord, 0, len(records))
	index := make(map[string]int, len(records))
	for _, r := range records {
		k := r.Key()
		if i, ok := index[k]; ok {
			out[i] = Merge(out[i], r)
			continue
		}
		index[k] = len(out)
		out = append(out, r)
	}
	return out
}
