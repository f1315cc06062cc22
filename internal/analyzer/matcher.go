package analyzer

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// TermMatch represents occurrences of a keyword within an article.
type TermMatch struct {
	Term      string   `json:"term"`
	URL       string   `json:"url"`
	Count     int      `json:"count"`
	Sentences []string `json:"sentences"`
}

// FindTermMatches scans content for each term (case-insensitive) and returns
// one TermMatch per term that occurs, with the sentences containing it.
func FindTermMatches(content, url string, terms []string) []TermMatch {
	if len(content) == 0 || len(terms) == 0 {
		return nil
	}

	lowerContent := strings.ToLower(content)
	sentences := splitIntoSentences(content)

	results := make([]TermMatch, 0, len(terms))
	for _, term := range terms {
		lowerTerm := strings.ToLower(term)
		if lowerTerm == "" {
			continue
		}
		count := strings.Count(lowerContent, lowerTerm)
		if count == 0 {
			continue
		}

		var matched []string
		for _, s := range sentences {
			if strings.Contains(s.lower, lowerTerm) {
				matched = append(matched, s.original)
			}
		}

		results = append(results, TermMatch{
			Term:      term,
			URL:       url,
			Count:     count,
			Sentences: matched,
		})
	}
	return results
}

// ContainsAny reports whether any term appears in text.
func ContainsAny(text string, terms []string) bool {
	lower := strings.ToLower(text)
	for _, term := range terms {
		if term != "" && strings.Contains(lower, strings.ToLower(term)) {
			return true
		}
	}
	return false
}

// Window returns text[start:end] widened by radius bytes on each side, snapped
// outwards to rune boundaries.
func Window(text string, start, end, radius int) string {
	lo := start - radius
	if lo < 0 {
		lo = 0
	}
	hi := end + radius
	if hi > len(text) {
		hi = len(text)
	}
	for lo > 0 && !utf8.RuneStart(text[lo]) {
		lo--
	}
	for hi < len(text) && !utf8.RuneStart(text[hi]) {
		hi++
	}
	return text[lo:hi]
}

// CollapseWhitespace replaces every run of whitespace with a single space.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.FieldsFunc(s, unicode.IsSpace), " ")
}

type sentence struct {
	original string
	lower    string
}

// splitIntoSentences naively splits on '.', '!' and '?', keeping the delimiter.
func splitIntoSentences(text string) []sentence {
	estimated := len(text) / 50
	if estimated < 1 {
		estimated = 1
	}

	out := make([]sentence, 0, estimated)
	start := 0
	for i, r := range text {
		if r != '.' && r != '!' && r != '?' {
			continue
		}
		end := i + 1
		for end < len(text) && unicode.IsSpace(rune(text[end])) {
			end++
		}
		if s := strings.TrimSpace(text[start:end]); s != "" {
			out = append(out, sentence{original: s, lower: strings.ToLower(s)})
		}
		start = end
	}
	if start < len(text) {
		if s := strings.TrimSpace(text[start:]); s != "" {
			out = append(out, sentence{original: s, lower: strings.ToLower(s)})
		}
	}
	return out
}
