package extractor

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Entity labels produced by an EntityRecognizer.
const (
	LabelPerson = "PERSON"
	LabelOrg    = "ORG"
)

// Entity is a named span found in text.
type Entity struct {
	Text  string
	Label string
}

// EntityRecognizer finds people and organisations in free text.
type EntityRecognizer interface {
	Entities(text string) []Entity
}

// CXOPositions lists executive titles in the order they are tried. The first
// one found near a name becomes that person's title.
var CXOPositions = []string{
	"CEO", "Chief Executive Officer", "Chief Executive",
	"CFO", "Chief Financial Officer", "Chief Finance Officer",
	"CMO", "Chief Marketing Officer", "Chief Marketing",
	"CTO", "Chief Technology Officer", "Chief Technology",
	"COO", "Chief Operating Officer", "Chief Operations Officer",
	"CIO", "Chief Information Officer", "Chief Information",
	"CRO", "Chief Risk Officer", "Chief Risk",
	"CLO", "Chief Legal Officer", "Chief Legal",
	"CHRO", "Chief Human Resources Officer", "Chief HR Officer",
	"CDO", "Chief Digital Officer", "Chief Digital",
	"CCO", "Chief Compliance Officer", "Chief Compliance",
	"CBO", "Chief Business Officer", "Chief Business",
}

var positionPatterns = func() []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(CXOPositions))
	for i, p := range CXOPositions {
		out[i] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(p) + `\b`)
	}
	return out
}()

// TitleIn returns the first CXO position mentioned in s, or "".
func TitleIn(s string) string {
	for i, re := range positionPatterns {
		if re.MatchString(s) {
			return CXOPositions[i]
		}
	}
	return ""
}

// orgKeywords mark a capitalised run as an organisation.
var orgKeywords = map[string]bool{
	"bank": true, "group": true, "holdings": true, "holding": true, "inc": true, "ltd": true,
	"llc": true, "pjsc": true, "psc": true, "plc": true, "corp": true, "corporation": true,
	"company": true, "capital": true, "partners": true, "insurance": true, "airways": true,
	"airlines": true, "telecom": true, "bancorp": true, "investments": true,
}

// genericOrg reports whether org is only legal suffixes or corporate nouns,
// such as "Company" or "The Bank", and so names no one in particular.
func genericOrg(org string) bool {
	for _, w := range strings.Fields(org) {
		n := norm(w)
		if !orgKeywords[n] && !nonNameWords[n] {
			return false
		}
	}
	return true
}

// nonNameWords break a capitalised run: titles, honorifics and the verbs and
// fillers that headline case capitalises.
var nonNameWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "of": true, "for": true, "in": true, "at": true,
	"on": true, "to": true, "by": true, "with": true, "from": true, "as": true, "new": true,
	"mr": true, "mrs": true, "ms": true, "dr": true, "sir": true, "his": true, "her": true,
	"chief": true, "executive": true, "officer": true, "president": true, "vice": true,
	"chairman": true, "chairwoman": true, "chair": true, "director": true, "managing": true,
	"head": true, "general": true, "manager": true, "board": true, "founder": true, "partner": true,
	"financial": true, "finance": true, "operating": true, "operations": true, "technology": true,
	"marketing": true, "information": true, "risk": true, "legal": true, "digital": true,
	"compliance": true, "business": true, "human": true, "resources": true,
	"ceo": true, "cfo": true, "cmo": true, "cto": true, "coo": true, "cio": true, "cro": true,
	"clo": true, "chro": true, "cdo": true, "cco": true, "cbo": true,
	"names": true, "named": true, "appoints": true, "appointed": true, "announces": true,
	"welcomes": true, "promotes": true, "hires": true, "says": true, "said": true, "joins": true,
	"january": true, "february": true, "march": true, "april": true, "may": true, "june": true,
	"july": true, "august": true, "september": true, "october": true, "november": true, "december": true,
	"monday": true, "tuesday": true, "wednesday": true, "thursday": true, "friday": true,
	"saturday": true, "sunday": true,
}

var wordPattern = regexp.MustCompile(`[\p{L}][\p{L}'’\-]*\.?`)

type token struct {
	text       string
	start, end int
}

// HeuristicRecognizer finds entities from capitalisation alone. A run of
// capitalised words containing a corporate keyword is an organisation; a
// run of two to four capitalised words without one is a person.
type HeuristicRecognizer struct{}

// Entities returns people and organisations in order of appearance.
func (HeuristicRecognizer) Entities(text string) []Entity {
	var out []Entity
	for _, run := range capitalisedRuns(text) {
		out = append(out, classifyRun(run)...)
	}
	return out
}

// capitalisedRuns groups capitalised words separated only by spaces.
func capitalisedRuns(text string) [][]token {
	var runs [][]token
	var cur []token
	flush := func() {
		if len(cur) > 0 {
			runs = append(runs, cur)
			cur = nil
		}
	}

	for _, loc := range wordPattern.FindAllStringIndex(text, -1) {
		w := text[loc[0]:loc[1]]
		r, _ := utf8.DecodeRuneInString(w)
		if !unicode.IsUpper(r) {
			flush()
			continue
		}
		if len(cur) > 0 {
			prev := cur[len(cur)-1]
			gap := text[prev.end:loc[0]]
			if strings.HasSuffix(prev.text, ".") && !isInitial(prev.text) || strings.TrimLeft(gap, " ") != "" {
				flush()
			}
		}
		cur = append(cur, token{text: w, start: loc[0], end: loc[1]})
	}
	flush()
	return runs
}

// isInitial reports whether w is a single-letter initial such as "J.".
func isInitial(w string) bool {
	return utf8.RuneCountInString(w) == 2 && strings.HasSuffix(w, ".")
}

func norm(w string) string {
	return strings.ToLower(strings.TrimRight(w, ".’'"))
}

func classifyRun(run []token) []Entity {
	lastOrg := -1
	for i, t := range run {
		if orgKeywords[norm(t.text)] {
			lastOrg = i
		}
	}

	var out []Entity
	rest := run
	if lastOrg >= 0 {
		first := 0
		for first < lastOrg && nonNameWords[norm(run[first].text)] && !orgKeywords[norm(run[first].text)] {
			first++
		}
		out = append(out, Entity{Text: joinTokens(run[first : lastOrg+1]), Label: LabelOrg})
		rest = run[lastOrg+1:]
	}

	var part []token
	emit := func() {
		if n := len(part); n >= 2 && n <= 4 {
			out = append(out, Entity{Text: joinTokens(part), Label: LabelPerson})
		}
		part = nil
	}
	for _, t := range rest {
		if nonNameWords[norm(t.text)] || orgKeywords[norm(t.text)] {
			emit()
			continue
		}
		part = append(part, t)
	}
	emit()
	return out
}

func joinTokens(ts []token) string {
	parts := make([]string, len(ts))
	for i, t := range ts {
		parts[i] = strings.TrimRight(t.text, ".")
		if isInitial(t.text) {
			parts[i] = t.text
		}
	}
	return strings.Join(parts, " ")
}
