package scraper

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
	"golang.org/x/net/html"

	"github.com/FranksOps/leadscout/internal/analyzer"
)

var titleSelectors = []string{
	"h1",
	"title",
	`meta[property="og:title"]`,
	`meta[name="twitter:title"]`,
	".page-title",
	".post-title",
	".article-title",
}

var mainSelectors = []string{
	"main",
	"article",
	".content",
	".post-content",
	".entry-content",
	"#content",
	".main-content",
	".article-content",
	".post-body",
	".page-content",
	".story-content",
	".text-content",
}

const noiseSelector = "script, style, nav, header, footer, aside, menu, iframe, noscript"

// inline elements do not break words when flattened to text.
var inline = map[string]bool{
	"a": true, "abbr": true, "b": true, "bdi": true, "cite": true, "code": true,
	"em": true, "i": true, "mark": true, "q": true, "s": true, "small": true,
	"span": true, "strong": true, "sub": true, "sup": true, "time": true, "u": true,
}

// Content is the readable part of an HTML page.
type Content struct {
	Title string
	Text  string
	// Source names what produced Text: a CSS selector, "readability" or "body".
	Source string
}

// ExtractContent parses body and returns its title and main text. A content
// container wins only if its text has at least minChars runes; otherwise the
// readability extraction is tried, and finally the whole body minus noise.
func ExtractContent(body []byte, pageURL *url.URL, minChars int) (Content, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return Content{}, fmt.Errorf("scraper: parse html: %w", err)
	}

	c := Content{Title: extractTitle(doc)}
	doc.Find(noiseSelector).Remove()

	for _, sel := range mainSelectors {
		s := doc.Find(sel).First()
		if s.Length() == 0 {
			continue
		}
		if text := visibleText(s); utf8.RuneCountInString(text) >= minChars {
			c.Text, c.Source = text, sel
			return c, nil
		}
	}

	if pageURL != nil {
		if art, err := readability.FromReader(bytes.NewReader(body), pageURL); err == nil {
			if text := analyzer.CollapseWhitespace(art.TextContent); utf8.RuneCountInString(text) >= minChars {
				c.Text, c.Source = text, "readability"
				if c.Title == "" {
					c.Title = strings.TrimSpace(art.Title)
				}
				return c, nil
			}
		}
	}

	root := doc.Find("body")
	if root.Length() == 0 {
		root = doc.Selection
	}
	c.Text, c.Source = visibleText(root), "body"
	return c, nil
}

func extractTitle(doc *goquery.Document) string {
	for _, sel := range titleSelectors {
		s := doc.Find(sel).First()
		if s.Length() == 0 {
			continue
		}
		var t string
		if goquery.NodeName(s) == "meta" {
			t, _ = s.Attr("content")
		} else {
			t = s.Text()
		}
		t = analyzer.CollapseWhitespace(t)
		if utf8.RuneCountInString(t) > 5 {
			return t
		}
	}
	return ""
}

// visibleText flattens a selection to text, putting a space at every block
// boundary so adjacent paragraphs do not run together.
func visibleText(s *goquery.Selection) string {
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			sb.WriteString(n.Data)
			return
		case html.CommentNode:
			return
		}
		block := n.Type == html.ElementNode && !inline[n.Data]
		if block {
			sb.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if block {
			sb.WriteByte(' ')
		}
	}
	for _, n := range s.Nodes {
		walk(n)
	}
	return analyzer.CollapseWhitespace(sb.String())
}
