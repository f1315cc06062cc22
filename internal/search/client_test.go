package search

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/FranksOps/leadscout/internal/model"
)

// fakeBackend serves fixed pages keyed by query and start offset.
type fakeBackend struct {
	pages map[string][][]model.SearchResult
	fail  map[string]int // query -> page index that errors
	calls int
}

func (f *fakeBackend) Page(_ context.Context, query string, start, num int) ([]model.SearchResult, error) {
	f.calls++
	idx := start / num
	if p, ok := f.fail[query]; ok && p == idx {
		return nil, errors.New("backend unavailable")
	}
	pages := f.pages[query]
	if idx >= len(pages) {
		return nil, nil
	}
	return append([]model.SearchResult(nil), pages[idx]...), nil
}

func fullPage(prefix string) []model.SearchResult {
	out := make([]model.SearchResult, pageSize)
	for i := range out {
		out[i] = model.SearchResult{
			Title: fmt.Sprintf("%s CEO interview %d", prefix, i),
			URL:   fmt.Sprintf("https://news.example/%s/%d", prefix, i),
		}
	}
	return out
}

func TestClient_SearchFilters(t *testing.T) {
	backend := &fakeBackend{pages: map[string][][]model.SearchResult{
		"acme": {{
			{Title: "Acme CEO named", URL: "https://news.example/a"},
			{Title: "Acme CEO video", URL: "https://www.youtube.com/watch?v=1"},
			{Title: "Acme CFO on LinkedIn", URL: "https://ae.linkedin.com/in/x"},
			{Title: "Acme quarterly weather", URL: "https://news.example/b"},
			{Title: "Acme", Snippet: "the board approved", URL: "https://news.example/c"},
		}},
	}}

	c := New(backend, Config{})
	got := c.Search(context.Background(), "acme", 10)

	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d: %+v", len(got), got)
	}
	if got[0].URL != "https://news.example/a" || got[1].URL != "https://news.example/c" {
		t.Errorf("unexpected results %+v", got)
	}
	if got[0].Query != "acme" {
		t.Errorf("expected query to be stamped on results, got %q", got[0].Query)
	}
}

func TestClient_SearchPaginates(t *testing.T) {
	backend := &fakeBackend{pages: map[string][][]model.SearchResult{
		"acme": {fullPage("p0"), fullPage("p1"), fullPage("p2")},
	}}

	c := New(backend, Config{})
	got := c.Search(context.Background(), "acme", 15)
	if len(got) != 15 {
		t.Fatalf("expected 15 results, got %d", len(got))
	}
	if backend.calls != 2 {
		t.Errorf("expected 2 page requests, got %d", backend.calls)
	}
}

func TestClient_SearchStopsOnError(t *testing.T) {
	backend := &fakeBackend{
		pages: map[string][][]model.SearchResult{"acme": {fullPage("p0"), fullPage("p1")}},
		fail:  map[string]int{"acme": 1},
	}

	c := New(backend, Config{})
	got := c.Search(context.Background(), "acme", 50)
	if len(got) != pageSize {
		t.Fatalf("expected results gathered before the failure, got %d", len(got))
	}
}

func TestClient_SearchMaxPages(t *testing.T) {
	backend := &fakeBackend{pages: map[string][][]model.SearchResult{
		"acme": {fullPage("p0"), fullPage("p1"), fullPage("p2")},
	}}

	c := New(backend, Config{MaxPages: 1})
	if got := c.Search(context.Background(), "acme", 50); len(got) != pageSize {
		t.Fatalf("expected a single page of results, got %d", len(got))
	}
}

func TestClient_SearchManyDedupes(t *testing.T) {
	shared := model.SearchResult{Title: "Acme CEO", URL: "https://news.example/shared"}
	backend := &fakeBackend{pages: map[string][][]model.SearchResult{
		"q1": {{shared, {Title: "Acme CFO", URL: "https://news.example/1"}}},
		"q2": {{shared, {Title: "Acme COO", URL: "https://news.example/2"}}},
	}}

	c := New(backend, Config{})
	got := c.SearchMany(context.Background(), []string{"q1", "q2"}, 5)
	if len(got) != 3 {
		t.Fatalf("expected 3 unique results, got %d", len(got))
	}
	if got[0].Query != "q1" {
		t.Errorf("expected first occurrence to win, got query %q", got[0].Query)
	}
}

func TestClient_LookupUnfiltered(t *testing.T) {
	backend := &fakeBackend{pages: map[string][][]model.SearchResult{
		"jane": {{
			{Title: "Jane Doe - Acme | LinkedIn", URL: "https://ae.linkedin.com/in/janedoe"},
			{Title: "Contact", URL: "https://acme.example/contact"},
			{Title: "Other", URL: "https://acme.example/other"},
			{Title: "Other", URL: "https://acme.example/more"},
		}},
	}}

	c := New(backend, Config{})
	got, err := c.Lookup(context.Background(), "jane", 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 3 || got[0].URL != "https://ae.linkedin.com/in/janedoe" {
		t.Errorf("expected 3 unfiltered results with the LinkedIn hit first, got %+v", got)
	}
}

func TestClient_UsesCache(t *testing.T) {
	backend := &fakeBackend{pages: map[string][][]model.SearchResult{
		"acme": {{{Title: "Acme CEO", URL: "https://news.example/a"}}},
	}}

	c := New(backend, Config{Cache: NewMemoryCache(0)})
	first := c.Search(context.Background(), "acme", 5)
	second := c.Search(context.Background(), "acme", 5)

	if backend.calls != 1 {
		t.Errorf("expected second search to hit the cache, got %d backend calls", backend.calls)
	}
	if len(first) != 1 || len(second) != 1 || second[0].URL != first[0].URL {
		t.Errorf("cached results differ: %+v vs %+v", first, second)
	}
}

func TestHostDenied(t *testing.T) {
	deny := []string{"linkedin.com", "x.com"}
	tests := []struct {
		host string
		want bool
	}{
		{"linkedin.com", true},
		{"ae.linkedin.com", true},
		{"notlinkedin.com", false},
		{"x.com", true},
		{"box.com", false},
		{"LinkedIn.com.", true},
	}
	for _, tt := range tests {
		if got := HostDenied(tt.host, deny); got != tt.want {
			t.Errorf("HostDenied(%q) = %v, want %v", tt.host, got, tt.want)
		}
	}
	if !URLDenied("::not a url", deny) {
		t.Errorf("expected unparseable URL to be denied")
	}
}
