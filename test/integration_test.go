//go:build integration

package test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/FranksOps/leadscout/internal/export"
	"github.com/FranksOps/leadscout/internal/extractor"
	"github.com/FranksOps/leadscout/internal/fingerprint"
	"github.com/FranksOps/leadscout/internal/llm"
	"github.com/FranksOps/leadscout/internal/model"
	"github.com/FranksOps/leadscout/internal/pipeline"
	"github.com/FranksOps/leadscout/internal/scraper"
	"github.com/FranksOps/leadscout/internal/search"
	"github.com/FranksOps/leadscout/internal/storage"
	"github.com/FranksOps/leadscout/internal/storage/sqlite"
)

const articleHTML = `<html><head><title>%[1]s appoints new leadership</title></head>
<body>
<nav>Home | Markets | Careers</nav>
<article>
<h1>%[1]s names Jane Doe as CEO</h1>
<p>%[1]s announced today that Jane Doe has been appointed Chief Executive Officer,
effective immediately. Doe joins from Example Holdings where she spent six years
as Chief Financial Officer. The board of directors said the appointment supports
the bank's regional growth plans and its digital strategy.</p>
<p>John Smith remains Chief Operating Officer and will report directly to the new CEO.</p>
</article>
<footer>Copyright</footer>
</body></html>`

// newsBackend answers article searches with pages on the test server and
// LinkedIn lookups with a profile hit. Companies not in known get nothing.
type newsBackend struct {
	server string
	known  map[string]string
	calls  atomic.Int32
}

func (b *newsBackend) Page(ctx context.Context, query string, start, num int) ([]model.SearchResult, error) {
	b.calls.Add(1)
	if start > 0 {
		return nil, nil
	}
	if strings.Contains(query, "LinkedIn profile") {
		slug := "jane-doe"
		if strings.Contains(query, "John Smith") {
			slug = "john-smith"
		}
		return []model.SearchResult{{
			URL:   "https://www.linkedin.com/in/" + slug,
			Title: "LinkedIn profile",
		}}, nil
	}
	for name, path := range b.known {
		if strings.Contains(query, name) {
			return []model.SearchResult{{
				URL:     b.server + path,
				Title:   name + " names new CEO",
				Snippet: "Leadership change at " + name,
			}}, nil
		}
	}
	return nil, nil
}

// extractionCompleter answers extraction prompts with the executives named in
// the article excerpt it was sent.
func extractionCompleter(calls *atomic.Int32) llm.Completer {
	return llm.CompleterFunc(func(ctx context.Context, prompt string) (string, error) {
		calls.Add(1)
		company := "Acme Bank"
		if strings.Contains(prompt, "Gulf Air") {
			company = "Gulf Air"
		}
		return fmt.Sprintf("```json\n[{\"name\":\"Jane Doe\",\"title\":\"CEO\",\"company\":%q,\"confidence\":0.95}]\n```", company), nil
	})
}

func TestPipeline_EndToEnd(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "text/html")
		switch r.URL.Path {
		case "/acme":
			fmt.Fprintf(w, articleHTML, "Acme Bank")
		case "/gulf":
			fmt.Fprintf(w, articleHTML, "Gulf Air")
		default:
			http.NotFound(w, r)
		}
	}))
	defer ts.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	dir := t.TempDir()

	backend := &newsBackend{server: ts.URL, known: map[string]string{"Acme Bank": "/acme", "Gulf Air": "/gulf"}}
	searcher := search.New(backend, search.Config{
		Cache:  search.NewMemoryCache(time.Hour),
		Logger: logger,
	})

	fetcher, err := scraper.NewFetcher(scraper.FetchConfig{
		Timeout:     5 * time.Second,
		Fingerprint: fingerprint.ProfileGo,
		MinChars:    100,
		Logger:      logger,
	})
	if err != nil {
		t.Fatalf("fetcher: %v", err)
	}

	var llmCalls atomic.Int32
	ext := extractor.New(extractor.Config{Completer: extractionCompleter(&llmCalls), Logger: logger})
	enricher := extractor.NewEnricher(extractor.EnrichConfig{Searcher: searcher, Logger: logger})

	store, err := sqlite.New(filepath.Join(dir, "history.db"))
	if err != nil {
		t.Fatalf("sqlite: %v", err)
	}
	defer store.Close()

	var outcomes []pipeline.Outcome
	p, err := pipeline.New(pipeline.Deps{
		Searcher:  searcher,
		Fetcher:   fetcher,
		Extractor: ext,
		Enricher:  enricher,
		Store:     store,
		Logger:    logger,
	}, pipeline.Config{
		Mode:       pipeline.ModeFull,
		MaxRetries: 2,
		OnCompany:  func(o pipeline.Outcome, _ []model.ExecutiveRecord) { outcomes = append(outcomes, o) },
	})
	if err != nil {
		t.Fatalf("pipeline: %v", err)
	}

	companies := []model.Company{
		{Name: "Acme Bank", City: "Dubai", Country: "UAE", Industry: "Banking"},
		{Name: "Nowhere Ltd", City: "Doha", Country: "Qatar"},
		{Name: "Gulf Air", City: "Manama", Country: "Bahrain", Industry: "Aviation"},
	}
	res, err := p.Run(context.Background(), companies)
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	if len(outcomes) != 3 {
		t.Fatalf("expected 3 outcomes, got %d", len(outcomes))
	}
	want := []pipeline.State{pipeline.StateSuccess, pipeline.StateExhausted, pipeline.StateSuccess}
	for i, o := range outcomes {
		if o.State != want[i] {
			t.Errorf("%s: expected %s, got %s", o.Company.Name, want[i], o.State)
		}
	}
	if outcomes[1].Attempts != 2 {
		t.Errorf("expected exhausted company to use both retries, got %d", outcomes[1].Attempts)
	}
	if hits.Load() == 0 || llmCalls.Load() == 0 {
		t.Fatalf("expected articles fetched and sent to the model, hits=%d llm=%d", hits.Load(), llmCalls.Load())
	}

	byCompany := map[string][]model.ExecutiveRecord{}
	for _, r := range res.Records {
		byCompany[r.Company] = append(byCompany[r.Company], r)
	}
	for _, name := range []string{"Acme Bank", "Gulf Air"} {
		recs := byCompany[name]
		if len(recs) == 0 {
			t.Fatalf("no executives for %s", name)
		}
		var jane *model.ExecutiveRecord
		for i := range recs {
			if recs[i].Name == "Jane Doe" {
				jane = &recs[i]
			}
		}
		if jane == nil {
			t.Fatalf("%s: Jane Doe not extracted: %+v", name, recs)
		}
		if jane.LinkedIn != "https://www.linkedin.com/in/jane-doe" {
			t.Errorf("%s: expected enriched linkedin, got %q", name, jane.LinkedIn)
		}
		if jane.SourceURL == "" || !strings.HasPrefix(jane.SourceURL, ts.URL) {
			t.Errorf("%s: unexpected source url %q", name, jane.SourceURL)
		}
	}
	if got := byCompany["Gulf Air"][0].Industry; got != "Aviation" {
		t.Errorf("expected industry stamped from the company, got %q", got)
	}

	saved, err := store.Query(context.Background(), storage.Filter{RunID: res.RunID})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(saved) != len(res.Records) {
		t.Errorf("expected %d stored records, got %d", len(res.Records), len(saved))
	}

	out := filepath.Join(dir, "executives.csv")
	n, err := export.New(export.Config{Schema: export.Detailed, Append: true, BatchMode: true, Logger: logger}).Write(out, res.Records)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if n != len(res.Records) {
		t.Errorf("expected %d rows written, got %d", len(res.Records), n)
	}
	back, err := export.ReadExecutives(out)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(back) != len(res.Records) {
		t.Errorf("expected %d rows read back, got %d", len(res.Records), len(back))
	}
}

func TestPipeline_CancelKeepsPartialResults(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, articleHTML, "Acme Bank")
	}))
	defer ts.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	backend := &newsBackend{server: ts.URL, known: map[string]string{"Acme Bank": "/acme"}}
	searcher := search.New(backend, search.Config{Logger: logger})
	fetcher, err := scraper.NewFetcher(scraper.FetchConfig{Fingerprint: fingerprint.ProfileGo, MinChars: 100, Logger: logger})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var llmCalls atomic.Int32
	p, err := pipeline.New(pipeline.Deps{
		Searcher:  searcher,
		Fetcher:   fetcher,
		Extractor: extractor.New(extractor.Config{Completer: extractionCompleter(&llmCalls), Logger: logger}),
		Logger:    logger,
	}, pipeline.Config{
		CompanyDelay: time.Minute,
		OnCompany:    func(pipeline.Outcome, []model.ExecutiveRecord) { cancel() },
	})
	if err != nil {
		t.Fatal(err)
	}

	start := time.Now()
	res, err := p.Run(ctx, []model.Company{
		{Name: "Acme Bank", City: "Dubai", Country: "UAE"},
		{Name: "Gulf Air", City: "Manama", Country: "Bahrain"},
	})
	if err == nil {
		t.Fatal("expected cancellation error")
	}
	if time.Since(start) > 10*time.Second {
		t.Errorf("run did not stop promptly after cancel")
	}
	if len(res.Records) == 0 || res.Records[0].Company != "Acme Bank" {
		t.Errorf("expected Acme Bank results kept, got %+v", res.Records)
	}
	if len(res.Outcomes) != 1 {
		t.Errorf("expected only the first company processed, got %d", len(res.Outcomes))
	}
}
