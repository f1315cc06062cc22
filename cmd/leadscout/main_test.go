package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/FranksOps/leadscout/internal/config"
	"github.com/FranksOps/leadscout/internal/export"
	"github.com/FranksOps/leadscout/internal/model"
	"github.com/FranksOps/leadscout/internal/search"
	"github.com/FranksOps/leadscout/internal/storage"
	"github.com/FranksOps/leadscout/internal/storage/csvbackend"
)

// isolate runs the test from an empty directory with no vendor keys or
// LEADSCOUT_* overrides in the environment.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	wd, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })
	for _, kv := range os.Environ() {
		if k, _, _ := strings.Cut(kv, "="); strings.HasPrefix(k, config.EnvPrefix+"_") {
			t.Setenv(k, "")
		}
	}
	for _, k := range []string{"SERPAPI_KEY", "OPENAI_API_KEY", "GEMINI_API_KEY"} {
		t.Setenv(k, "")
	}
	return dir
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	return executeWith(t, nil, args...)
}

// executeWith runs the root command against backend instead of SerpAPI.
func executeWith(t *testing.T, backend search.Backend, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	a := newApp(&out)
	a.searchBackend = backend
	cmd := a.rootCmd()
	cmd.SetArgs(args)
	cmd.SetErr(&bytes.Buffer{})
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// stubSearch answers LinkedIn lookups with a profile named after the person
// and every other query with the same two news hits.
type stubSearch struct {
	mu      sync.Mutex
	queries []string
}

func (s *stubSearch) Page(ctx context.Context, query string, start, num int) ([]model.SearchResult, error) {
	s.mu.Lock()
	s.queries = append(s.queries, query)
	s.mu.Unlock()
	if start > 0 {
		return nil, nil
	}
	if strings.HasSuffix(query, "LinkedIn profile") {
		name, _, _ := strings.Cut(strings.TrimPrefix(query, `"`), `"`)
		slug := strings.ToLower(strings.ReplaceAll(name, " ", "-"))
		return []model.SearchResult{{URL: "https://www.linkedin.com/in/" + slug, Title: name}}, nil
	}
	return []model.SearchResult{
		{URL: "https://news.example/a", Title: "Acme Bank names new CEO"},
		{URL: "https://news.example/b", Title: "Acme Bank board changes"},
	}, nil
}

var testRecords = []model.ExecutiveRecord{
	{Name: "Jane Doe", Title: "CEO", Company: "Acme Bank", Email: "jane@acmebank.com", Confidence: 0.9, Method: model.MethodLLM},
	{Name: "John Roe", Title: "CFO", Company: "Acme Bank", Confidence: 0.7, Method: model.MethodNER},
	{Name: "Ali Hassan", Title: "CEO", Company: "Gulf Air", Confidence: 0.8, Method: model.MethodNER},
}

func TestReport_JSON(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "executives.csv")
	if _, err := export.New(export.Config{}).Write(path, testRecords); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "report", "--input", path, "--format", "json")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got struct {
		Total     int `json:"total_executives"`
		Companies int `json:"companies_covered"`
		Emails    int `json:"emails_found"`
	}
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("report is not JSON: %v\n%s", err, out)
	}
	if got.Total != 3 || got.Companies != 2 || got.Emails != 1 {
		t.Errorf("unexpected summary %+v", got)
	}
}

func TestReport_HTMLToFile(t *testing.T) {
	dir := isolate(t)
	in := filepath.Join(dir, "executives.csv")
	out := filepath.Join(dir, "report.html")
	if _, err := export.New(export.Config{}).Write(in, testRecords); err != nil {
		t.Fatal(err)
	}

	if _, err := execute(t, "report", "-i", in, "-f", "html", "-o", out); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "Gulf Air") {
		t.Errorf("expected company in html report")
	}
}

func TestReport_UnknownFormat(t *testing.T) {
	isolate(t)
	if _, err := execute(t, "report", "--format", "pdf"); err == nil || !strings.Contains(err.Error(), "unknown format") {
		t.Errorf("expected unknown format error, got %v", err)
	}
}

func TestHistory_CSVStore(t *testing.T) {
	dir := isolate(t)
	dsn := filepath.Join(dir, "history.csv")

	store, err := csvbackend.New(dsn)
	if err != nil {
		t.Fatal(err)
	}
	for _, r := range testRecords {
		if err := store.Save(context.Background(), storage.NewRecord("run-12345678-abc", r)); err != nil {
			t.Fatal(err)
		}
	}
	store.Close()

	cfgFile := filepath.Join(dir, "leadscout.yaml")
	yaml := "storage:\n  driver: csv\n  dsn: " + dsn + "\n"
	if err := os.WriteFile(cfgFile, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "--config", cfgFile, "history", "--company", "acme bank")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Jane Doe") || !strings.Contains(out, "John Roe") {
		t.Errorf("expected Acme Bank executives, got:\n%s", out)
	}
	if strings.Contains(out, "Ali Hassan") {
		t.Errorf("company filter not applied:\n%s", out)
	}
	if !strings.Contains(out, "run-1234") || !strings.Contains(out, "2 record(s)") {
		t.Errorf("unexpected listing:\n%s", out)
	}
}

func TestHistory_NoStorage(t *testing.T) {
	isolate(t)
	if _, err := execute(t, "history"); !errors.Is(err, errNoStorage) {
		t.Errorf("expected errNoStorage, got %v", err)
	}
}

func TestBatch_RequiresInput(t *testing.T) {
	isolate(t)
	if _, err := execute(t, "batch"); err == nil || !strings.Contains(err.Error(), "--input") {
		t.Errorf("expected missing input error, got %v", err)
	}
}

func TestBatch_RequiresSerpAPIKey(t *testing.T) {
	dir := isolate(t)
	input := filepath.Join(dir, "companies.json")
	if err := os.WriteFile(input, []byte(`{"companies":[{"name":"Acme Bank","city":"Dubai","country":"UAE"}]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := execute(t, "batch", "--input", input); !errors.Is(err, config.ErrMissingSerpAPIKey) {
		t.Errorf("expected ErrMissingSerpAPIKey, got %v", err)
	}
}

func TestQuery_RequiresLLMKey(t *testing.T) {
	isolate(t)
	t.Setenv("SERPAPI_KEY", "test-key")
	if _, err := execute(t, "query", "top banks in Dubai"); !errors.Is(err, config.ErrMissingLLMKey) {
		t.Errorf("expected ErrMissingLLMKey, got %v", err)
	}
}

func TestBatch_InvalidModeFlag(t *testing.T) {
	isolate(t)
	if _, err := execute(t, "batch", "--input", "x.json", "--mode", "turbo"); !errors.Is(err, config.ErrInvalidMode) {
		t.Errorf("expected ErrInvalidMode from the bound flag, got %v", err)
	}
}

func readRows(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	return rows
}

func TestEnrich_InPlaceKeepsColumns(t *testing.T) {
	dir := isolate(t)
	t.Setenv("SERPAPI_KEY", "test-key")
	t.Setenv("LEADSCOUT_BATCH_ENRICH_DELAY", "0s")
	t.Setenv("LEADSCOUT_SEARCH_RATE_PER_SECOND", "0")

	path := filepath.Join(dir, "executives_detailed.csv")
	e := export.New(export.Config{Schema: export.Detailed, Append: true, BatchMode: true})
	if _, err := e.Write(path, testRecords); err != nil {
		t.Fatal(err)
	}
	before := readRows(t, path)

	out, err := executeWith(t, &stubSearch{}, "enrich", "--input", path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Wrote 3 executives") {
		t.Errorf("unexpected output %q", out)
	}

	after := readRows(t, path)
	if !slices.Equal(before[0], after[0]) {
		t.Fatalf("header changed:\nbefore %v\nafter  %v", before[0], after[0])
	}
	if len(after) != len(before) {
		t.Fatalf("expected %d rows, got %d", len(before), len(after))
	}
	li := slices.Index(after[0], export.ColLinkedIn)
	for i := 1; i < len(after); i++ {
		for j := range after[i] {
			if j == li {
				continue
			}
			if after[i][j] != before[i][j] {
				t.Errorf("row %d column %q changed from %q to %q", i, after[0][j], before[i][j], after[i][j])
			}
		}
	}
	if got := after[1][li]; got != "https://www.linkedin.com/in/jane-doe" {
		t.Errorf("expected enriched linkedin, got %q", got)
	}
}

func TestPlan_PreviewDedupesAcrossQueries(t *testing.T) {
	dir := isolate(t)
	t.Setenv("SERPAPI_KEY", "test-key")
	t.Setenv("LEADSCOUT_SEARCH_RATE_PER_SECOND", "0")

	input := filepath.Join(dir, "companies.json")
	data := `{"companies":[{"name":"Acme Bank","city":"Dubai","country":"UAE","industry":"Banking"}]}`
	if err := os.WriteFile(input, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	stub := &stubSearch{}
	out, err := executeWith(t, stub, "plan", "--input", input, "--preview", "5")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, `1. "Acme Bank" CEO CFO executives`) {
		t.Errorf("expected planned queries, got:\n%s", out)
	}
	if n := strings.Count(out, "https://news.example/a"); n != 1 {
		t.Errorf("expected a hit shared by every query to be listed once, got %d:\n%s", n, out)
	}
	if len(stub.queries) != 3 {
		t.Errorf("expected the first 3 planned queries to be searched, got %d", len(stub.queries))
	}
}

func TestPlan_WithoutPreviewNeedsNoKey(t *testing.T) {
	dir := isolate(t)
	input := filepath.Join(dir, "companies.csv")
	data := "name,city,country,industry\nGulf Air,Manama,Bahrain,Aviation\n"
	if err := os.WriteFile(input, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "plan", "--input", input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "Gulf Air (Manama, Bahrain)") || !strings.Contains(out, "5. ") {
		t.Errorf("expected every planned query, got:\n%s", out)
	}
}
