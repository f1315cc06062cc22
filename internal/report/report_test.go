package report

import (
	"bytes"
	"reflect"
	"strings"
	"testing"

	"github.com/FranksOps/leadscout/internal/model"
)

func TestGenerateSummary(t *testing.T) {
	records := []model.ExecutiveRecord{
		{Name: "Jane Doe", Title: "CEO", Company: "Acme Bank", Email: "jane@acmebank.com"},
		{Name: "John Roe", Title: "CFO", Company: "Acme Bank", LinkedIn: "https://www.linkedin.com/in/johnroe"},
		{Name: "Amal Saeed", Title: "CEO", Company: "Gulf Air"},
		{Name: "Omar Ali", Title: "CTO", Company: "Zayed Holdings"},
		{Name: "Nameless Title", Company: "Gulf Air"},
	}

	summary := GenerateSummary(records)

	if summary.TotalExecutives != 5 {
		t.Errorf("expected 5 executives, got %d", summary.TotalExecutives)
	}
	if summary.CompaniesCovered != 3 {
		t.Errorf("expected 3 companies, got %d", summary.CompaniesCovered)
	}
	if summary.PositionsFound != 3 {
		t.Errorf("expected 3 positions, got %d", summary.PositionsFound)
	}
	if summary.EmailsFound != 1 || summary.LinkedInProfiles != 1 {
		t.Errorf("unexpected contact counts %d/%d", summary.EmailsFound, summary.LinkedInProfiles)
	}

	wantCompanies := []Count{{"Acme Bank", 2}, {"Gulf Air", 2}, {"Zayed Holdings", 1}}
	if !reflect.DeepEqual(summary.ByCompany, wantCompanies) {
		t.Errorf("unexpected company breakdown %v", summary.ByCompany)
	}
	wantTitles := []Count{{"CEO", 2}, {"CFO", 1}, {"CTO", 1}, {"Unknown", 1}}
	if !reflect.DeepEqual(summary.ByTitle, wantTitles) {
		t.Errorf("unexpected title breakdown %v", summary.ByTitle)
	}
}

func TestGenerateSummary_Empty(t *testing.T) {
	summary := GenerateSummary(nil)
	if summary.TotalExecutives != 0 || len(summary.ByCompany) != 0 || len(summary.ByTitle) != 0 {
		t.Errorf("expected empty summary, got %+v", summary)
	}
}

func TestWriteJSON(t *testing.T) {
	summary := Summary{TotalExecutives: 5, ByCompany: []Count{{"Acme Bank", 5}}}
	var buf bytes.Buffer
	if err := WriteJSON(&buf, summary); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, `"total_executives": 5`) {
		t.Errorf("expected JSON to contain total_executives: 5")
	}
	if !strings.Contains(out, `"name": "Acme Bank"`) {
		t.Errorf("expected JSON company breakdown, got %s", out)
	}
}

func TestWriteText(t *testing.T) {
	summary := Summary{
		TotalExecutives: 5,
		EmailsFound:     1,
		ByTitle:         []Count{{"CEO", 4}, {"CFO", 1}},
	}
	var buf bytes.Buffer
	if err := WriteText(&buf, summary); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "Total Executives Found: 5") {
		t.Errorf("expected total executives line, got:\n%s", out)
	}
	if !strings.Contains(out, "  CEO: 4\n  CFO: 1") {
		t.Errorf("expected ordered position breakdown, got:\n%s", out)
	}
	if !strings.Contains(out, "Company Breakdown:\n  None") {
		t.Errorf("expected empty company breakdown, got:\n%s", out)
	}
}

func TestWriteHTML(t *testing.T) {
	summary := Summary{
		TotalExecutives: 2,
		ByCompany:       []Count{{"Smith & Jones <Holdings>", 2}},
	}
	var buf bytes.Buffer
	if err := WriteHTML(&buf, summary); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "<title>Executive Extraction Report</title>") {
		t.Errorf("expected HTML title")
	}
	if !strings.Contains(out, "Smith &amp; Jones &lt;Holdings&gt;") {
		t.Errorf("expected escaped company name, got:\n%s", out)
	}
}
