package planner

import (
	"errors"
	"strings"
	"testing"

	"github.com/FranksOps/leadscout/internal/model"
)

func TestQueries_ReferenceCompany(t *testing.T) {
	c := model.Company{Name: "Acme Bank", City: "Dubai", Country: "UAE", Industry: "Banking"}

	qs, err := Queries(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(qs) == 0 {
		t.Fatalf("expected at least one query")
	}
	if qs[0] != `"Acme Bank" CEO CFO executives` {
		t.Errorf("unexpected first query %q", qs[0])
	}
	for _, q := range qs {
		if strings.TrimSpace(q) == "" {
			t.Errorf("empty query returned")
		}
		if !strings.Contains(q, "Acme Bank") {
			t.Errorf("query %q does not mention the company", q)
		}
	}
	if !strings.Contains(qs[3], "Banking") || !strings.Contains(qs[3], "Dubai") {
		t.Errorf("expected industry/city query, got %q", qs[3])
	}
}

func TestQueries_TrimsWhitespace(t *testing.T) {
	c := model.Company{Name: "  Globex Holdings ", City: "Riyadh", Country: "KSA", Industry: "Energy"}
	qs, err := Queries(c)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(qs[0], `"Globex Holdings"`) {
		t.Errorf("expected trimmed name, got %q", qs[0])
	}
}

func TestQueries_RejectsInvalidCompany(t *testing.T) {
	_, err := Queries(model.Company{Name: "Acme"})
	if !errors.Is(err, model.ErrInvalidCompany) {
		t.Fatalf("expected ErrInvalidCompany, got %v", err)
	}
}
