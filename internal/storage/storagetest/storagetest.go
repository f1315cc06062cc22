// Package storagetest holds the behaviour every storage.Backend must share.
package storagetest

import (
	"context"
	"testing"
	"time"

	"github.com/FranksOps/leadscout/internal/model"
	"github.com/FranksOps/leadscout/internal/storage"
)

// Records returns three records for run "run-a" and "run-b", created an
// hour apart and saved in ID order. IDs carry suffix so repeated runs
// against a shared database do not collide.
func Records(suffix string, now time.Time) []*storage.Record {
	return []*storage.Record{
		{
			ID:    "r1" + suffix,
			RunID: "run-a" + suffix,
			Executive: model.ExecutiveRecord{
				Name: "Jane Doe", Title: "CEO", Company: "Acme Bank" + suffix,
				Email: "jane.doe@acmebank.com", Confidence: 0.9,
				SourceURL: "https://news.example.com/a", SourceTitle: "Acme names CEO",
				Method: model.MethodLLM, Industry: "Banking",
			},
			CreatedAt: now.Add(-2 * time.Hour),
		},
		{
			ID:    "r2" + suffix,
			RunID: "run-a" + suffix,
			Executive: model.ExecutiveRecord{
				Name: "John Roe", Title: "CFO", Company: "Gulf Air" + suffix,
				LinkedIn: "https://www.linkedin.com/in/johnroe", Confidence: 0.7,
				Method: model.MethodNER,
			},
			CreatedAt: now.Add(-1 * time.Hour),
		},
		{
			ID:    "r3" + suffix,
			RunID: "run-b" + suffix,
			Executive: model.ExecutiveRecord{
				Name: "Amal Saeed", Title: "CTO", Company: "acme bank" + suffix,
				Confidence: 0.8, Method: model.MethodLLM,
			},
			CreatedAt: now,
		},
	}
}

// Run saves Records into b and checks filtering, ordering and pagination.
func Run(t *testing.T, b storage.Backend, suffix string) {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	records := Records(suffix, now)
	for _, r := range records {
		if err := b.Save(ctx, r); err != nil {
			t.Fatalf("save %s: %v", r.ID, err)
		}
	}

	query := func(f storage.Filter) []*storage.Record {
		t.Helper()
		got, err := b.Query(ctx, f)
		if err != nil {
			t.Fatalf("query %+v: %v", f, err)
		}
		return got
	}
	ids := func(rs []*storage.Record) string {
		s := ""
		for _, r := range rs {
			s += r.ID[:2]
		}
		return s
	}

	if got := ids(query(storage.Filter{RunID: "run-a" + suffix})); got != "r2r1" {
		t.Errorf("run filter: expected r2r1 newest first, got %s", got)
	}
	if got := ids(query(storage.Filter{Company: "ACME BANK" + suffix})); got != "r3r1" {
		t.Errorf("company filter: expected r3r1, got %s", got)
	}

	since := now.Add(-90 * time.Minute)
	if got := ids(query(storage.Filter{RunID: "run-a" + suffix, Since: &since})); got != "r2" {
		t.Errorf("since filter: expected r2, got %s", got)
	}

	if got := ids(query(storage.Filter{Company: "acme bank" + suffix, Limit: 1})); got != "r3" {
		t.Errorf("limit: expected r3, got %s", got)
	}
	if got := ids(query(storage.Filter{Company: "acme bank" + suffix, Offset: 1})); got != "r1" {
		t.Errorf("offset: expected r1, got %s", got)
	}

	got := query(storage.Filter{RunID: "run-a" + suffix, Offset: 1})
	if len(got) != 1 {
		t.Fatalf("expected 1 record, got %d", len(got))
	}
	want := records[0]
	if got[0].Executive != want.Executive {
		t.Errorf("executive did not round trip:\n got %+v\nwant %+v", got[0].Executive, want.Executive)
	}
	if got[0].CreatedAt.Unix() != want.CreatedAt.Unix() {
		t.Errorf("expected CreatedAt %v, got %v", want.CreatedAt, got[0].CreatedAt)
	}
}
