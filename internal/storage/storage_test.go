package storage

import (
	"testing"
	"time"

	"github.com/FranksOps/leadscout/internal/model"
)

func TestNewRecord(t *testing.T) {
	a := NewRecord("run-1", model.ExecutiveRecord{Name: "Jane Doe"})
	b := NewRecord("run-1", model.ExecutiveRecord{Name: "Jane Doe"})

	if a.ID == "" || a.ID == b.ID {
		t.Errorf("expected unique ids, got %q and %q", a.ID, b.ID)
	}
	if a.CreatedAt.Location() != time.UTC {
		t.Errorf("expected UTC timestamp")
	}
}

func TestFilter_Match(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Hour)
	r := &Record{RunID: "run-1", Executive: model.ExecutiveRecord{Company: "Acme Bank"}, CreatedAt: now}

	cases := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"empty", Filter{}, true},
		{"company case-insensitive", Filter{Company: " acme BANK"}, true},
		{"other company", Filter{Company: "Gulf Air"}, false},
		{"run", Filter{RunID: "run-1"}, true},
		{"other run", Filter{RunID: "run-2"}, false},
		{"since past", Filter{Since: &past}, true},
		{"since future", Filter{Since: func() *time.Time { f := now.Add(time.Hour); return &f }()}, false},
	}
	for _, tc := range cases {
		if got := tc.filter.Match(r); got != tc.want {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestFilter_Page(t *testing.T) {
	mk := func() []*Record {
		return []*Record{{ID: "1"}, {ID: "2"}, {ID: "3"}, {ID: "4"}}
	}
	ids := func(rs []*Record) string {
		s := ""
		for _, r := range rs {
			s += r.ID
		}
		return s
	}

	cases := []struct {
		filter Filter
		want   string
	}{
		{Filter{}, "4321"},
		{Filter{Limit: 2}, "43"},
		{Filter{Offset: 1, Limit: 2}, "32"},
		{Filter{Offset: 10}, ""},
	}
	for _, tc := range cases {
		if got := ids(tc.filter.Page(mk())); got != tc.want {
			t.Errorf("%+v: expected %q, got %q", tc.filter, tc.want, got)
		}
	}
}
