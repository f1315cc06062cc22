// Package storage persists executive records across runs so earlier
// results can be queried without re-reading exported CSVs.
package storage

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/FranksOps/leadscout/internal/model"
)

// Record is one executive saved by a run.
type Record struct {
	ID        string                `json:"id"`
	RunID     string                `json:"run_id"`
	Executive model.ExecutiveRecord `json:"executive"`
	CreatedAt time.Time             `json:"created_at"`
}

// NewRecord stamps e with a fresh ID and the current UTC time.
func NewRecord(runID string, e model.ExecutiveRecord) *Record {
	return &Record{
		ID:        uuid.NewString(),
		RunID:     runID,
		Executive: e,
		CreatedAt: time.Now().UTC(),
	}
}

// Filter allows querying for specific Records.
type Filter struct {
	// Company matches case-insensitively.
	Company string
	RunID   string
	Since   *time.Time
	Limit   int
	Offset  int
}

// Match reports whether r passes every set field of f. Limit and Offset are ignored.
func (f Filter) Match(r *Record) bool {
	if f.Company != "" && !strings.EqualFold(strings.TrimSpace(r.Executive.Company), strings.TrimSpace(f.Company)) {
		return false
	}
	if f.RunID != "" && r.RunID != f.RunID {
		return false
	}
	if f.Since != nil && r.CreatedAt.Before(*f.Since) {
		return false
	}
	return true
}

// Page orders records that were read oldest first as newest first, then applies Offset and Limit.
func (f Filter) Page(records []*Record) []*Record {
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}
	if f.Offset > 0 {
		if f.Offset >= len(records) {
			return []*Record{}
		}
		records = records[f.Offset:]
	}
	if f.Limit > 0 && f.Limit < len(records) {
		records = records[:f.Limit]
	}
	return records
}

// Backend defines the interface for storing and querying executive records.
type Backend interface {
	Save(ctx context.Context, record *Record) error
	Query(ctx context.Context, filter Filter) ([]*Record, error)
	Close() error
}
