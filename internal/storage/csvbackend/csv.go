// Package csvbackend stores records as rows in an append-only CSV file.
package csvbackend

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/FranksOps/leadscout/internal/model"
	"github.com/FranksOps/leadscout/internal/storage"
)

// ensure csvBackend implements storage.Backend
var _ storage.Backend = (*csvBackend)(nil)

type csvBackend struct {
	mu   sync.Mutex
	file *os.File
}

// headers defines the CSV column order
var headers = []string{
	"id",
	"run_id",
	"name",
	"title",
	"company",
	"email",
	"linkedin",
	"confidence",
	"source_url",
	"source_title",
	"extraction_method",
	"industry",
	"created_at",
}

// New creates a new CSV-backed storage.Backend.
func New(filePath string) (storage.Backend, error) {
	f, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("csvbackend: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("csvbackend: %w", err)
	}

	if info.Size() == 0 {
		w := csv.NewWriter(f)
		if err := w.Write(headers); err != nil {
			f.Close()
			return nil, fmt.Errorf("csvbackend: %w", err)
		}
		w.Flush()
		if err := w.Error(); err != nil {
			f.Close()
			return nil, fmt.Errorf("csvbackend: %w", err)
		}
	}

	return &csvBackend{file: f}, nil
}

func (b *csvBackend) Save(ctx context.Context, r *storage.Record) error {
	e := r.Executive
	row := []string{
		r.ID,
		r.RunID,
		e.Name,
		e.Title,
		e.Company,
		e.Email,
		e.LinkedIn,
		strconv.FormatFloat(e.Confidence, 'f', -1, 64),
		e.SourceURL,
		e.SourceTitle,
		e.Method,
		e.Industry,
		r.CreatedAt.Format(time.RFC3339Nano),
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := b.file.Seek(0, io.SeekEnd); err != nil {
		return fmt.Errorf("csvbackend: %w", err)
	}

	w := csv.NewWriter(b.file)
	if err := w.Write(row); err != nil {
		return fmt.Errorf("csvbackend: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("csvbackend: %w", err)
	}
	return nil
}

func (b *csvBackend) Query(ctx context.Context, filter storage.Filter) ([]*storage.Record, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, err := b.file.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("csvbackend: %w", err)
	}
	defer func() {
		// Restore pointer to end for writing
		_, _ = b.file.Seek(0, io.SeekEnd)
	}()

	r := csv.NewReader(b.file)

	if _, err := r.Read(); err != nil {
		if errors.Is(err, io.EOF) {
			return []*storage.Record{}, nil
		}
		return nil, fmt.Errorf("csvbackend: %w", err)
	}

	var matched []*storage.Record
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csvbackend: %w", err)
		}
		if len(row) != len(headers) {
			continue // skip malformed rows
		}

		confidence, _ := strconv.ParseFloat(row[7], 64)
		createdAt, _ := time.Parse(time.RFC3339Nano, row[12])

		rec := &storage.Record{
			ID:    row[0],
			RunID: row[1],
			Executive: model.ExecutiveRecord{
				Name:        row[2],
				Title:       row[3],
				Company:     row[4],
				Email:       row[5],
				LinkedIn:    row[6],
				Confidence:  confidence,
				SourceURL:   row[8],
				SourceTitle: row[9],
				Method:      row[10],
				Industry:    row[11],
			},
			CreatedAt: createdAt,
		}
		if filter.Match(rec) {
			matched = append(matched, rec)
		}
	}

	return filter.Page(matched), nil
}

func (b *csvBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.file.Close()
}
