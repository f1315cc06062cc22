// Package export writes executive records and seen companies to CSV.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/FranksOps/leadscout/internal/model"
)

// Schema selects the output columns.
type Schema int

const (
	// Simple writes name, title, company, contact fields and the source URL.
	Simple Schema = iota
	// Detailed adds source title, extraction method and confidence.
	Detailed
)

// Column names.
const (
	ColName             = "Name"
	ColTitle            = "Title"
	ColCompany          = "Company"
	ColLinkedIn         = "LinkedIn"
	ColEmail            = "Email"
	ColSourceURL        = "Source URL"
	ColSourceTitle      = "Source Title"
	ColMethod           = "Extraction Method"
	ColConfidence       = "Confidence"
	ColExtractionDate   = "Extraction Date"
	ColBatchMode        = "Batch_Mode"
	ColProcessingDate   = "Processing_Date"
	ColCompanyIndustry  = "Company_Industry"
	extractionDateFmt   = "2006-01-02"
	processingDateFmt   = "2006-01-02 15:04:05"
	defaultBatchModeOld = "No"
)

var batchColumns = []string{ColBatchMode, ColProcessingDate, ColCompanyIndustry}

// Header returns the column order for s, with the batch columns when batch is set.
func Header(s Schema, batch bool) []string {
	cols := []string{ColName, ColTitle, ColCompany, ColLinkedIn, ColEmail, ColSourceURL}
	if s == Detailed {
		cols = append(cols, ColSourceTitle, ColMethod, ColConfidence)
	}
	cols = append(cols, ColExtractionDate)
	if batch {
		cols = append(cols, batchColumns...)
	}
	return cols
}

// Config controls how an Exporter writes.
type Config struct {
	Schema Schema
	// Append merges onto an existing file instead of replacing it.
	Append bool
	// BatchMode stamps BatchFlag into the Batch_Mode column of appended rows.
	BatchMode bool
	BatchFlag string
	Logger    *slog.Logger
}

// Exporter writes executive records to CSV.
type Exporter struct {
	cfg    Config
	logger *slog.Logger
	now    func() time.Time
}

// New creates an Exporter. An empty BatchFlag selects "Yes".
func New(cfg Config) *Exporter {
	if cfg.BatchFlag == "" {
		cfg.BatchFlag = "Yes"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{cfg: cfg, logger: logger, now: time.Now}
}

// Write exports records to path and returns the number of rows written.
//
// In append mode the existing header is kept and any missing batch column
// is added; prior rows get "No" for Batch_Mode and empty values elsewhere.
// The file is replaced atomically so an interrupted write leaves the
// previous contents intact.
func (e *Exporter) Write(path string, records []model.ExecutiveRecord) (int, error) {
	now := e.now()
	header := Header(e.cfg.Schema, e.cfg.Append)

	var oldRows [][]string
	if e.cfg.Append {
		existing, rows, err := readAll(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return 0, err
		case len(existing) > 0:
			oldHeader := existing
			for _, col := range header {
				if indexOf(existing, col) < 0 {
					existing = append(existing, col)
				}
			}
			oldRows = make([][]string, 0, len(rows))
			for _, row := range rows {
				oldRows = append(oldRows, pad(row, oldHeader, existing))
			}
			header = existing
		}
	}

	out := make([][]string, 0, len(oldRows)+len(records)+1)
	out = append(out, header)
	out = append(out, oldRows...)
	for _, r := range records {
		out = append(out, e.row(header, r, now))
	}

	if err := writeAtomic(path, out); err != nil {
		return 0, err
	}
	e.logger.Info("exported executives", "path", path, "rows", len(records), "append", e.cfg.Append, "previous", len(oldRows))
	return len(records), nil
}

func (e *Exporter) row(header []string, r model.ExecutiveRecord, now time.Time) []string {
	values := map[string]string{
		ColName:           r.Name,
		ColTitle:          r.Title,
		ColCompany:        r.Company,
		ColLinkedIn:       r.LinkedIn,
		ColEmail:          r.Email,
		ColSourceURL:      r.SourceURL,
		ColExtractionDate: now.Format(extractionDateFmt),
	}
	if e.cfg.Schema == Detailed {
		values[ColSourceTitle] = r.SourceTitle
		values[ColMethod] = r.Method
		values[ColConfidence] = strconv.FormatFloat(r.Confidence, 'f', 2, 64)
	}
	if e.cfg.Append {
		if e.cfg.BatchMode {
			values[ColBatchMode] = e.cfg.BatchFlag
		}
		values[ColProcessingDate] = now.Format(processingDateFmt)
		values[ColCompanyIndustry] = r.Industry
	}

	row := make([]string, len(header))
	for i, col := range header {
		row[i] = values[col]
	}
	return row
}

// pad maps a row written under from onto the columns of to.
func pad(row, from, to []string) []string {
	out := make([]string, len(to))
	for i, col := range to {
		if j := indexOf(from, col); j >= 0 && j < len(row) {
			out[i] = row[j]
		} else if col == ColBatchMode {
			out[i] = defaultBatchModeOld
		}
	}
	return out
}

func indexOf(cols []string, name string) int {
	for i, c := range cols {
		if c == name {
			return i
		}
	}
	return -1
}

func readAll(path string) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("export: open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("export: read %s: %w", path, err)
	}
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	rows, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("export: read %s: %w", path, err)
	}
	return header, rows, nil
}

func writeAtomic(path string, rows [][]string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	defer os.Remove(tmp.Name())

	// CreateTemp makes the file owner-only; keep the mode of the file being
	// replaced instead.
	mode := fs.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		return fmt.Errorf("export: %w", err)
	}

	w := csv.NewWriter(tmp)
	if err := w.WriteAll(rows); err != nil {
		tmp.Close()
		return fmt.Errorf("export: write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return nil
}
