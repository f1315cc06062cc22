// Package loader reads batch company lists from JSON or CSV.
package loader

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/FranksOps/leadscout/internal/model"
)

// ErrNoCompanies is returned when an input yields no valid company.
var ErrNoCompanies = errors.New("loader: no valid companies found")

// LoadFile reads path as JSON when it ends in .json and as CSV otherwise.
func LoadFile(path string, logger *slog.Logger) ([]model.Company, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loader: read %s: %w", path, err)
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return LoadJSON(bytes.NewReader(data), logger)
	}
	return LoadCSV(bytes.NewReader(data), logger)
}

// LoadJSON parses {"companies": [...]}. A document that is not valid JSON,
// or lacks the companies array, fails the whole load; individual entries
// that are malformed are skipped and logged.
func LoadJSON(r io.Reader, logger *slog.Logger) ([]model.Company, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var doc struct {
		Companies []json.RawMessage `json:"companies"`
	}
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("loader: invalid json: %w", err)
	}
	if doc.Companies == nil {
		return nil, errors.New("loader: json must contain a \"companies\" array")
	}

	var out []model.Company
	for i, raw := range doc.Companies {
		var c model.Company
		if err := json.Unmarshal(raw, &c); err != nil {
			logger.Warn("skipping company", "index", i, "err", err)
			continue
		}
		c = c.Normalize()
		if err := c.Validate(); err != nil {
			logger.Warn("skipping company", "index", i, "err", err)
			continue
		}
		out = append(out, c)
	}
	if len(out) == 0 {
		return nil, ErrNoCompanies
	}
	return out, nil
}

// LoadCSV reads name, city, country and industry from the first four columns.
// The first row is a header. Rows with fewer than four fields or an empty
// required field are skipped. Input that is not UTF-8 is read as Latin-1.
func LoadCSV(r io.Reader, logger *slog.Logger) ([]model.Company, error) {
	if logger == nil {
		logger = slog.Default()
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("loader: read csv: %w", err)
	}
	if !utf8.Valid(data) {
		if data, err = charmap.ISO8859_1.NewDecoder().Bytes(data); err != nil {
			return nil, fmt.Errorf("loader: decode latin-1: %w", err)
		}
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	var out []model.Company
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			logger.Warn("skipping csv line", "line", line, "err", err)
			continue
		}
		if line == 1 {
			continue
		}
		if len(rec) < 4 {
			if len(rec) > 1 || strings.TrimSpace(rec[0]) != "" {
				logger.Warn("skipping csv line: insufficient fields", "line", line, "fields", len(rec))
			}
			continue
		}
		c := model.Company{Name: rec[0], City: rec[1], Country: rec[2], Industry: rec[3]}.Normalize()
		if err := c.Validate(); err != nil {
			logger.Warn("skipping csv line", "line", line, "err", err)
			continue
		}
		out = append(out, c)
	}
	if len(out) == 0 {
		return nil, ErrNoCompanies
	}
	return out, nil
}
