package export

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/FranksOps/leadscout/internal/model"
)

// Table is an exported CSV held with its original header, so records can be
// updated and written back without losing columns the exporter did not set.
type Table struct {
	Header []string
	Rows   [][]string
	// Records are the executives parsed from Rows, skipping nameless rows.
	Records []model.ExecutiveRecord
	rowOf   []int
}

// ReadTable loads a file written by Write, matching columns by header name so
// both schemas and appended files are accepted. A missing file is an error;
// an empty one yields an empty Table.
func ReadTable(path string) (*Table, error) {
	header, rows, err := readAll(path)
	if err != nil {
		return nil, err
	}
	t := &Table{Header: header, Rows: rows}
	if header == nil {
		return t, nil
	}
	if indexOf(header, ColName) < 0 {
		return nil, fmt.Errorf("export: %s: missing %q column", path, ColName)
	}

	get := func(row []string, col string) string {
		if i := indexOf(header, col); i >= 0 && i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	t.Records = make([]model.ExecutiveRecord, 0, len(rows))
	for i, row := range rows {
		r := model.ExecutiveRecord{
			Name:        get(row, ColName),
			Title:       get(row, ColTitle),
			Company:     get(row, ColCompany),
			LinkedIn:    get(row, ColLinkedIn),
			Email:       get(row, ColEmail),
			SourceURL:   get(row, ColSourceURL),
			SourceTitle: get(row, ColSourceTitle),
			Method:      get(row, ColMethod),
			Industry:    get(row, ColCompanyIndustry),
		}
		if r.Name == "" {
			continue
		}
		if c := get(row, ColConfidence); c != "" {
			r.Confidence, _ = strconv.ParseFloat(c, 64)
		}
		t.Records = append(t.Records, r)
		t.rowOf = append(t.rowOf, i)
	}
	return t, nil
}

// ReadExecutives returns the records of ReadTable. Rows without a name are
// skipped.
func ReadExecutives(path string) ([]model.ExecutiveRecord, error) {
	t, err := ReadTable(path)
	if err != nil {
		return nil, err
	}
	return t.Records, nil
}

// Update writes records back into the rows they were read from. Only the
// LinkedIn and Email columns change, and they are added to the header when
// missing. Every other column keeps its value.
func (t *Table) Update(records []model.ExecutiveRecord) error {
	if len(records) != len(t.Records) {
		return fmt.Errorf("export: update: got %d records for %d rows", len(records), len(t.Records))
	}
	li, em := t.column(ColLinkedIn), t.column(ColEmail)
	for k, r := range records {
		row := t.Rows[t.rowOf[k]]
		if len(row) < len(t.Header) {
			row = append(row, make([]string, len(t.Header)-len(row))...)
		}
		row[li] = r.LinkedIn
		row[em] = r.Email
		t.Rows[t.rowOf[k]] = row
		t.Records[k] = r
	}
	return nil
}

func (t *Table) column(name string) int {
	if i := indexOf(t.Header, name); i >= 0 {
		return i
	}
	t.Header = append(t.Header, name)
	return len(t.Header) - 1
}

// WriteFile replaces path with the table, header first.
func (t *Table) WriteFile(path string) error {
	if t.Header == nil {
		return fmt.Errorf("export: %s: table has no header", path)
	}
	out := make([][]string, 0, len(t.Rows)+1)
	out = append(out, t.Header)
	for _, row := range t.Rows {
		if len(row) < len(t.Header) {
			row = append(row, make([]string, len(t.Header)-len(row))...)
		}
		out = append(out, row)
	}
	return writeAtomic(path, out)
}
