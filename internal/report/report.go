// Package report summarises exported executive records.
package report

import (
	"encoding/json"
	"fmt"
	htmltemplate "html/template"
	"io"
	"sort"
	"strings"
	"text/template"
	"time"

	"github.com/FranksOps/leadscout/internal/model"
)

// Count is one row of a frequency breakdown.
type Count struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Summary contains aggregated figures about a set of executive records.
type Summary struct {
	TotalExecutives  int       `json:"total_executives"`
	CompaniesCovered int       `json:"companies_covered"`
	PositionsFound   int       `json:"positions_found"`
	EmailsFound      int       `json:"emails_found"`
	LinkedInProfiles int       `json:"linkedin_profiles"`
	ByCompany        []Count   `json:"company_breakdown"`
	ByTitle          []Count   `json:"position_breakdown"`
	GeneratedAt      time.Time `json:"extraction_date"`
}

// GenerateSummary aggregates records. Breakdowns are sorted by count
// descending, then by name.
func GenerateSummary(records []model.ExecutiveRecord) Summary {
	s := Summary{TotalExecutives: len(records), GeneratedAt: time.Now()}

	companies := make(map[string]int)
	titles := make(map[string]int)
	for _, r := range records {
		company := strings.TrimSpace(r.Company)
		if company == "" {
			company = "Unknown"
		} else {
			s.CompaniesCovered += boolInt(companies[company] == 0)
		}
		companies[company]++

		title := strings.TrimSpace(r.Title)
		if title == "" {
			title = "Unknown"
		} else {
			s.PositionsFound += boolInt(titles[title] == 0)
		}
		titles[title]++

		if strings.TrimSpace(r.Email) != "" {
			s.EmailsFound++
		}
		if strings.TrimSpace(r.LinkedIn) != "" {
			s.LinkedInProfiles++
		}
	}

	s.ByCompany = sorted(companies)
	s.ByTitle = sorted(titles)
	return s
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func sorted(m map[string]int) []Count {
	out := make([]Count, 0, len(m))
	for name, n := range m {
		out = append(out, Count{Name: name, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// WriteJSON writes the summary to the provided writer in JSON format.
func WriteJSON(w io.Writer, summary Summary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(summary); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	return nil
}

// WriteText writes a human-readable text summary to the provided writer.
func WriteText(w io.Writer, summary Summary) error {
	const textTmpl = `Executive Extraction Summary
============================
Total Executives Found: {{.TotalExecutives}}
Companies Covered:      {{.CompaniesCovered}}
Positions Found:        {{.PositionsFound}}
Emails Found:           {{.EmailsFound}}
LinkedIn Profiles:      {{.LinkedInProfiles}}
Extraction Date:        {{.GeneratedAt.Format "2006-01-02 15:04:05"}}

Company Breakdown:
{{- range .ByCompany}}
  {{.Name}}: {{.Count}}
{{- else}}
  None
{{- end}}

Position Breakdown:
{{- range .ByTitle}}
  {{.Name}}: {{.Count}}
{{- else}}
  None
{{- end}}
`

	t, err := template.New("textReport").Parse(textTmpl)
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}
	if err := t.Execute(w, summary); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	return nil
}

// WriteHTML writes a basic HTML report to the provided writer.
func WriteHTML(w io.Writer, summary Summary) error {
	const htmlTmpl = `<!DOCTYPE html>
<html>
<head>
<title>Executive Extraction Report</title>
<style>
  body { font-family: sans-serif; margin: 40px; color: #333; }
  h1 { border-bottom: 2px solid #ccc; padding-bottom: 10px; }
  .stat-card { display: inline-block; padding: 20px; margin: 10px 10px 10px 0; background: #f4f4f4; border-radius: 5px; min-width: 150px; }
  .stat-val { font-size: 24px; font-weight: bold; }
  table { border-collapse: collapse; margin-top: 10px; }
  th, td { padding: 8px 12px; border: 1px solid #ccc; text-align: left; }
  th { background: #eaeaea; }
</style>
</head>
<body>
  <h1>Executive Extraction Report</h1>
  <p><strong>Generated:</strong> {{.GeneratedAt.Format "2006-01-02 15:04:05"}}</p>

  <div class="stat-card">
    <div>Executives</div>
    <div class="stat-val">{{.TotalExecutives}}</div>
  </div>
  <div class="stat-card">
    <div>Companies</div>
    <div class="stat-val">{{.CompaniesCovered}}</div>
  </div>
  <div class="stat-card">
    <div>Positions</div>
    <div class="stat-val">{{.PositionsFound}}</div>
  </div>
  <div class="stat-card">
    <div>Emails</div>
    <div class="stat-val">{{.EmailsFound}}</div>
  </div>
  <div class="stat-card">
    <div>LinkedIn</div>
    <div class="stat-val">{{.LinkedInProfiles}}</div>
  </div>

  <h3>By Company</h3>
  <table>
    <tr><th>Company</th><th>Count</th></tr>
    {{- range .ByCompany}}
    <tr><td>{{.Name}}</td><td>{{.Count}}</td></tr>
    {{- else}}
    <tr><td colspan="2">None</td></tr>
    {{- end}}
  </table>

  <h3>By Position</h3>
  <table>
    <tr><th>Position</th><th>Count</th></tr>
    {{- range .ByTitle}}
    <tr><td>{{.Name}}</td><td>{{.Count}}</td></tr>
    {{- else}}
    <tr><td colspan="2">None</td></tr>
    {{- end}}
  </table>
</body>
</html>
`
	t, err := htmltemplate.New("htmlReport").Parse(htmlTmpl)
	if err != nil {
		return fmt.Errorf("report: %w", err)
	}
	if err := t.Execute(w, summary); err != nil {
		return fmt.Errorf("report: %w", err)
	}
	return nil
}
