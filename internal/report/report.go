// Package report builds the quality feedback report of one vehicle and
// renders it for terminals, tools and people.
package report

import (
	"encoding/json"
	"fmt"
	"html"
	"io"
	"sort"
	"strings"

	"github.com/sprite-ai/qcreview/internal/catalog"
	"github.com/sprite-ai/qcreview/internal/model"
)

// Report summarizes the verdicts of a vehicle's content items.
type Report struct {
	Vehicle    model.Vehicle `json:"vehicle"`
	Total      int           `json:"total"`
	Checked    int           `json:"checked"`
	WithErrors int           `json:"withErrors"`
	Unchecked  int           `json:"unchecked"`
	Issues     []IssueCount  `json:"issues"`
	Flagged    []Flagged     `json:"flagged"`
}

// IssueCount is how often one issue was reported.
type IssueCount struct {
	Code  model.IssueCode `json:"code"`
	Label string          `json:"label"`
	Count int             `json:"count"`
}

// Flagged is a content item with at least one issue.
type Flagged struct {
	Index    int            `json:"index"`
	ItemID   string         `json:"itemId"`
	Position model.Position `json:"position"`
	Issues   []string       `json:"issues"`
	Comments string         `json:"comments,omitempty"`
}

// Build computes the report of a vehicle detail.
func Build(d model.VehicleDetail) *Report {
	r := &Report{
		Vehicle: d.Vehicle,
		Total:   len(d.ContentItems),
		Issues:  []IssueCount{},
		Flagged: []Flagged{},
	}

	counts := make(map[model.IssueCode]int)
	for i, it := range d.ContentItems {
		switch it.Status() {
		case model.StatusChecked:
			r.Checked++
			continue
		case model.StatusCheckedWithErrors:
			r.WithErrors++
		default:
			r.Unchecked++
			continue
		}

		f := Flagged{
			Index:    i + 1,
			ItemID:   it.ID,
			Position: it.Position,
			Comments: it.QualityCheck.Comments,
		}
		for _, code := range it.QualityCheck.Issues {
			counts[code]++
			f.Issues = append(f.Issues, catalog.Label(code))
		}
		r.Flagged = append(r.Flagged, f)
	}

	for code, n := range counts {
		r.Issues = append(r.Issues, IssueCount{Code: code, Label: catalog.Label(code), Count: n})
	}
	sort.Slice(r.Issues, func(i, j int) bool {
		if r.Issues[i].Count != r.Issues[j].Count {
			return r.Issues[i].Count > r.Issues[j].Count
		}
		return r.Issues[i].Code < r.Issues[j].Code
	})
	return r
}

// ExitCode returns 2 when items are flagged, 1 when items are still
// unchecked, and 0 when every item is good.
func (r *Report) ExitCode() int {
	switch {
	case r.WithErrors > 0:
		return 2
	case r.Unchecked > 0:
		return 1
	default:
		return 0
	}
}

// Summary is a one-line description of the counts.
func (r *Report) Summary() string {
	return fmt.Sprintf("%d item(s): %d good, %d flagged, %d unchecked",
		r.Total, r.Checked, r.WithErrors, r.Unchecked)
}

// Formats lists the supported output formats.
var Formats = []string{"text", "json", "markdown", "html"}

// Write renders the report in the given format.
func Write(w io.Writer, r *Report, format string) error {
	switch format {
	case "", "text":
		return WriteText(w, r)
	case "json":
		return WriteJSON(w, r)
	case "markdown":
		return WriteMarkdown(w, r)
	case "html":
		return WriteHTML(w, r)
	}
	return fmt.Errorf("unknown format %q (want %s)", format, strings.Join(Formats, ", "))
}

// WriteText renders the report for a terminal.
func WriteText(w io.Writer, r *Report) error {
	fmt.Fprintf(w, "%s\n", r.Vehicle.Title())
	fmt.Fprintf(w, "Reviewer: %s  Status: %s\n", reviewer(r.Vehicle), r.Vehicle.QualityCheckStatus)
	fmt.Fprintf(w, "%s\n\n", r.Summary())

	if len(r.Flagged) == 0 {
		_, err := fmt.Fprintln(w, "No issues reported.")
		return err
	}

	fmt.Fprintln(w, "Issues:")
	for _, ic := range r.Issues {
		fmt.Fprintf(w, "  %3d  %s\n", ic.Count, ic.Label)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Flagged items:")
	for _, f := range r.Flagged {
		fmt.Fprintf(w, "  #%-3d %-10s %s\n", f.Index, f.Position, strings.Join(f.Issues, ", "))
		if f.Comments != "" {
			fmt.Fprintf(w, "       %q\n", f.Comments)
		}
	}
	return nil
}

// WriteJSON renders the report as indented JSON.
func WriteJSON(w io.Writer, r *Report) error {
	type jsonOutput struct {
		*Report
		Summary  string `json:"summary"`
		ExitCode int    `json:"exitCode"`
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonOutput{Report: r, Summary: r.Summary(), ExitCode: r.ExitCode()})
}

// WriteMarkdown renders the report as a markdown section.
func WriteMarkdown(w io.Writer, r *Report) error {
	fmt.Fprintf(w, "## Quality Report: %s\n\n", r.Vehicle.Title())
	fmt.Fprintf(w, "**Reviewer:** %s | **Status:** %s\n\n", reviewer(r.Vehicle), r.Vehicle.QualityCheckStatus)
	fmt.Fprintf(w, "**%d** item(s), **%d** good, **%d** flagged, **%d** unchecked\n\n",
		r.Total, r.Checked, r.WithErrors, r.Unchecked)

	if len(r.Flagged) == 0 {
		_, err := fmt.Fprintln(w, "No issues reported.")
		return err
	}

	fmt.Fprintln(w, "| Issue | Count |")
	fmt.Fprintln(w, "|-------|-------|")
	for _, ic := range r.Issues {
		fmt.Fprintf(w, "| %s | %d |\n", ic.Label, ic.Count)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "| # | Position | Issues | Comments |")
	fmt.Fprintln(w, "|---|----------|--------|----------|")
	for _, f := range r.Flagged {
		fmt.Fprintf(w, "| %d | %s | %s | %s |\n", f.Index, f.Position,
			strings.Join(f.Issues, ", "), strings.ReplaceAll(f.Comments, "|", `\|`))
	}
	return nil
}

// WriteHTML renders the report as a standalone page.
func WriteHTML(w io.Writer, r *Report) error {
	title := html.EscapeString(r.Vehicle.Title())

	fmt.Fprintf(w, `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Quality Report %s</title>
<style>
  body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; max-width: 900px; margin: 40px auto; padding: 0 20px; background: #282a36; color: #f8f8f2; }
  h1 { color: #bd93f9; }
  .summary { background: #343746; padding: 16px; border-radius: 8px; margin-bottom: 24px; }
  .summary span { margin-right: 24px; }
  .good { color: #50fa7b; }
  .flagged { color: #ff5555; font-weight: bold; }
  .unchecked { color: #6272a4; }
  table { width: 100%%; border-collapse: collapse; margin-bottom: 24px; }
  th { text-align: left; padding: 8px 12px; background: #44475a; color: #f8f8f2; }
  td { padding: 8px 12px; border-bottom: 1px solid #44475a; }
  tr:hover { background: #343746; }
  .position { color: #8be9fd; }
  .clean { color: #50fa7b; font-size: 1.2em; }
  footer { margin-top: 32px; color: #6272a4; font-size: 0.85em; }
</style>
</head>
<body>
<h1>%s</h1>
`, title, title)

	fmt.Fprintf(w, `<div class="summary">
  <span>Reviewer: <strong>%s</strong></span>
  <span>Status: <strong>%s</strong></span>
  <span class="good">%d good</span>
  <span class="flagged">%d flagged</span>
  <span class="unchecked">%d unchecked</span>
</div>
`, html.EscapeString(reviewer(r.Vehicle)), r.Vehicle.QualityCheckStatus, r.Checked, r.WithErrors, r.Unchecked)

	if len(r.Flagged) == 0 {
		fmt.Fprintln(w, `<p class="clean">No issues reported.</p>`)
	} else {
		fmt.Fprintln(w, `<table>
<thead><tr><th>Issue</th><th>Count</th></tr></thead>
<tbody>`)
		for _, ic := range r.Issues {
			fmt.Fprintf(w, "<tr><td>%s</td><td>%d</td></tr>\n", html.EscapeString(ic.Label), ic.Count)
		}
		fmt.Fprintln(w, `</tbody></table>`)

		fmt.Fprintln(w, `<table>
<thead><tr><th>#</th><th>Position</th><th>Issues</th><th>Comments</th></tr></thead>
<tbody>`)
		for _, f := range r.Flagged {
			fmt.Fprintf(w, `<tr><td>%d</td><td class="position">%s</td><td>%s</td><td>%s</td></tr>
`, f.Index, f.Position, html.EscapeString(strings.Join(f.Issues, ", ")), html.EscapeString(f.Comments))
		}
		fmt.Fprintln(w, `</tbody></table>`)
	}

	_, err := fmt.Fprintln(w, `<footer>Generated by <strong>qcreview</strong></footer>
</body>
</html>`)
	return err
}

func reviewer(v model.Vehicle) string {
	if r := v.Reviewer(); r != "" {
		return r
	}
	return "unassigned"
}
