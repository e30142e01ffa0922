package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/sprite-ai/qcreview/internal/model"
)

func detail(items ...model.ContentItem) model.VehicleDetail {
	reviewer := "u1"
	v := model.Vehicle{ID: "v1", VIN: "WVWZZZ1JZXW000001", Make: "Volkswagen", Model: "Golf", ReviewerUserID: &reviewer}
	v.QualityCheckStatus = model.AggregateStatus(v, items)
	return model.VehicleDetail{Vehicle: v, ContentItems: items}
}

func good(id string) model.ContentItem {
	return model.ContentItem{ID: id, Position: model.PositionExterior,
		QualityCheck: &model.QualityCheck{IsQualityGood: true, Status: model.StatusChecked}}
}

func flagged(id, comments string, issues ...model.IssueCode) model.ContentItem {
	return model.ContentItem{ID: id, Position: model.PositionExterior,
		QualityCheck: &model.QualityCheck{Issues: issues, Comments: comments, Status: model.StatusCheckedWithErrors}}
}

func TestBuild(t *testing.T) {
	d := detail(
		good("a"),
		flagged("b", "glare on hood", model.IssueSunReflections, model.IssueBlurred),
		flagged("c", "", model.IssueSunReflections),
		model.ContentItem{ID: "d", Position: model.PositionInterior},
	)
	r := Build(d)

	if r.Total != 4 || r.Checked != 1 || r.WithErrors != 2 || r.Unchecked != 1 {
		t.Fatalf("unexpected counts: %s", r.Summary())
	}
	if len(r.Issues) != 2 {
		t.Fatalf("expected 2 distinct issues, got %+v", r.Issues)
	}
	if r.Issues[0].Code != model.IssueSunReflections || r.Issues[0].Count != 2 {
		t.Errorf("most frequent issue should come first, got %+v", r.Issues[0])
	}
	if r.Issues[0].Label != "Sun reflections" {
		t.Errorf("expected human label, got %q", r.Issues[0].Label)
	}
	if len(r.Flagged) != 2 || r.Flagged[0].Index != 2 || r.Flagged[0].Comments != "glare on hood" {
		t.Errorf("unexpected flagged items %+v", r.Flagged)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name  string
		items []model.ContentItem
		want  int
	}{
		{"all good", []model.ContentItem{good("a"), good("b")}, 0},
		{"no items", nil, 0},
		{"unchecked", []model.ContentItem{good("a"), {ID: "b"}}, 1},
		{"flagged", []model.ContentItem{{ID: "a"}, flagged("b", "", model.IssueAngle)}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Build(detail(tt.items...)).ExitCode(); got != tt.want {
				t.Errorf("ExitCode() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestWriteFormats(t *testing.T) {
	r := Build(detail(good("a"), flagged("b", "<b>glare</b>", model.IssueBlurred)))

	tests := []struct {
		format string
		want   []string
	}{
		{"text", []string{"WVWZZZ1JZXW000001", "1 flagged", "Blurred", `"<b>glare</b>"`}},
		{"markdown", []string{"## Quality Report", "| Blurred | 1 |"}},
		{"html", []string{"<!DOCTYPE html>", "&lt;b&gt;glare&lt;/b&gt;", "Generated by"}},
		{"json", []string{`"withErrors": 1`, `"exitCode": 2`}},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			if err := Write(&buf, r, tt.format); err != nil {
				t.Fatal(err)
			}
			for _, want := range tt.want {
				if !strings.Contains(buf.String(), want) {
					t.Errorf("expected %s output to contain %q:\n%s", tt.format, want, buf.String())
				}
			}
		})
	}
}

func TestWriteJSONDecodes(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(&buf, Build(detail(good("a")))); err != nil {
		t.Fatal(err)
	}
	var out struct {
		Total   int    `json:"total"`
		Summary string `json:"summary"`
	}
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatal(err)
	}
	if out.Total != 1 || out.Summary == "" {
		t.Errorf("unexpected decoded report %+v", out)
	}
}

func TestWriteCleanAndUnknownFormat(t *testing.T) {
	r := Build(detail(good("a")))
	var buf bytes.Buffer
	if err := WriteText(&buf, r); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "No issues reported.") {
		t.Errorf("expected clean report, got %q", buf.String())
	}
	if err := Write(&buf, r, "pdf"); err == nil {
		t.Error("expected an error for an unknown format")
	}
}
