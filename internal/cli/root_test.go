package cli

import (
	"bytes"
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sprite-ai/qcreview/internal/api"
	"github.com/sprite-ai/qcreview/internal/model"
	"github.com/sprite-ai/qcreview/internal/store"
)

func TestRootCommandHasSubcommands(t *testing.T) {
	cmds := rootCmd.Commands()
	names := make(map[string]bool)
	for _, c := range cmds {
		names[c.Name()] = true
	}

	for _, want := range []string{"review", "serve", "vehicles", "report", "version"} {
		if !names[want] {
			t.Errorf("root command missing subcommand %q", want)
		}
	}
}

func TestVersionOutput(t *testing.T) {
	// version vars are set via ldflags; in tests they have their defaults
	if version != "dev" {
		t.Errorf("expected default version %q, got %q", "dev", version)
	}

	out := run(t, "version")
	if !strings.HasPrefix(out, "qcreview dev") {
		t.Errorf("unexpected version output %q", out)
	}
}

func run(t *testing.T, args ...string) string {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("qcreview %s: %v\n%s", strings.Join(args, " "), err, buf.String())
	}
	return buf.String()
}

func testServer(t *testing.T) string {
	t.Helper()
	reviewer := "alice"
	st := store.NewMemoryStore()
	details := []model.VehicleDetail{
		{
			Vehicle: model.Vehicle{ID: "v1", VIN: "WVWZZZ1JZXW000001", Make: "Volkswagen",
				CreatedAt: time.Now(), ReviewerUserID: &reviewer},
			ContentItems: []model.ContentItem{
				{ID: "i1", Position: model.PositionExterior, SortOrder: 1,
					QualityCheck: &model.QualityCheck{IsQualityGood: true, Status: model.StatusChecked}},
				{ID: "i2", Position: model.PositionExterior, SortOrder: 2,
					QualityCheck: &model.QualityCheck{Issues: []model.IssueCode{model.IssueBlurred},
						Comments: "motion blur", Status: model.StatusCheckedWithErrors}},
			},
		},
		{
			Vehicle:      model.Vehicle{ID: "v2", VIN: "VF1AAAAA555000002", CreatedAt: time.Now().Add(-time.Hour)},
			ContentItems: []model.ContentItem{{ID: "j1", Position: model.PositionInterior, SortOrder: 1}},
		},
	}
	if err := store.LoadInto(context.Background(), st, details); err != nil {
		t.Fatal(err)
	}

	ts := httptest.NewServer(api.New("", st).Handler())
	t.Cleanup(ts.Close)
	return ts.URL
}

func TestVehiclesCommand(t *testing.T) {
	url := testServer(t)

	out := run(t, "vehicles", "--server", url, "--status", "unchecked", "--reviewer", "", "--vin", "",
		"--page", "0", "--size", "20", "--format", "text")
	if !strings.Contains(out, "VF1AAAAA555000002") || strings.Contains(out, "WVWZZZ1JZXW000001") {
		t.Errorf("expected only the unassigned vehicle:\n%s", out)
	}
	if !strings.Contains(out, "1 vehicle(s) total") {
		t.Errorf("expected a total line:\n%s", out)
	}

	out = run(t, "vehicles", "--server", url, "--status", "", "--reviewer", "alice", "--vin", "",
		"--page", "0", "--size", "20", "--format", "json")
	if !strings.Contains(out, `"count": 1`) || !strings.Contains(out, "WVWZZZ1JZXW000001") {
		t.Errorf("unexpected json output:\n%s", out)
	}
}

func TestReportCommandExitCode(t *testing.T) {
	url := testServer(t)

	code := -1
	orig := exit
	exit = func(c int) { code = c }
	t.Cleanup(func() { exit = orig })

	out := run(t, "report", "v1", "--server", url, "--format", "markdown")
	if !strings.Contains(out, "| Blurred | 1 |") || !strings.Contains(out, "motion blur") {
		t.Errorf("unexpected report:\n%s", out)
	}
	if code != 2 {
		t.Errorf("expected exit code 2 for flagged items, got %d", code)
	}

	code = -1
	run(t, "report", "v2", "--server", url, "--format", "text")
	if code != 1 {
		t.Errorf("expected exit code 1 for unchecked items, got %d", code)
	}
}

func TestReviewRequiresUser(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	rootCmd.SetArgs([]string{"review", "v1", "--user", ""})
	t.Cleanup(func() { rootCmd.SetArgs(nil) })
	var buf bytes.Buffer
	rootCmd.SetErr(&buf)
	t.Cleanup(func() { rootCmd.SetErr(nil) })

	if err := rootCmd.ExecuteContext(context.Background()); err == nil {
		t.Error("review without a reviewer id must fail")
	}
}
