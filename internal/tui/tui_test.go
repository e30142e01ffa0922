package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sprite-ai/qcreview/internal/model"
	"github.com/sprite-ai/qcreview/internal/store"
)

func ptr(s string) *string { return &s }

func testStore(t *testing.T, reviewer *string) *store.MemoryStore {
	t.Helper()
	m := store.NewMemoryStore()
	err := m.Put(context.Background(), model.VehicleDetail{
		Vehicle: model.Vehicle{ID: "v1", VIN: "WVWZZZ1JZXW000001", Make: "Volkswagen", Model: "Golf",
			CreatedAt: time.Now(), ReviewerUserID: reviewer},
		ContentItems: []model.ContentItem{
			{ID: "img0", Position: model.PositionExterior, SortOrder: 1},
			{ID: "img1", Position: model.PositionExterior, SortOrder: 2},
			{ID: "img2", Position: model.PositionInterior, SortOrder: 3},
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	return m
}

// exec runs a command chain to completion, feeding every message back.
func exec(t *testing.T, m Model, cmd tea.Cmd) Model {
	t.Helper()
	for cmd != nil {
		msg := cmd()
		newM, next := m.Update(msg)
		m = newM.(Model)
		cmd = next
	}
	return m
}

func press(m Model, msg tea.KeyMsg) (Model, tea.Cmd) {
	newM, cmd := m.Update(msg)
	return newM.(Model), cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var (
	enterKey = tea.KeyMsg{Type: tea.KeyEnter}
	spaceKey = tea.KeyMsg{Type: tea.KeySpace}
	downKey  = tea.KeyMsg{Type: tea.KeyDown}
	escKey   = tea.KeyMsg{Type: tea.KeyEscape}
)

func setupModel(t *testing.T, st *store.MemoryStore, user string) Model {
	t.Helper()
	m := New(context.Background(), st, "v1", user, nil)
	newM, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return exec(t, newM.(Model), m.Init())
}

func verdict(t *testing.T, st *store.MemoryStore, itemID string) *model.QualityCheck {
	t.Helper()
	d, err := st.GetVehicleDetail(context.Background(), "v1")
	if err != nil {
		t.Fatal(err)
	}
	it, _ := d.Item(itemID)
	return it.QualityCheck
}

func TestInitLoadsAndClaims(t *testing.T) {
	st := testStore(t, nil)
	m := setupModel(t, st, "u1")

	if !m.sess.IsOwner() {
		t.Fatal("first open should claim the vehicle")
	}
	d, _ := st.GetVehicleDetail(context.Background(), "v1")
	if d.Vehicle.Reviewer() != "u1" {
		t.Errorf("expected u1 in the store, got %q", d.Vehicle.Reviewer())
	}
	if m.pending != 0 {
		t.Errorf("expected no writes in flight, got %d", m.pending)
	}
}

func TestEnterValidatesAndAdvances(t *testing.T) {
	st := testStore(t, ptr("u1"))
	m := setupModel(t, st, "u1")

	m, cmd := press(m, enterKey)
	if cmd == nil {
		t.Fatal("expected a save command")
	}
	if m.sess.Index() != 1 {
		t.Errorf("expected advance to 1, got %d", m.sess.Index())
	}
	if m.pending != 1 {
		t.Errorf("expected one pending write, got %d", m.pending)
	}

	m = exec(t, m, cmd)
	if qc := verdict(t, st, "img0"); qc == nil || !qc.IsQualityGood {
		t.Errorf("expected img0 quality good, got %+v", qc)
	}
	if m.notice == nil || m.notice.Error || m.notice.Message != "Quality check saved" {
		t.Errorf("unexpected notice %+v", m.notice)
	}
	if m.pending != 0 {
		t.Errorf("expected no pending writes, got %d", m.pending)
	}
}

func TestToggleAndValidate(t *testing.T) {
	st := testStore(t, ptr("u1"))
	m := setupModel(t, st, "u1")

	// Cursor on the first exterior issue.
	m, _ = press(m, downKey)
	m, cmd := press(m, spaceKey)
	if cmd == nil {
		t.Fatal("expected a save command")
	}
	m = exec(t, m, cmd)

	if qc := verdict(t, st, "img0"); qc == nil || len(qc.Issues) != 1 || qc.Issues[0] != model.IssueSunReflections {
		t.Fatalf("expected sun reflections saved, got %+v", qc)
	}
	for _, o := range m.sess.Options() {
		if o.Code == model.IssueQualityGood && !o.Disabled {
			t.Error("quality good must be disabled while an issue is selected")
		}
	}
	if m.sess.Index() != 0 {
		t.Errorf("flagging must not advance, index %d", m.sess.Index())
	}

	// g forces quality good and moves on.
	m, cmd = press(m, runes("g"))
	m = exec(t, m, cmd)
	if qc := verdict(t, st, "img0"); qc == nil || !qc.IsQualityGood || len(qc.Issues) != 0 {
		t.Errorf("expected img0 quality good, got %+v", qc)
	}
	if m.sess.Index() != 1 {
		t.Errorf("expected index 1, got %d", m.sess.Index())
	}
	if m.cursor != 0 {
		t.Errorf("cursor should reset on the next item, got %d", m.cursor)
	}
}

func TestEnterGuardedByHelp(t *testing.T) {
	st := testStore(t, ptr("u1"))
	m := setupModel(t, st, "u1")

	m, _ = press(m, runes("?"))
	if m.modal != modalHelp {
		t.Fatal("expected help modal")
	}
	if !strings.Contains(m.View(), "Keyboard Shortcuts") {
		t.Error("expected help view to contain shortcuts")
	}

	m, cmd := press(m, enterKey)
	if cmd != nil || m.sess.Index() != 0 {
		t.Errorf("Enter with a modal open must do nothing, index %d", m.sess.Index())
	}

	m, _ = press(m, runes("?"))
	if m.modal != modalNone {
		t.Error("expected help to close")
	}
}

func TestNotesSaveOnBlur(t *testing.T) {
	st := testStore(t, ptr("u1"))
	m := setupModel(t, st, "u1")

	m, _ = press(m, runes("c"))
	if !m.editing {
		t.Fatal("expected notes editing")
	}
	m, _ = press(m, runes("dust"))
	if m.sess.State().Notes() != "dust" {
		t.Errorf("expected notes typed into the session, got %q", m.sess.State().Notes())
	}

	m, cmd := press(m, escKey)
	if m.editing {
		t.Error("esc should leave the notes field")
	}
	if cmd == nil {
		t.Fatal("changed notes should save on blur")
	}
	m = exec(t, m, cmd)
	if qc := verdict(t, st, "img0"); qc == nil || qc.Comments != "dust" || qc.Status != model.StatusUnchecked {
		t.Errorf("unexpected verdict %+v", qc)
	}

	// Blurring again without changes does not write.
	m, _ = press(m, runes("c"))
	if _, cmd := press(m, escKey); cmd != nil {
		t.Error("unchanged notes must not save again")
	}
}

func TestNonOwnerIsReadOnly(t *testing.T) {
	st := testStore(t, ptr("u1"))
	m := setupModel(t, st, "u2")

	if _, cmd := press(m, spaceKey); cmd != nil {
		t.Error("non-owner toggle must not save")
	}
	m, _ = press(m, runes("c"))
	if m.editing || m.notice == nil || !m.notice.Error {
		t.Error("non-owner must not edit notes")
	}
	m, cmd := press(m, enterKey)
	if cmd != nil {
		t.Error("non-owner Enter must not save")
	}
	if m.sess.Index() != 1 {
		t.Errorf("non-owner Enter should advance, index %d", m.sess.Index())
	}
	if !strings.Contains(m.View(), "read only") {
		t.Error("expected read only marker in the view")
	}
}

func TestContentTypeDialog(t *testing.T) {
	st := testStore(t, ptr("u1"))
	m := setupModel(t, st, "u1")

	m, _ = press(m, runes("t"))
	if m.modal != modalContentType {
		t.Fatal("expected content type dialog")
	}
	m, _ = press(m, downKey) // exterior -> interior
	m, cmd := press(m, enterKey)
	if cmd == nil {
		t.Fatal("expected a content type write")
	}
	if m.sess.Index() != 0 {
		t.Error("confirming the dialog must not trigger the review Enter")
	}
	m = exec(t, m, cmd)

	if m.sess.ContentType() != model.PositionInterior {
		t.Errorf("expected interior, got %s", m.sess.ContentType())
	}
	d, _ := st.GetVehicleDetail(context.Background(), "v1")
	if it, _ := d.Item("img0"); it.Position != model.PositionInterior {
		t.Errorf("expected stored position interior, got %s", it.Position)
	}
}

type failingSaves struct {
	*store.MemoryStore
}

func (failingSaves) SaveQualityCheck(context.Context, model.QualityCheckInput) error {
	return errors.New("connection reset")
}

func TestSaveFailureKeepsState(t *testing.T) {
	st := testStore(t, ptr("u1"))
	m := New(context.Background(), failingSaves{st}, "v1", "u1", nil)
	newM, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = exec(t, newM.(Model), m.Init())

	m, _ = press(m, downKey)
	m, cmd := press(m, spaceKey)
	m = exec(t, m, cmd)

	if m.notice == nil || !m.notice.Error {
		t.Fatalf("expected an error notice, got %+v", m.notice)
	}
	if got := m.sess.State().Issues(); len(got) != 1 {
		t.Errorf("local state must survive a failed save, got %v", got)
	}
}

type failingRefresh struct {
	*store.MemoryStore
	reads int
}

func (f *failingRefresh) GetVehicleDetail(ctx context.Context, id string) (*model.VehicleDetail, error) {
	f.reads++
	if f.reads > 1 {
		return nil, errors.New("connection reset")
	}
	return f.MemoryStore.GetVehicleDetail(ctx, id)
}

func TestClaimedButRefreshFailed(t *testing.T) {
	st := testStore(t, nil)
	m := New(context.Background(), &failingRefresh{MemoryStore: st}, "v1", "u1", nil)
	newM, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = exec(t, newM.(Model), m.Init())

	d, _ := st.GetVehicleDetail(context.Background(), "v1")
	if d.Vehicle.Reviewer() != "u1" {
		t.Fatalf("expected the claim to be stored, got %q", d.Vehicle.Reviewer())
	}
	if m.notice == nil || !strings.Contains(m.notice.Message, "Vehicle claimed, but refresh failed") {
		t.Errorf("expected a refresh failure notice, got %+v", m.notice)
	}
	if m.pending != 0 {
		t.Errorf("expected no pending writes, got %d", m.pending)
	}
}

func TestViewRenders(t *testing.T) {
	st := testStore(t, ptr("u1"))
	m := setupModel(t, st, "u1")

	view := m.View()
	for _, want := range []string{"WVWZZZ1JZXW000001", "Quality good", "Sun reflections", "Incorrect protocol (CI)", "reviewer: you"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected view to contain %q", want)
		}
	}

	m, _ = press(m, runes("i"))
	if !strings.Contains(m.View(), "qualityCheck") {
		t.Error("expected the inspect panel to show the raw verdict")
	}
}

func TestLoadError(t *testing.T) {
	st := store.NewMemoryStore()
	m := New(context.Background(), st, "missing", "u1", nil)
	newM, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m = exec(t, newM.(Model), m.Init())

	if m.err == nil || !strings.Contains(m.View(), "Could not load vehicle") {
		t.Errorf("expected load error view, got %q", m.View())
	}
	if _, cmd := press(m, runes("q")); cmd == nil {
		t.Error("q should quit")
	}
}
