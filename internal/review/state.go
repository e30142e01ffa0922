// Package review implements the per-item review state machine and the
// ownership rule that gates it.
package review

import (
	"github.com/sprite-ai/qcreview/internal/catalog"
	"github.com/sprite-ai/qcreview/internal/model"
)

// Kind is the coarse state of a review.
type Kind int

const (
	KindUnset Kind = iota
	KindGood
	KindFlagged
)

func (k Kind) String() string {
	switch k {
	case KindUnset:
		return "unset"
	case KindGood:
		return "good"
	case KindFlagged:
		return "flagged"
	default:
		return "unknown"
	}
}

// Option is an issue option with its render state.
type Option struct {
	catalog.IssueOption
	Checked  bool
	Disabled bool
}

// State holds the in-memory verdict of the focused item.
//
// Invariant: quality good is selected iff no other issue is.
type State struct {
	options  []catalog.IssueOption
	selected map[model.IssueCode]bool
	notes    string
}

// New builds a state for an item shown under the given content type. Issues
// of the verdict that the catalog does not offer for that type are dropped.
func New(position model.Position, qc *model.QualityCheck) *State {
	s := &State{
		options:  catalog.IssuesFor(position),
		selected: make(map[model.IssueCode]bool),
	}
	if qc == nil {
		return s
	}
	s.notes = qc.Comments
	if qc.IsQualityGood {
		s.selected[model.IssueQualityGood] = true
		return s
	}
	for _, code := range qc.Issues {
		if code != model.IssueQualityGood && s.offers(code) {
			s.selected[code] = true
		}
	}
	return s
}

func (s *State) offers(code model.IssueCode) bool {
	for _, o := range s.options {
		if o.Code == code {
			return true
		}
	}
	return false
}

// Options returns every option in catalog order with its checked and
// disabled flags.
func (s *State) Options(owner bool) []Option {
	out := make([]Option, 0, len(s.options))
	for _, o := range s.options {
		out = append(out, Option{
			IssueOption: o,
			Checked:     s.selected[o.Code],
			Disabled:    s.disabled(o.Code, owner),
		})
	}
	return out
}

func (s *State) disabled(code model.IssueCode, owner bool) bool {
	if !owner {
		return true
	}
	if code == model.IssueQualityGood {
		return s.hasIssues()
	}
	return s.IsQualityGood()
}

// Toggle flips an option through the control path. It returns false and
// leaves the state unchanged when the option is unknown or disabled.
func (s *State) Toggle(code model.IssueCode, owner bool) bool {
	if !s.offers(code) || s.disabled(code, owner) {
		return false
	}
	if s.selected[code] {
		delete(s.selected, code)
		return true
	}
	s.selectCode(code)
	return true
}

// MarkGood selects quality good from any selection, clearing every issue.
func (s *State) MarkGood(owner bool) bool {
	if !owner {
		return false
	}
	s.selectCode(model.IssueQualityGood)
	return true
}

func (s *State) selectCode(code model.IssueCode) {
	if code == model.IssueQualityGood {
		clear(s.selected)
	}
	s.selected[code] = true
}

// Clear drops every selection.
func (s *State) Clear() {
	clear(s.selected)
}

// IsQualityGood reports whether quality good is selected.
func (s *State) IsQualityGood() bool {
	return s.selected[model.IssueQualityGood]
}

func (s *State) hasIssues() bool {
	for code := range s.selected {
		if code != model.IssueQualityGood {
			return true
		}
	}
	return false
}

// Empty reports whether nothing is selected.
func (s *State) Empty() bool {
	return len(s.selected) == 0
}

// Selected returns the selected codes in catalog order, quality good included.
func (s *State) Selected() []model.IssueCode {
	var out []model.IssueCode
	for _, o := range s.options {
		if s.selected[o.Code] {
			out = append(out, o.Code)
		}
	}
	return out
}

// Issues returns the selected codes without quality good.
func (s *State) Issues() []model.IssueCode {
	out := []model.IssueCode{}
	for _, code := range s.Selected() {
		if code != model.IssueQualityGood {
			out = append(out, code)
		}
	}
	return out
}

// Kind returns the coarse state.
func (s *State) Kind() Kind {
	switch {
	case s.IsQualityGood():
		return KindGood
	case s.hasIssues():
		return KindFlagged
	default:
		return KindUnset
	}
}

// Status derives the verdict status from the current selection.
func (s *State) Status() model.VerdictStatus {
	return model.DeriveStatus(s.IsQualityGood(), s.Issues())
}

// Notes returns the free text notes.
func (s *State) Notes() string { return s.notes }

// SetNotes replaces the notes. It never triggers a save on its own.
func (s *State) SetNotes(notes string) { s.notes = notes }

// Verdict returns the current selection as a verdict.
func (s *State) Verdict() *model.QualityCheck {
	return &model.QualityCheck{
		IsQualityGood: s.IsQualityGood(),
		Issues:        s.Issues(),
		Comments:      s.notes,
		Status:        s.Status(),
	}
}

// Input builds the save payload for an item.
func (s *State) Input(vehicleID, itemID string) model.QualityCheckInput {
	return model.QualityCheckInput{
		VehicleID:      vehicleID,
		VehicleImageID: itemID,
		IsQualityGood:  s.IsQualityGood(),
		Issues:         s.Issues(),
		Comment:        s.notes,
		Status:         s.Status(),
	}
}
