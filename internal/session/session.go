// Package session holds the state of one vehicle review: which item is
// focused, its review state, the current content type and ownership.
//
// A Session is created when a vehicle is opened and discarded when it is
// closed. It is driven by a single event loop and never performs I/O: the
// operations return the writes to perform, and the caller feeds refetched
// vehicle details back through Load.
package session

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/sprite-ai/qcreview/internal/autosave"
	"github.com/sprite-ai/qcreview/internal/model"
	"github.com/sprite-ai/qcreview/internal/review"
)

// Effect lists what an operation asks the caller to do.
type Effect struct {
	// Save is the verdict write to perform, if any.
	Save *model.QualityCheckInput
	// Moved reports whether the focused index changed.
	Moved bool
}

// stateKey identifies what the review state was built from. Any change
// rebuilds the state.
type stateKey struct {
	itemID      string
	position    model.Position
	contentType model.Position
	verdict     string
	reset       bool
}

// Session is one reviewer's view of one vehicle.
type Session struct {
	id     string
	userID string

	detail      *model.VehicleDetail
	contentType model.Position

	nav      *Navigator
	state    *review.State
	key      stateKey
	tracker  *autosave.Tracker
	assigner Assigner
}

// New creates a session for the actor. It is empty until the first Load.
func New(userID string) *Session {
	return &Session{
		id:      uuid.NewString(),
		userID:  userID,
		nav:     NewNavigator(0),
		state:   review.New("", nil),
		tracker: autosave.NewTracker(),
	}
}

// ID returns the session id.
func (s *Session) ID() string { return s.id }

// UserID returns the actor.
func (s *Session) UserID() string { return s.userID }

// Loaded reports whether a vehicle detail has been loaded.
func (s *Session) Loaded() bool { return s.detail != nil }

// Detail returns the last loaded vehicle detail.
func (s *Session) Detail() *model.VehicleDetail { return s.detail }

// Load applies a completed vehicle read, the first one or any refetch. The
// first load may ask for the vehicle to be assigned to the actor.
func (s *Session) Load(d *model.VehicleDetail) (model.AssignInput, bool) {
	s.detail = d
	s.nav.Resize(len(d.ContentItems))
	s.sync()
	return s.assigner.OnLoaded(d, s.userID)
}

// IsOwner reports whether the actor may mutate verdicts.
func (s *Session) IsOwner() bool {
	if s.detail == nil {
		return false
	}
	return review.IsOwner(s.detail.Vehicle, s.userID)
}

// Index returns the focused index.
func (s *Session) Index() int { return s.nav.Index() }

// Len returns the number of content items.
func (s *Session) Len() int { return s.nav.Len() }

// ResetFlag returns the navigator's reset flag.
func (s *Session) ResetFlag() bool { return s.nav.ResetFlag() }

// ContentType returns the content type the focused item is reviewed as.
func (s *Session) ContentType() model.Position { return s.contentType }

// Current returns the focused item.
func (s *Session) Current() (model.ContentItem, bool) {
	if s.detail == nil || s.nav.Len() == 0 {
		return model.ContentItem{}, false
	}
	return s.detail.ContentItems[s.nav.Index()], true
}

// State returns the review state of the focused item.
func (s *Session) State() *review.State { return s.state }

// Options returns the issue options of the focused item.
func (s *Session) Options() []review.Option {
	return s.state.Options(s.IsOwner())
}

// sync rebuilds the review state when the focused item, its server verdict,
// its content type or the reset flag changed since the last build.
func (s *Session) sync() {
	item, ok := s.Current()
	if !ok {
		s.state = review.New("", nil)
		s.key = stateKey{}
		return
	}
	if item.ID != s.key.itemID || item.Position != s.key.position {
		s.contentType = item.Position
	}
	k := stateKey{
		itemID:      item.ID,
		position:    item.Position,
		contentType: s.contentType,
		verdict:     fingerprint(item.QualityCheck),
		reset:       s.nav.ResetFlag(),
	}
	if k == s.key {
		return
	}
	s.state = review.New(s.contentType, item.QualityCheck)
	s.tracker.Seed(item.ID, item.QualityCheck)
	s.key = k
}

func fingerprint(qc *model.QualityCheck) string {
	if qc == nil {
		return ""
	}
	issues := make([]string, 0, len(qc.Issues))
	for _, c := range qc.Issues {
		issues = append(issues, string(c))
	}
	slices.Sort(issues)
	return fmt.Sprintf("%t|%s|%s", qc.IsQualityGood, strings.Join(issues, ","), qc.Comments)
}

func (s *Session) input() (model.QualityCheckInput, bool) {
	item, ok := s.Current()
	if !ok {
		return model.QualityCheckInput{}, false
	}
	return s.state.Input(s.detail.Vehicle.ID, item.ID), true
}

func (s *Session) capture(trigger autosave.Trigger) *model.QualityCheckInput {
	in, ok := s.input()
	if !ok {
		return nil
	}
	in, ok = s.tracker.Capture(trigger, in)
	if !ok {
		return nil
	}
	return &in
}

// Toggle flips an issue checkbox. A prevented toggle returns a zero Effect.
// Checking quality good also advances to the next item.
func (s *Session) Toggle(code model.IssueCode) Effect {
	if _, ok := s.Current(); !ok || !s.state.Toggle(code, s.IsOwner()) {
		return Effect{}
	}
	eff := Effect{Save: s.capture(autosave.TriggerEdit)}
	if code == model.IssueQualityGood && s.state.IsQualityGood() {
		eff.Moved = s.advance()
	}
	return eff
}

// SetNotes updates the notes of the focused item without saving.
func (s *Session) SetNotes(notes string) {
	s.state.SetNotes(notes)
}

// BlurNotes is called when the notes field loses focus. It saves only if
// the verdict changed since it was last captured.
func (s *Session) BlurNotes() Effect {
	if !s.IsOwner() {
		return Effect{}
	}
	return Effect{Save: s.capture(autosave.TriggerBlur)}
}

// ValidateAndAdvance marks the focused item quality good and advances.
// A non-owner only advances.
func (s *Session) ValidateAndAdvance() Effect {
	var eff Effect
	if _, ok := s.Current(); ok && s.state.MarkGood(s.IsOwner()) {
		eff.Save = s.capture(autosave.TriggerEdit)
	}
	eff.Moved = s.advance()
	return eff
}

// Enter handles the Enter key. Nothing happens while a modal is open. With
// no selection the item is validated; otherwise the review just moves on.
func (s *Session) Enter(modalOpen bool) Effect {
	if modalOpen || !s.Loaded() {
		return Effect{}
	}
	if s.state.Empty() {
		return s.ValidateAndAdvance()
	}
	return Effect{Moved: s.advance()}
}

// Next focuses the next item.
func (s *Session) Next() Effect { return Effect{Moved: s.advance()} }

// Prev focuses the previous item.
func (s *Session) Prev() Effect {
	moved := s.nav.Retreat()
	s.sync()
	return Effect{Moved: moved}
}

// Focus jumps to item i.
func (s *Session) Focus(i int) Effect {
	moved := s.nav.Focus(i)
	s.sync()
	return Effect{Moved: moved}
}

func (s *Session) advance() bool {
	moved := s.nav.Advance()
	s.sync()
	return moved
}

// RequestContentType asks to reclassify the focused item. It returns false
// for non-owners, unknown positions and no-op changes.
func (s *Session) RequestContentType(p model.Position) (model.ImageTypeInput, bool) {
	item, ok := s.Current()
	if !ok || !s.IsOwner() || !p.Valid() || p == s.contentType {
		return model.ImageTypeInput{}, false
	}
	return model.ImageTypeInput{
		VehicleID:      s.detail.Vehicle.ID,
		VehicleImageID: item.ID,
		Type:           p,
	}, true
}

// ApplyContentType switches the content type after the change was
// acknowledged. The issue catalog follows, so the state is rebuilt.
func (s *Session) ApplyContentType(p model.Position) {
	if !p.Valid() {
		return
	}
	s.contentType = p
	s.sync()
}
