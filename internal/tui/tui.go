// Package tui implements the Bubble Tea review view.
//
// The view drives a session.Session from a single event loop. Every network
// call runs as a tea.Cmd and comes back as a message; Update never blocks.
package tui

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/sprite-ai/qcreview/internal/autosave"
	"github.com/sprite-ai/qcreview/internal/backend"
	"github.com/sprite-ai/qcreview/internal/model"
	"github.com/sprite-ai/qcreview/internal/review"
	"github.com/sprite-ai/qcreview/internal/session"
)

type modal int

const (
	modalNone modal = iota
	modalHelp
	modalContentType
)

// Model is the top-level Bubble Tea model for a vehicle review.
type Model struct {
	ctx       context.Context
	backend   backend.Backend
	persister *autosave.Persister
	logger    *slog.Logger
	vehicleID string
	sess      *session.Session

	// UI state
	width  int
	height int

	// state is the review state the widgets were last synced with.
	state  *review.State
	cursor int // option cursor

	notes   textarea.Model
	editing bool

	modal      modal
	typeCursor int
	inspect    bool

	pending int // writes in flight
	notice  *autosave.Notice
	err     error // fatal load error
}

// New creates a review view for a vehicle. Nothing is fetched until Init.
func New(ctx context.Context, b backend.Backend, vehicleID, userID string, logger *slog.Logger) Model {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	ta := textarea.New()
	ta.Placeholder = "Notes for this item"
	ta.ShowLineNumbers = false
	ta.CharLimit = 2000
	ta.SetHeight(3)

	return Model{
		ctx:       ctx,
		backend:   b,
		persister: autosave.NewPersister(b, logger),
		logger:    logger,
		vehicleID: vehicleID,
		sess:      session.New(userID),
		notes:     ta,
	}
}

// Session returns the review session.
func (m Model) Session() *session.Session { return m.sess }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return loadCmd(m.ctx, m.backend, m.vehicleID)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.notes.SetWidth(max(m.reviewWidth()-6, 10))
		return m, nil

	case detailMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		in, ok := m.sess.Load(msg.detail)
		m.syncWidgets()
		if ok {
			m.pending++
			return m, assignCmd(m.ctx, m.backend, in)
		}
		return m, nil

	case assignedMsg:
		m.pending--
		switch {
		case msg.err != nil:
			m.setNotice(true, fmt.Sprintf("Could not claim vehicle: %v", msg.err))
		case msg.refreshErr != nil:
			m.setNotice(true, fmt.Sprintf("Vehicle claimed, but refresh failed: %v", msg.refreshErr))
		default:
			m.sess.Load(msg.detail)
			m.syncWidgets()
		}
		return m, nil

	case savedMsg:
		m.pending--
		n := msg.res.Notice
		m.notice = &n
		if msg.res.Detail != nil {
			m.sess.Load(msg.res.Detail)
			m.syncWidgets()
		}
		return m, nil

	case typeChangedMsg:
		m.pending--
		if msg.err != nil {
			m.setNotice(true, fmt.Sprintf("Could not change content type: %v", msg.err))
			return m, nil
		}
		m.sess.ApplyContentType(msg.in.Type)
		if msg.refreshErr != nil {
			m.setNotice(true, fmt.Sprintf("Content type changed, but refresh failed: %v", msg.refreshErr))
		} else {
			m.sess.Load(msg.detail)
			m.setNotice(false, "Content type changed to "+msg.in.Type.String())
		}
		m.syncWidgets()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.editing {
		return m.handleNotesKey(msg)
	}

	// The content type dialog confirms with Enter; everywhere else Enter is
	// the review binding, guarded while a modal is open.
	if key.Matches(msg, keys.Enter) && m.modal != modalContentType {
		return m.apply(m.sess.Enter(m.modal != modalNone))
	}

	switch m.modal {
	case modalHelp:
		switch {
		case key.Matches(msg, keys.Help), key.Matches(msg, keys.Blur):
			m.modal = modalNone
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		}
		return m, nil
	case modalContentType:
		return m.handleContentTypeKey(msg)
	}

	if m.err != nil || !m.sess.Loaded() {
		if key.Matches(msg, keys.Quit) {
			return m, tea.Quit
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, keys.Validate):
		return m.apply(m.sess.ValidateAndAdvance())

	case key.Matches(msg, keys.Toggle):
		opts := m.sess.Options()
		if m.cursor < len(opts) {
			return m.apply(m.sess.Toggle(opts[m.cursor].Code))
		}

	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}

	case key.Matches(msg, keys.Down):
		if m.cursor < len(m.sess.Options())-1 {
			m.cursor++
		}

	case key.Matches(msg, keys.Next):
		return m.apply(m.sess.Next())

	case key.Matches(msg, keys.Prev):
		return m.apply(m.sess.Prev())

	case key.Matches(msg, keys.Notes):
		if !m.sess.IsOwner() {
			m.setNotice(true, "Only the assigned reviewer can edit notes")
			return m, nil
		}
		if _, ok := m.sess.Current(); !ok {
			return m, nil
		}
		m.editing = true
		cmd := m.notes.Focus()
		return m, cmd

	case key.Matches(msg, keys.ContentType):
		if !m.sess.IsOwner() {
			m.setNotice(true, "Only the assigned reviewer can change the content type")
			return m, nil
		}
		if _, ok := m.sess.Current(); !ok {
			return m, nil
		}
		m.modal = modalContentType
		m.typeCursor = 0
		for i, p := range model.Positions() {
			if p == m.sess.ContentType() {
				m.typeCursor = i
			}
		}

	case key.Matches(msg, keys.Inspect):
		m.inspect = !m.inspect

	case key.Matches(msg, keys.Help):
		m.modal = modalHelp
	}

	return m, nil
}

func (m Model) handleNotesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, keys.Blur) {
		m.editing = false
		m.notes.Blur()
		return m.apply(m.sess.BlurNotes())
	}
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}
	var cmd tea.Cmd
	m.notes, cmd = m.notes.Update(msg)
	m.sess.SetNotes(m.notes.Value())
	return m, cmd
}

func (m Model) handleContentTypeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	positions := model.Positions()
	switch {
	case key.Matches(msg, keys.Up):
		if m.typeCursor > 0 {
			m.typeCursor--
		}
	case key.Matches(msg, keys.Down):
		if m.typeCursor < len(positions)-1 {
			m.typeCursor++
		}
	case key.Matches(msg, keys.Blur):
		m.modal = modalNone
	case key.Matches(msg, keys.Enter):
		m.modal = modalNone
		in, ok := m.sess.RequestContentType(positions[m.typeCursor])
		if !ok {
			return m, nil
		}
		m.pending++
		return m, contentTypeCmd(m.ctx, m.backend, in)
	}
	return m, nil
}

// apply runs the write an operation asked for and resyncs the widgets.
func (m Model) apply(eff session.Effect) (tea.Model, tea.Cmd) {
	m.syncWidgets()
	if eff.Save == nil {
		return m, nil
	}
	m.pending++
	return m, saveCmd(m.ctx, m.persister, *eff.Save)
}

// syncWidgets resets the option cursor and the notes field whenever the
// session rebuilt its review state.
func (m *Model) syncWidgets() {
	st := m.sess.State()
	if st == m.state {
		return
	}
	m.state = st
	m.cursor = 0
	m.notes.SetValue(st.Notes())
	if m.editing {
		m.editing = false
		m.notes.Blur()
	}
}

func (m *Model) setNotice(isError bool, msg string) {
	m.notice = &autosave.Notice{Error: isError, Message: msg}
}

// Run starts the review view and blocks until the user quits.
func Run(ctx context.Context, b backend.Backend, vehicleID, userID string, logger *slog.Logger) error {
	m := New(ctx, b, vehicleID, userID, logger)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
