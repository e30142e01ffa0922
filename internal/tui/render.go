package tui

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/sprite-ai/qcreview/internal/model"
)

// statusIcon returns the glyph and color for a verdict status.
func statusIcon(s model.VerdictStatus) string {
	switch s {
	case model.StatusChecked:
		return statusCheckedStyle.Render("✔")
	case model.StatusCheckedWithErrors:
		return statusErrorsStyle.Render("✖")
	case model.StatusInProgress:
		return statusInProgressStyle.Render("◐")
	default:
		return statusUncheckedStyle.Render("○")
	}
}

// reviewerLabel describes the vehicle's reviewer relative to the actor.
func reviewerLabel(v model.Vehicle, userID string) string {
	switch r := v.Reviewer(); {
	case r == "":
		return "unassigned"
	case r == userID:
		return "you"
	default:
		return r + " (read only)"
	}
}

// View implements tea.Model.
func (m Model) View() string {
	if m.err != nil {
		return fmt.Sprintf("Could not load vehicle %s: %v\n\nPress q to quit.", m.vehicleID, m.err)
	}
	if m.width == 0 || m.height == 0 || !m.sess.Loaded() {
		return "Loading..."
	}

	switch m.modal {
	case modalHelp:
		return m.renderHelp()
	case modalContentType:
		return m.renderContentTypeDialog()
	}

	listWidth := m.itemListWidth()
	main := lipgloss.JoinHorizontal(lipgloss.Top,
		m.renderItemList(listWidth, m.height-2),
		" ",
		m.renderReview(m.reviewWidth(), m.height-2),
	)
	return lipgloss.JoinVertical(lipgloss.Left, main, m.renderStatusBar())
}

func (m Model) itemListWidth() int {
	w := 28
	if w > m.width/3 {
		w = m.width / 3
	}
	return max(w, 16)
}

func (m Model) reviewWidth() int {
	return max(m.width-m.itemListWidth()-1, 20)
}

func (m Model) renderItemList(width, height int) string {
	d := m.sess.Detail()
	var b strings.Builder
	for i, it := range d.ContentItems {
		line := fmt.Sprintf("%s %2d %s", statusIcon(it.Status()), i+1, it.Position.String())
		style := itemStyle
		if i == m.sess.Index() {
			style = itemSelectedStyle
		}
		b.WriteString(style.Width(width - 4).Render(line))
		if i < len(d.ContentItems)-1 {
			b.WriteByte('\n')
		}
	}
	if len(d.ContentItems) == 0 {
		b.WriteString(helpBarStyle.Render("No content items"))
	}
	return itemListStyle.Width(width).Height(height - 2).Render(b.String())
}

func (m Model) renderReview(width, height int) string {
	d := m.sess.Detail()
	v := d.Vehicle

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("%s  %s %s  reviewer: %s",
		v.Title(), statusIcon(v.QualityCheckStatus), v.QualityCheckStatus.String(),
		reviewerLabel(v, m.sess.UserID()))))
	b.WriteByte('\n')

	item, ok := m.sess.Current()
	if !ok {
		b.WriteString("This vehicle has no content to review.")
		return reviewViewStyle.Width(width).Height(height - 2).Render(b.String())
	}

	st := m.sess.State()
	fmt.Fprintf(&b, "%s  item %d/%d  %s  reviewed as %s\n",
		sectionStyle.Render(item.Position.String()), m.sess.Index()+1, m.sess.Len(),
		statusIcon(st.Status()), m.sess.ContentType().String())
	if item.URI != "" {
		b.WriteString(uriStyle.Render(item.URI))
		b.WriteByte('\n')
	}
	b.WriteByte('\n')

	protocolHeader := false
	for i, o := range m.sess.Options() {
		if o.IsProtocolIssue && !protocolHeader {
			b.WriteString(sectionStyle.Render("Protocol"))
			b.WriteByte('\n')
			protocolHeader = true
		}
		cursor := "  "
		if i == m.cursor {
			cursor = cursorStyle.Render("> ")
		}
		box := "[ ]"
		if o.Checked {
			box = "[x]"
		}
		style := optionStyle
		switch {
		case o.Disabled && !o.Checked:
			style = optionDisabledStyle
		case o.Checked && o.Code == model.IssueQualityGood:
			style = optionGoodStyle
		case o.Checked:
			style = optionCheckedStyle
		}
		b.WriteString(cursor + style.Render(box+" "+o.Label()))
		b.WriteByte('\n')
	}

	b.WriteByte('\n')
	b.WriteString(sectionStyle.Render("Notes"))
	b.WriteByte('\n')
	if m.editing {
		b.WriteString(m.notes.View())
	} else if notes := st.Notes(); notes != "" {
		b.WriteString(notes)
	} else {
		b.WriteString(helpBarStyle.Render("press c to add notes"))
	}

	if m.inspect {
		b.WriteString("\n\n")
		b.WriteString(inspectStyle.Render(m.renderInspect()))
	}

	return reviewViewStyle.Width(width).Height(height - 2).Render(b.String())
}

// renderInspect shows the server verdict of the focused item as JSON.
func (m Model) renderInspect() string {
	item, _ := m.sess.Current()
	var v any = item.QualityCheck
	if item.QualityCheck == nil {
		v = map[string]any{"qualityCheck": nil}
	}
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err.Error()
	}
	return renderTokens(highlightJSON(string(raw)))
}

func (m Model) renderStatusBar() string {
	left := fmt.Sprintf(" Item %d/%d", m.sess.Index()+1, m.sess.Len())
	if m.sess.Len() == 0 {
		left = " No items"
	}
	if !m.sess.IsOwner() {
		left += "  read only"
	}
	if m.pending > 0 {
		left += "  saving…"
	}
	if m.notice != nil {
		style := noticeStyle
		if m.notice.Error {
			style = noticeErrorStyle
		}
		left += "  " + style.Render(m.notice.Message)
	}

	right := "enter next  g good  space toggle  ? help "
	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right), 0)
	return statusBarStyle.Width(m.width).Render(left + strings.Repeat(" ", gap) + right)
}

func (m Model) renderHelp() string {
	var b strings.Builder

	b.WriteString(headerStyle.Render("qcreview — Keyboard Shortcuts"))
	b.WriteString("\n\n")
	for _, kb := range helpBindings() {
		h := kb.Help()
		b.WriteString(fmt.Sprintf("  %s  %s\n", helpKeyStyle.Width(12).Render(h.Key), h.Desc))
	}
	b.WriteString("\n")
	b.WriteString(helpBarStyle.Render("Press ? to close help"))
	return b.String()
}

func (m Model) renderContentTypeDialog() string {
	var b strings.Builder
	b.WriteString(sectionStyle.Render("Change content type"))
	b.WriteString("\n\n")
	for i, p := range model.Positions() {
		cursor := "  "
		if i == m.typeCursor {
			cursor = cursorStyle.Render("> ")
		}
		label := p.String()
		if p == m.sess.ContentType() {
			label += " (current)"
		}
		b.WriteString(cursor + label + "\n")
	}
	b.WriteString("\n")
	b.WriteString(helpBarStyle.Render("enter select  esc cancel"))
	return dialogStyle.Render(b.String())
}
