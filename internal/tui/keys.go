package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Enter       key.Binding
	Validate    key.Binding
	Toggle      key.Binding
	Up          key.Binding
	Down        key.Binding
	Next        key.Binding
	Prev        key.Binding
	Notes       key.Binding
	Blur        key.Binding
	ContentType key.Binding
	Inspect     key.Binding
	Help        key.Binding
	Quit        key.Binding
}

var keys = keyMap{
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "validate if unset, else next"),
	),
	Validate: key.NewBinding(
		key.WithKeys("g"),
		key.WithHelp("g", "quality good + next"),
	),
	Toggle: key.NewBinding(
		key.WithKeys(" ", "x"),
		key.WithHelp("space/x", "toggle issue"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "up"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "down"),
	),
	Next: key.NewBinding(
		key.WithKeys("n", "right"),
		key.WithHelp("n/→", "next item"),
	),
	Prev: key.NewBinding(
		key.WithKeys("N", "left"),
		key.WithHelp("N/←", "prev item"),
	),
	Notes: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "edit notes"),
	),
	Blur: key.NewBinding(
		key.WithKeys("esc", "tab"),
		key.WithHelp("esc/tab", "leave notes"),
	),
	ContentType: key.NewBinding(
		key.WithKeys("t"),
		key.WithHelp("t", "change content type"),
	),
	Inspect: key.NewBinding(
		key.WithKeys("i"),
		key.WithHelp("i", "inspect verdict"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// helpBindings lists the bindings shown on the help screen, in order.
func helpBindings() []key.Binding {
	return []key.Binding{
		keys.Enter, keys.Validate, keys.Toggle, keys.Up, keys.Down,
		keys.Next, keys.Prev, keys.Notes, keys.Blur, keys.ContentType,
		keys.Inspect, keys.Help, keys.Quit,
	}
}
