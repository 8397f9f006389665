package tui

import "github.com/charmbracelet/bubbles/key"

// PickerKeys are the picker's bindings.
type PickerKeys struct {
	Up      key.Binding
	Down    key.Binding
	Toggle  key.Binding
	Refresh key.Binding
	Quit    key.Binding
}

var pickerKeys = PickerKeys{
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("j/k", "navigate"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("j/k", "navigate"),
	),
	Toggle: key.NewBinding(
		key.WithKeys(" ", "enter"),
		key.WithHelp("Space", "select"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "esc", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// helpBindings are shown in the footer, in order.
var helpBindings = []key.Binding{
	pickerKeys.Down,
	pickerKeys.Toggle,
	pickerKeys.Refresh,
	pickerKeys.Quit,
}
