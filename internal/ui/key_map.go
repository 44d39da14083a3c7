package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up        key.Binding
	down      key.Binding
	toggle    key.Binding
	toggleAll key.Binding
	more      key.Binding
	create    key.Binding
	theme     key.Binding
	open      key.Binding
	back      key.Binding
	quit      key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		toggle:    key.NewBinding(key.WithKeys(" ", "x", "enter"), key.WithHelp("space", "select")),
		toggleAll: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "select all/none")),
		more:      key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "load more")),
		create:    key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "create")),
		theme:     key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "theme")),
		open:      key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open")),
		back:      key.NewBinding(key.WithKeys("esc", "r"), key.WithHelp("esc", "back")),
		quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.toggle, k.create, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.toggle, k.toggleAll},
		{k.more, k.create, k.theme},
		{k.open, k.back, k.quit},
	}
}
