package tui

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyMap defines the key bindings for the page.
type KeyMap struct {
	// Navigation
	Next key.Binding
	Prev key.Binding

	// Actions
	Open     key.Binding
	Theme    key.Binding
	Language key.Binding

	// Global
	Quit key.Binding
	Help key.Binding
}

// ShortHelp returns a short help message.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Theme, k.Language, k.Open, k.Help, k.Quit}
}

// FullHelp returns a full help message.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Prev, k.Open},
		{k.Theme, k.Language},
		{k.Help, k.Quit},
	}
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Next: key.NewBinding(
			key.WithKeys("tab", "right", "down", "j"),
			key.WithHelp("tab/→", "next link"),
		),
		Prev: key.NewBinding(
			key.WithKeys("shift+tab", "left", "up", "k"),
			key.WithHelp("shift+tab/←", "previous link"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open link"),
		),
		Theme: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "toggle theme"),
		),
		Language: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "toggle language"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
	}
}
