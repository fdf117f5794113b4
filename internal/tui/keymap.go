package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keyboard shortcuts.
type KeyMap struct {
	Increase    key.Binding
	Decrease    key.Binding
	IncreaseBig key.Binding
	DecreaseBig key.Binding
	Match       key.Binding
	Reset       key.Binding
	Accept      key.Binding
	Help        key.Binding
	Quit        key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Increase: key.NewBinding(
			key.WithKeys("up", "k", "right", "l"),
			key.WithHelp("↑/→", "contribute more"),
		),
		Decrease: key.NewBinding(
			key.WithKeys("down", "j", "left", "h"),
			key.WithHelp("↓/←", "contribute less"),
		),
		IncreaseBig: key.NewBinding(
			key.WithKeys("pgup", "K"),
			key.WithHelp("PgUp", "+5%"),
		),
		DecreaseBig: key.NewBinding(
			key.WithKeys("pgdown", "J"),
			key.WithHelp("PgDn", "-5%"),
		),
		Match: key.NewBinding(
			key.WithKeys("m"),
			key.WithHelp("m", "jump to full match"),
		),
		Reset: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reset"),
		),
		Accept: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "accept"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "esc", "ctrl+c"),
			key.WithHelp("q/Esc", "quit"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Increase, k.Decrease, k.Match, k.Accept, k.Help, k.Quit}
}

// FullHelp returns all key bindings for the full help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Increase, k.Decrease, k.IncreaseBig, k.DecreaseBig},
		{k.Match, k.Reset, k.Accept},
		{k.Help, k.Quit},
	}
}
