package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the confirmation screen.
type keyMap struct {
	up     key.Binding
	down   key.Binding
	list   key.Binding
	back   key.Binding
	upload key.Binding
	quit   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		list:   key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "list files")),
		back:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		upload: key.NewBinding(key.WithKeys("u"), key.WithHelp("u", "upload")),
		quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "abort")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.list, k.upload, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down},
		{k.list, k.back},
		{k.upload, k.quit},
	}
}
