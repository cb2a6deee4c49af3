package ui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgItemsLoaded MsgKind = iota
)

// itemsLoadedMsg is the constructor for [MsgItemsLoaded]
func itemsLoadedMsg(items []fileItem) Msg {
	return Msg{kind: MsgItemsLoaded, data: items}
}
