// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
)

// =============================================================================
// KEY MAP DEFINITION
// =============================================================================

// KeyMap defines all keyboard bindings for the chat screen. Input bindings
// apply while typing; browse bindings apply after esc moves focus to the
// message list.
type KeyMap struct {
	// Global
	Quit        key.Binding
	ToggleTheme key.Binding
	NewChat     key.Binding
	ChatList    key.Binding
	ModelPicker key.Binding
	Export      key.Binding
	PageUp      key.Binding
	PageDown    key.Binding

	// Input
	Submit      key.Binding
	Browse      key.Binding
	QuickPrompt key.Binding

	// Browse
	Up         key.Binding
	Down       key.Binding
	NextBlock  key.Binding
	PrevBlock  key.Binding
	Activate   key.Binding
	CopyAs     key.Binding
	CopyMsg    key.Binding
	RateUp     key.Binding
	RateDown   key.Binding
	Regenerate key.Binding
	Back       key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "ctrl+q"),
			key.WithHelp("C-c", "quit"),
		),
		ToggleTheme: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("C-t", "toggle theme"),
		),
		NewChat: key.NewBinding(
			key.WithKeys("ctrl+n"),
			key.WithHelp("C-n", "new chat"),
		),
		ChatList: key.NewBinding(
			key.WithKeys("ctrl+l"),
			key.WithHelp("C-l", "chat list"),
		),
		ModelPicker: key.NewBinding(
			key.WithKeys("ctrl+p"),
			key.WithHelp("C-p", "pick model"),
		),
		Export: key.NewBinding(
			key.WithKeys("ctrl+e"),
			key.WithHelp("C-e", "export chat"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("PgUp", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("PgDn", "page down"),
		),

		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "send"),
		),
		Browse: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "browse messages"),
		),
		QuickPrompt: key.NewBinding(
			key.WithKeys("alt+1", "alt+2", "alt+3", "alt+4", "alt+5", "alt+6"),
			key.WithHelp("M-1..6", "quick prompt"),
		),

		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "previous message"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "next message"),
		),
		NextBlock: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("Tab", "next block"),
		),
		PrevBlock: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("S-Tab", "previous block"),
		),
		Activate: key.NewBinding(
			key.WithKeys("enter", "c"),
			key.WithHelp("Enter/c", "copy block or open menu"),
		),
		CopyAs: key.NewBinding(
			key.WithKeys("1", "2", "3"),
			key.WithHelp("1-3", "copy table as"),
		),
		CopyMsg: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "copy message"),
		),
		RateUp: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "thumbs up"),
		),
		RateDown: key.NewBinding(
			key.WithKeys("-"),
			key.WithHelp("-", "thumbs down"),
		),
		Regenerate: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "regenerate"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc", "i"),
			key.WithHelp("Esc/i", "back to input"),
		),
	}
}

// =============================================================================
// KEY BINDING HELPERS
// =============================================================================

// ShortHelp returns the bindings shown in the one-line help.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Submit, k.Browse, k.ToggleTheme, k.Quit}
}

// FullHelp returns the bindings grouped for /help.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Submit, k.Browse, k.QuickPrompt, k.PageUp, k.PageDown},
		{k.Up, k.Down, k.NextBlock, k.PrevBlock, k.Activate, k.CopyAs},
		{k.CopyMsg, k.RateUp, k.RateDown, k.Regenerate, k.Back},
		{k.NewChat, k.ChatList, k.ModelPicker, k.Export, k.ToggleTheme, k.Quit},
	}
}

// HelpText renders FullHelp as plain lines.
func (k KeyMap) HelpText() string {
	var sb strings.Builder
	for i, group := range k.FullHelp() {
		if i > 0 {
			sb.WriteByte('\n')
		}
		for _, b := range group {
			h := b.Help()
			sb.WriteString("  " + h.Key + "  " + h.Desc + "\n")
		}
	}
	return sb.String()
}
