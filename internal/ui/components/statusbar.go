// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/rigrun-chat/internal/ui/styles"
	"github.com/jeranaias/rigrun-chat/internal/util"
)

// =============================================================================
// STATUS BAR COMPONENT - Bottom line with notices and shortcuts
// =============================================================================

// NoticeKind picks how a status notice is colored.
type NoticeKind int

const (
	NoticeInfo NoticeKind = iota
	NoticeSuccess
	NoticeWarning
	NoticeError
)

// Notice is a transient message shown in the status bar.
type Notice struct {
	Kind NoticeKind
	Text string
}

// Shortcut is one key hint.
type Shortcut struct {
	Key  string
	Desc string
}

// DefaultShortcuts are shown when there is room.
var DefaultShortcuts = []Shortcut{
	{"enter", "send"},
	{"tab", "blocks"},
	{"^T", "theme"},
	{"^N", "new"},
	{"^L", "chats"},
	{"^E", "export"},
	{"^C", "quit"},
}

// StatusBar renders the notice on the left and as many shortcuts as fit on
// the right.
type StatusBar struct {
	Notice    Notice
	Shortcuts []Shortcut
	Width     int
	theme     *styles.Theme
}

// NewStatusBar creates a StatusBar.
func NewStatusBar(theme *styles.Theme) *StatusBar {
	return &StatusBar{Shortcuts: DefaultShortcuts, Width: 80, theme: theme}
}

// SetTheme swaps the theme after a toggle.
func (s *StatusBar) SetTheme(theme *styles.Theme) {
	s.theme = theme
}

// SetWidth updates the status bar width.
func (s *StatusBar) SetWidth(width int) {
	s.Width = width
}

// SetNotice replaces the notice. An empty text clears it.
func (s *StatusBar) SetNotice(kind NoticeKind, text string) {
	s.Notice = Notice{Kind: kind, Text: text}
}

// View renders the status bar.
func (s *StatusBar) View() string {
	t := s.theme
	inner := max(s.Width-2, minContentWidth)

	left := ""
	if s.Notice.Text != "" {
		text := util.TruncateWidth(util.SingleLine(s.Notice.Text), inner*2/3)
		switch s.Notice.Kind {
		case NoticeSuccess:
			left = t.RenderSuccess(text)
		case NoticeWarning:
			left = t.RenderWarning(text)
		case NoticeError:
			left = t.RenderError(text)
		default:
			left = t.RenderInfo(text)
		}
	}

	room := inner - lipgloss.Width(left) - 2
	var hints []string
	used := 0
	for _, sc := range s.Shortcuts {
		hint := t.ShortcutKey.Render(sc.Key) + " " + t.ShortcutDesc.Render(sc.Desc)
		w := lipgloss.Width(hint)
		if used > 0 {
			w += 2
		}
		if used+w > room {
			break
		}
		hints = append(hints, hint)
		used += w
	}
	right := strings.Join(hints, "  ")

	gap := max(inner-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return t.StatusBar.Render(left + strings.Repeat(" ", gap) + right)
}
