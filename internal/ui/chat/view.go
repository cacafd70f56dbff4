// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/rigrun-chat/internal/model"
	"github.com/jeranaias/rigrun-chat/internal/session"
	"github.com/jeranaias/rigrun-chat/internal/ui/components"
	"github.com/jeranaias/rigrun-chat/internal/util"
)

// =============================================================================
// VIEW
// =============================================================================

// View renders the chat screen.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	switch m.focus {
	case FocusChats:
		return m.frame(m.chatListView())
	case FocusModels:
		return m.frame(m.modelPickerView())
	case FocusHelp:
		return m.frame(m.helpView())
	}
	return m.frame(m.viewport.View())
}

// frame wraps the body in the header, input and status bar.
func (m Model) frame(body string) string {
	parts := []string{m.header.View(), body}
	if chips := m.draftChips(); chips != "" {
		parts = append(parts, chips)
	}
	parts = append(parts, m.theme.InputContainer.Width(max(m.width-2, 10)).Render(m.input.View()))
	parts = append(parts, m.statusBar.View())
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// refresh re-renders the active conversation into the viewport and brings
// the header up to date.
func (m *Model) refresh() {
	conv, err := m.store.Active()
	if err != nil {
		m.viewport.SetContent(m.theme.Muted.Render("No chat selected. Press ctrl+n to start one."))
		return
	}

	m.header.Title = conv.Title
	m.header.ModelID = conv.Model
	m.header.Chats = m.store.Len()
	m.header.Composing = m.ctl.ComposingCount()

	width := max(m.viewport.Width-1, 20)
	blocks := make([]string, 0, len(conv.Messages)+2)
	for i, msg := range conv.Messages {
		bubble := components.NewMessageBubble(m.theme, msg, width)
		bubble.State = m.states[msg.ID]
		if m.focus == FocusBrowse && i == m.selected {
			bubble.Selected = true
			bubble.Focus = m.block
		}
		blocks = append(blocks, bubble.Render())
	}

	if m.ctl.Composing(conv.ID) {
		blocks = append(blocks, components.ComposingBubble(m.theme, m.spinner.View()))
	} else if m.showQuickPrompts() {
		blocks = append(blocks, components.NewQuickPrompts(m.theme, width).View())
	}

	m.viewport.SetContent(strings.Join(blocks, "\n\n"))
	if m.focus == FocusInput {
		m.viewport.GotoBottom()
	}
}

// draftChips lists pending attachments, numbered for /detach.
func (m Model) draftChips() string {
	atts := m.ctl.Draft().Attachments()
	if len(atts) == 0 {
		return ""
	}
	chips := make([]string, len(atts))
	for i, a := range atts {
		chips[i] = m.theme.Muted.Render(strconv.Itoa(i+1)+":") + components.AttachmentChip(m.theme, a)
	}
	line := util.TruncateWidth(strings.Join(chips, " "), max(m.width, 10))
	return line + "\n" + m.theme.Muted.Render("/detach <n> removes an attachment")
}

// =============================================================================
// OVERLAYS
// =============================================================================

func (m Model) chatListView() string {
	t := m.theme
	chats := m.sessions.Chats(m.search.Value())
	now := time.Now()

	lines := []string{t.HeaderTitle.Render("Chats"), m.search.View(), ""}
	if len(chats) == 0 {
		lines = append(lines, t.Muted.Render("No chats match."))
	}
	for i, c := range chats {
		marker := "  "
		if c.Active {
			marker = "* "
		}
		row := marker + util.TruncateWidth(c.Title, 32) + "  " +
			t.Muted.Render(strconv.Itoa(c.MessageCount)+" msgs, "+session.FormatRelative(c.UpdatedAt, now))
		if c.Preview != "" {
			row += "\n    " + t.Muted.Render(util.TruncateWidth(c.Preview, max(m.width-8, 10)))
		}
		if i == m.chatCursor {
			row = t.MenuItemActive.Render(row)
		} else {
			row = t.MenuItem.Render(row)
		}
		lines = append(lines, row)
	}
	lines = append(lines, "", t.Muted.Render("enter open · ctrl+d delete · esc close"))
	return m.overlay(strings.Join(lines, "\n"))
}

func (m Model) modelPickerView() string {
	t := m.theme
	lines := []string{t.HeaderTitle.Render("Models"), ""}
	for i, info := range model.Models {
		row := info.Name + "  " + t.Muted.Render(info.Description)
		if i == m.modelCursor {
			row = t.MenuItemActive.Render(row)
		} else {
			row = t.MenuItem.Render(row)
		}
		lines = append(lines, row)
	}
	lines = append(lines, "", t.Muted.Render("enter select · esc close"))
	return m.overlay(strings.Join(lines, "\n"))
}

func (m Model) helpView() string {
	t := m.theme
	body := t.HeaderTitle.Render("Keys") + "\n" + m.keys.HelpText() + "\n" +
		t.HeaderTitle.Render("Commands") + "\n" + slashHelp + "\n\n" +
		t.Muted.Render("press any key to close")
	return m.overlay(body)
}

// overlay boxes content and centers it in the viewport area.
func (m Model) overlay(content string) string {
	box := m.theme.Menu.Width(max(min(m.width-4, 80), 20)).Render(content)
	return lipgloss.Place(max(m.width, 1), m.viewport.Height, lipgloss.Center, lipgloss.Top, box)
}
