// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"errors"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	chatcore "github.com/jeranaias/rigrun-chat/internal/chat"
	"github.com/jeranaias/rigrun-chat/internal/config"
	"github.com/jeranaias/rigrun-chat/internal/errs"
	"github.com/jeranaias/rigrun-chat/internal/extract"
	"github.com/jeranaias/rigrun-chat/internal/model"
	"github.com/jeranaias/rigrun-chat/internal/render"
	"github.com/jeranaias/rigrun-chat/internal/ui/components"
	"github.com/jeranaias/rigrun-chat/internal/ui/styles"
)

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)

	case EventMsg:
		cmd := m.handleEvent(chatcore.Event(msg))
		m.refresh()
		return m, tea.Batch(cmd, waitForEvent(m.ctl.Events()))

	case eventsClosedMsg:
		return m, nil

	case spinner.TickMsg:
		if m.ctl.ComposingCount() == 0 {
			m.ticking = false
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.refresh()
		return m, cmd

	case clearCopiedMsg:
		if m.copiedSeq[msg.MessageID] == msg.Seq {
			st := m.states[msg.MessageID]
			st.Copied = ""
			m.states[msg.MessageID] = st
			delete(m.copiedSeq, msg.MessageID)
			m.refresh()
		}
		return m, nil

	case PreferencesMsg:
		if msg.Theme != "" && msg.Theme != m.theme.Mode {
			m.setTheme(styles.NewThemeWithProfile(msg.Theme, m.theme.ColorProfile))
			m.refresh()
		}
		return m, nil

	case attachDoneMsg:
		if msg.Err != nil {
			m.notify(components.NoticeError, "Attach failed: "+msg.Err.Error())
		} else {
			m.notify(components.NoticeSuccess, "Attached "+msg.Attachment.Name)
		}
		m.refresh()
		return m, nil

	case exportDoneMsg:
		if msg.Err != nil {
			m.notify(components.NoticeError, "Export failed: "+msg.Err.Error())
		} else {
			m.notify(components.NoticeSuccess, "Exported to "+msg.Path)
		}
		return m, nil
	}

	return m, nil
}

// =============================================================================
// RESIZE
// =============================================================================

// Layout: header (2) + viewport + draft chips (0-2) + input (5) + status (1).
const (
	headerHeight = 2
	inputHeight  = 5
	statusHeight = 1
)

func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.theme.SetSize(m.width, m.height)
	m.header.SetWidth(m.width)
	m.statusBar.SetWidth(m.width)
	m.input.SetWidth(max(m.width-6, 10))
	m.search.Width = max(m.width-12, 10)
	m.layout()
	m.refresh()
	return m, nil
}

// layout sizes the viewport to whatever the chrome leaves.
func (m *Model) layout() {
	reserved := headerHeight + inputHeight + statusHeight
	if len(m.ctl.Draft().Attachments()) > 0 {
		reserved += 2
	}
	m.viewport.Width = max(m.width, 1)
	m.viewport.Height = max(m.height-reserved, 1)
}

// =============================================================================
// EVENTS
// =============================================================================

func (m *Model) handleEvent(ev chatcore.Event) tea.Cmd {
	activeID := m.store.ActiveID()
	switch ev.Kind {
	case chatcore.EventReplyReady, chatcore.EventRegenerated:
		if ev.ConversationID != activeID {
			title := "another chat"
			if conv, err := m.store.Conversation(ev.ConversationID); err == nil {
				title = strconv.Quote(conv.Title)
			}
			m.notify(components.NoticeInfo, "Reply ready in "+title)
		}

	case chatcore.EventReplyFailed:
		m.notify(components.NoticeError, "Reply failed: "+errText(ev.Err))

	case chatcore.EventCopied:
		if ev.BlockID == "" {
			m.notify(components.NoticeSuccess, "Message copied")
			return nil
		}
		m.copySeq++
		st := m.states[ev.MessageID]
		st.Copied = ev.BlockID
		st.OpenMenu = ""
		m.states[ev.MessageID] = st
		m.copiedSeq[ev.MessageID] = m.copySeq
		m.notify(components.NoticeSuccess, "Copied to clipboard")
		return scheduleClearCopied(ev.MessageID, m.copySeq)

	case chatcore.EventCopyFailed:
		m.notify(components.NoticeError, "Copy failed: "+errText(ev.Err))

	case chatcore.EventPreviewReady:
		m.layout()
	}
	return nil
}

func errText(err error) string {
	if err == nil {
		return "unknown error"
	}
	return err.Error()
}

// =============================================================================
// KEYS
// =============================================================================

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		m.quitting = true
		return m, tea.Quit
	}

	switch m.focus {
	case FocusChats:
		return m.handleChatListKey(msg)
	case FocusModels:
		return m.handleModelKey(msg)
	case FocusHelp:
		m.focus = FocusInput
		m.refresh()
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.ToggleTheme):
		return m, m.toggleTheme()
	case key.Matches(msg, m.keys.NewChat):
		m.sessions.NewChat()
		m.resetSelection()
		m.notify(components.NoticeInfo, "New chat")
		m.refresh()
		return m, nil
	case key.Matches(msg, m.keys.ChatList):
		return m.openChatList()
	case key.Matches(msg, m.keys.ModelPicker):
		return m.openModelPicker()
	case key.Matches(msg, m.keys.Export):
		return m, m.exportActive("")
	case key.Matches(msg, m.keys.PageUp):
		m.viewport.HalfViewUp()
		return m, nil
	case key.Matches(msg, m.keys.PageDown):
		m.viewport.HalfViewDown()
		return m, nil
	}

	if m.focus == FocusBrowse {
		return m.handleBrowseKey(msg)
	}
	return m.handleInputKey(msg)
}

// ----------------------------------------------------------------------------
// Input focus
// ----------------------------------------------------------------------------

func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Submit):
		return m.submit()

	case key.Matches(msg, m.keys.Browse):
		return m.enterBrowse()

	case key.Matches(msg, m.keys.QuickPrompt):
		if !m.showQuickPrompts() {
			break
		}
		n, _ := strconv.Atoi(strings.TrimPrefix(msg.String(), "alt+"))
		prompt, ok := components.NewQuickPrompts(m.theme, m.width).Pick(n)
		if !ok {
			return m, nil
		}
		return m.send(prompt)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit sends the draft or runs a slash command.
func (m Model) submit() (tea.Model, tea.Cmd) {
	text := m.input.Value()
	if strings.HasPrefix(strings.TrimSpace(text), "/") {
		m.input.Reset()
		cmd := m.runCommand(strings.TrimSpace(text))
		m.layout()
		m.refresh()
		return m, cmd
	}
	return m.send(text)
}

func (m Model) send(text string) (tea.Model, tea.Cmd) {
	m.sessions.RecordActivity()
	m.ctl.Draft().SetText(text)
	_, err := m.ctl.SendDraft(m.store.ActiveID())
	if err != nil {
		if errors.Is(err, errs.ErrInvalidState) {
			m.notify(components.NoticeWarning, "Type a message or attach a file first")
		} else {
			m.notify(components.NoticeError, err.Error())
		}
		return m, nil
	}
	m.input.Reset()
	m.notify(components.NoticeInfo, "")
	m.layout()
	m.refresh()
	m.viewport.GotoBottom()
	return m, m.startSpinner()
}

// showQuickPrompts is true while the active chat only holds its greeting.
func (m Model) showQuickPrompts() bool {
	conv, err := m.store.Active()
	return err == nil && len(conv.Messages) <= 1 && !m.ctl.Composing(conv.ID)
}

// ----------------------------------------------------------------------------
// Browse focus
// ----------------------------------------------------------------------------

func (m Model) enterBrowse() (tea.Model, tea.Cmd) {
	conv, err := m.store.Active()
	if err != nil || len(conv.Messages) == 0 {
		return m, nil
	}
	m.focus = FocusBrowse
	m.input.Blur()
	m.selected = len(conv.Messages) - 1
	m.block = ""
	m.refresh()
	return m, nil
}

func (m Model) handleBrowseKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	conv, err := m.store.Active()
	if err != nil || len(conv.Messages) == 0 {
		return m.leaveBrowse()
	}
	m.selected = min(max(m.selected, 0), len(conv.Messages)-1)
	msgItem := conv.Messages[m.selected]
	st := m.states[msgItem.ID]

	switch {
	case key.Matches(msg, m.keys.Back):
		if st.OpenMenu != "" {
			st.OpenMenu = ""
			m.states[msgItem.ID] = st
			break
		}
		return m.leaveBrowse()

	case key.Matches(msg, m.keys.Up):
		m.closeMenu(msgItem.ID)
		m.selected = max(m.selected-1, 0)
		m.block = ""

	case key.Matches(msg, m.keys.Down):
		m.closeMenu(msgItem.ID)
		m.selected = min(m.selected+1, len(conv.Messages)-1)
		m.block = ""

	case key.Matches(msg, m.keys.NextBlock), key.Matches(msg, m.keys.PrevBlock):
		m.closeMenu(msgItem.ID)
		m.block = cycleBlock(m.actionable(msgItem), m.block, key.Matches(msg, m.keys.NextBlock))

	case key.Matches(msg, m.keys.CopyAs) && st.OpenMenu != "":
		n, _ := strconv.Atoi(msg.String())
		if n < 1 || n > len(extract.Formats) {
			break
		}
		blockID := st.OpenMenu
		st.OpenMenu = ""
		m.states[msgItem.ID] = st
		if err := m.ctl.CopyBlock(msgItem.ID, blockID, extract.Formats[n-1]); err != nil {
			m.notify(components.NoticeError, err.Error())
		}

	case key.Matches(msg, m.keys.Activate):
		m.activateBlock(msgItem)

	case key.Matches(msg, m.keys.CopyMsg):
		if err := m.ctl.CopyMessage(msgItem.ID); err != nil {
			m.notify(components.NoticeError, err.Error())
		}

	case key.Matches(msg, m.keys.RateUp), key.Matches(msg, m.keys.RateDown):
		if msgItem.Role != model.RoleAssistant {
			m.notify(components.NoticeWarning, "Only replies can be rated")
			break
		}
		choice := model.RatingUp
		if key.Matches(msg, m.keys.RateDown) {
			choice = model.RatingDown
		}
		if _, err := m.ctl.Rate(msgItem.ID, choice); err != nil {
			m.notify(components.NoticeError, err.Error())
		}

	case key.Matches(msg, m.keys.Regenerate):
		if err := m.ctl.Regenerate(conv.ID, m.selected); err != nil {
			m.notify(components.NoticeWarning, err.Error())
			break
		}
		m.refresh()
		return m, m.startSpinner()
	}

	m.refresh()
	return m, nil
}

func (m Model) leaveBrowse() (tea.Model, tea.Cmd) {
	m.resetSelection()
	m.refresh()
	return m, m.input.Focus()
}

func (m *Model) resetSelection() {
	for id, st := range m.states {
		if st.OpenMenu != "" {
			st.OpenMenu = ""
			m.states[id] = st
		}
	}
	m.focus = FocusInput
	m.block = ""
	m.selected = 0
}

func (m *Model) closeMenu(messageID string) {
	st := m.states[messageID]
	if st.OpenMenu != "" {
		st.OpenMenu = ""
		m.states[messageID] = st
	}
}

// activateBlock copies a code block or toggles a table's copy-as menu.
// Without a focused block the first actionable one is used.
func (m *Model) activateBlock(msg model.Message) {
	nodes := m.actionable(msg)
	if len(nodes) == 0 {
		m.notify(components.NoticeInfo, "Nothing to copy here; press y to copy the message")
		return
	}
	if m.block == "" {
		m.block = nodes[0].ID
	}
	tree := render.ProjectText(msg.Content, m.states[msg.ID])
	node := tree.Find(m.block)
	if node == nil {
		m.block = ""
		return
	}

	switch node.Kind {
	case render.KindTable:
		st := m.states[msg.ID]
		if st.OpenMenu == node.ID {
			st.OpenMenu = ""
		} else {
			st.OpenMenu = node.ID
		}
		m.states[msg.ID] = st
	default:
		if err := m.ctl.CopyBlock(msg.ID, node.ID, extract.FormatPlain); err != nil {
			m.notify(components.NoticeError, err.Error())
		}
	}
}

// actionable lists the copyable blocks of a message in document order.
func (m Model) actionable(msg model.Message) []*render.Node {
	if msg.Role != model.RoleAssistant {
		return nil
	}
	return render.ProjectText(msg.Content, m.states[msg.ID]).Actionable()
}

// cycleBlock moves the block focus forward or back, wrapping around.
func cycleBlock(nodes []*render.Node, current string, forward bool) string {
	if len(nodes) == 0 {
		return ""
	}
	idx := -1
	for i, n := range nodes {
		if n.ID == current {
			idx = i
		}
	}
	switch {
	case idx < 0 && forward:
		idx = 0
	case idx < 0:
		idx = len(nodes) - 1
	case forward:
		idx = (idx + 1) % len(nodes)
	default:
		idx = (idx - 1 + len(nodes)) % len(nodes)
	}
	return nodes[idx].ID
}

// =============================================================================
// THEME
// =============================================================================

// toggleTheme flips the theme and saves the choice in the background.
func (m *Model) toggleTheme() tea.Cmd {
	m.setTheme(m.theme.Toggle())
	m.refresh()
	m.notify(components.NoticeInfo, "Theme: "+string(m.theme.Mode))

	path := m.prefsPath
	if path == "" {
		return nil
	}
	prefs := config.Preferences{Theme: m.theme.Mode}
	logger := m.logger
	return func() tea.Msg {
		if err := config.SavePreferences(path, prefs); err != nil {
			logger.Warn("saving preferences failed", "path", path, "error", err)
		}
		return nil
	}
}
