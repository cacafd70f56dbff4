// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/jeranaias/rigrun-chat/internal/config"
	"github.com/jeranaias/rigrun-chat/internal/export"
	"github.com/jeranaias/rigrun-chat/internal/model"
	"github.com/jeranaias/rigrun-chat/internal/ui/components"
)

// =============================================================================
// SLASH COMMANDS
// =============================================================================

// slashHelp lists the commands accepted in the input box.
const slashHelp = `  /attach <path>     attach a file to the next message
  /detach <n>        remove pending attachment n
  /rename <title>    rename this chat
  /delete            delete this chat
  /clear             clear this chat
  /model [name]      show or set the model
  /export [format]   export this chat (markdown, json, html)
  /theme             toggle light and dark
  /new               start a new chat
  /chats             open the chat list
  /help              show keys and commands`

// runCommand executes a slash command typed into the input box.
func (m *Model) runCommand(line string) tea.Cmd {
	name, arg, _ := strings.Cut(strings.TrimPrefix(line, "/"), " ")
	arg = strings.TrimSpace(arg)
	convID := m.store.ActiveID()

	switch strings.ToLower(name) {
	case "attach":
		if arg == "" {
			m.notify(components.NoticeWarning, "Usage: /attach <path>")
			return nil
		}
		ctl := m.ctl
		return func() tea.Msg {
			att, err := ctl.AttachFile(arg)
			return attachDoneMsg{Attachment: att, Err: err}
		}

	case "detach":
		atts := m.ctl.Draft().Attachments()
		n, err := strconv.Atoi(arg)
		if err != nil || n < 1 || n > len(atts) {
			m.notify(components.NoticeWarning, "Usage: /detach <n> with n from 1 to "+strconv.Itoa(len(atts)))
			return nil
		}
		m.ctl.RemoveAttachment(atts[n-1].ID)
		m.notify(components.NoticeInfo, "Removed "+atts[n-1].Name)

	case "rename":
		if err := m.sessions.Rename(convID, arg); err != nil {
			m.notify(components.NoticeError, err.Error())
			return nil
		}
		m.notify(components.NoticeSuccess, "Renamed")

	case "delete":
		if err := m.sessions.Delete(convID); err != nil {
			m.notify(components.NoticeError, err.Error())
			return nil
		}
		m.resetSelection()
		m.notify(components.NoticeInfo, "Chat deleted")

	case "clear":
		if err := m.store.ClearConversation(convID); err != nil {
			m.notify(components.NoticeError, err.Error())
			return nil
		}
		m.notify(components.NoticeInfo, "Chat cleared")

	case "model":
		if arg == "" {
			return m.openModelPickerCmd()
		}
		info, ok := model.GetModelInfo(arg)
		if !ok {
			m.notify(components.NoticeWarning, "Unknown model "+strconv.Quote(arg))
			return nil
		}
		if err := m.store.SetModel(convID, info.ID); err != nil {
			m.notify(components.NoticeError, err.Error())
			return nil
		}
		m.notify(components.NoticeSuccess, "Model: "+info.Name)

	case "export":
		return m.exportActive(arg)

	case "theme":
		return m.toggleTheme()

	case "new":
		m.sessions.NewChat()
		m.resetSelection()

	case "chats":
		m.focus = FocusChats
		m.chatCursor = 0
		m.input.Blur()
		return m.search.Focus()

	case "help", "?":
		m.focus = FocusHelp

	default:
		m.notify(components.NoticeWarning, "Unknown command /"+name+" (try /help)")
	}
	return nil
}

// =============================================================================
// EXPORT
// =============================================================================

// exportActive writes the active chat in the background. An empty format
// uses the configured default.
func (m *Model) exportActive(formatName string) tea.Cmd {
	if formatName == "" {
		formatName = m.cfg.Export.Format
	}
	format, err := export.ParseFormat(formatName)
	if err != nil {
		m.notify(components.NoticeWarning, err.Error())
		return nil
	}
	conv, err := m.store.Active()
	if err != nil {
		m.notify(components.NoticeError, err.Error())
		return nil
	}
	opts := export.OptionsFromConfig(m.cfg.Export, m.theme.Mode)
	exporter, err := export.New(format, opts)
	if err != nil {
		m.notify(components.NoticeError, err.Error())
		return nil
	}
	m.notify(components.NoticeInfo, "Exporting...")
	return func() tea.Msg {
		path, err := export.ToFile(conv, exporter, opts)
		return exportDoneMsg{Path: path, Err: err}
	}
}

// =============================================================================
// CHAT LIST OVERLAY
// =============================================================================

func (m Model) openChatList() (tea.Model, tea.Cmd) {
	m.focus = FocusChats
	m.chatCursor = 0
	m.search.Reset()
	m.input.Blur()
	m.refresh()
	return m, m.search.Focus()
}

func (m Model) handleChatListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	chats := m.sessions.Chats(m.search.Value())

	switch msg.String() {
	case "esc":
		return m.closeOverlay()
	case "up":
		m.chatCursor = max(m.chatCursor-1, 0)
		return m, nil
	case "down":
		m.chatCursor = min(m.chatCursor+1, max(len(chats)-1, 0))
		return m, nil
	case "enter":
		if m.chatCursor < len(chats) {
			if err := m.sessions.Switch(chats[m.chatCursor].ID); err != nil {
				m.notify(components.NoticeError, err.Error())
			}
		}
		m.resetSelection()
		return m.closeOverlay()
	case "ctrl+d":
		if m.chatCursor < len(chats) {
			if err := m.sessions.Delete(chats[m.chatCursor].ID); err != nil {
				m.notify(components.NoticeWarning, err.Error())
			}
			m.chatCursor = max(min(m.chatCursor, len(chats)-2), 0)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	m.chatCursor = 0
	return m, cmd
}

// =============================================================================
// MODEL PICKER OVERLAY
// =============================================================================

func (m Model) openModelPicker() (tea.Model, tea.Cmd) {
	cmd := m.openModelPickerCmd()
	m.refresh()
	return m, cmd
}

func (m *Model) openModelPickerCmd() tea.Cmd {
	m.focus = FocusModels
	m.modelCursor = 0
	if conv, err := m.store.Active(); err == nil {
		for i, info := range model.Models {
			if info.ID == conv.Model {
				m.modelCursor = i
			}
		}
	}
	m.input.Blur()
	return nil
}

func (m Model) handleModelKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.String() == "esc":
		return m.closeOverlay()
	case key.Matches(msg, m.keys.Up):
		m.modelCursor = max(m.modelCursor-1, 0)
	case key.Matches(msg, m.keys.Down):
		m.modelCursor = min(m.modelCursor+1, len(model.Models)-1)
	case msg.String() == "enter":
		info := model.Models[m.modelCursor]
		if err := m.store.SetModel(m.store.ActiveID(), info.ID); err != nil {
			m.notify(components.NoticeError, err.Error())
		} else {
			m.notify(components.NoticeSuccess, "Model: "+info.Name)
		}
		return m.closeOverlay()
	}
	return m, nil
}

func (m Model) closeOverlay() (tea.Model, tea.Cmd) {
	m.focus = FocusInput
	m.search.Blur()
	m.refresh()
	return m, m.input.Focus()
}

// themeFor is the theme mode named in config, falling back to light.
func themeFor(cfg *config.Config) config.Theme {
	mode, err := config.ParseTheme(cfg.UI.Theme)
	if err != nil {
		return config.ThemeLight
	}
	return mode
}
