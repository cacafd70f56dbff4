// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	tea "github.com/charmbracelet/bubbletea"

	chatcore "github.com/jeranaias/rigrun-chat/internal/chat"
	"github.com/jeranaias/rigrun-chat/internal/config"
	"github.com/jeranaias/rigrun-chat/internal/model"
)

// =============================================================================
// BUBBLE TEA MESSAGES
// =============================================================================

// EventMsg carries one controller event into the update loop.
type EventMsg chatcore.Event

// eventsClosedMsg means the controller shut down.
type eventsClosedMsg struct{}

// PreferencesMsg reports a change to the preferences file, typically from
// another running instance.
type PreferencesMsg config.Preferences

// clearCopiedMsg ends the copied feedback for one block. Seq ties it to
// the copy that scheduled it so a later copy is not cleared early.
type clearCopiedMsg struct {
	MessageID string
	Seq       int
}

// attachDoneMsg reports the result of reading and ingesting a file.
type attachDoneMsg struct {
	Attachment model.Attachment
	Err        error
}

// exportDoneMsg reports where an export landed.
type exportDoneMsg struct {
	Path string
	Err  error
}

// waitForEvent blocks on the controller's event stream.
func waitForEvent(events <-chan chatcore.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return eventsClosedMsg{}
		}
		return EventMsg(ev)
	}
}
