// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package chat is the Bubble Tea screen for rigrun chat.

The screen keeps no conversation data of its own. Messages, ratings and
attachments live in the store behind the controller; the model holds only
presentation state: which message is selected, which block has focus,
which copy-as menu is open and which block shows "Copied".

# Key Types

  - Model: the tea.Model for the whole screen
  - Options: controller, session manager, config and theme wiring
  - KeyMap: bindings for input focus and browse focus
  - EventMsg / PreferencesMsg: messages fed in from outside the loop

# Focus

Input focus sends messages and runs slash commands. Esc switches to browse
focus, where up/down selects a message, tab cycles its code blocks and
tables, enter copies a block or opens a table's copy-as menu, y copies the
whole message, + and - rate it and r regenerates it.

# Usage

	m, err := chat.New(chat.Options{Controller: ctl, Sessions: sessions, Config: cfg})
	if err != nil {
		return err
	}
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
*/
package chat
