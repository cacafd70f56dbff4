// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package components renders chat content for the terminal.

Assistant messages are drawn from their presentation tree (package render),
never from raw Markdown, so what the user sees and what a copy action
extracts come from the same document node.

# Key Types

  - DocumentView: lays out a render.Tree in a fixed width
  - CodeBlock: chroma-highlighted code with a language badge and copy action
  - Table: aligned table with a copy-as menu of extract formats
  - MessageBubble: one message with attachments and rating controls
  - Header, StatusBar, QuickPrompts: screen chrome

All components take a *styles.Theme. With the termenv Ascii profile they
produce plain text, which is what the tests compare against.

# Usage

	bubble := components.NewMessageBubble(theme, msg, width)
	bubble.State = render.State{Copied: "1"}
	view := bubble.Render()
*/
package components
