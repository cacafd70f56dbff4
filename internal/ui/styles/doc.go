// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package styles provides the visual styling for the chat front-ends.
//
// Colors come in two concrete palettes, light and dark, selected by the
// persisted theme preference rather than detected from the terminal.
// Styles are built on a lipgloss renderer pinned to the terminal's color
// profile, so a plain pipe gets no escape codes.
//
// # Key Types
//
//   - Palette: the colors of one mode
//   - Theme: lipgloss styles for headers, bubbles, document blocks and input
//   - SpinnerConfig: frames for the composing indicator
//
// # Usage
//
//	theme := styles.NewTheme(prefs.Theme)
//	fmt.Println(theme.RenderError("clipboard unavailable"))
//	theme = theme.Toggle()
package styles
