// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"

	"github.com/jeranaias/rigrun-chat/internal/config"
	"github.com/jeranaias/rigrun-chat/internal/export"
	"github.com/jeranaias/rigrun-chat/internal/model"
	"github.com/jeranaias/rigrun-chat/internal/ui/styles"
)

// renderTranscript formats a conversation as Markdown and renders it with
// glamour in the theme's style.
func renderTranscript(conv *model.Conversation, theme *styles.Theme, width int) (string, error) {
	md, err := export.NewMarkdownExporter(&export.Options{
		IncludeTimestamps: true,
		Theme:             string(theme.Mode),
	}).Export(conv)
	if err != nil {
		return "", err
	}

	renderer, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(glamourStyle(theme)),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("create markdown renderer: %w", err)
	}
	out, err := renderer.Render(string(md))
	if err != nil {
		return "", fmt.Errorf("render transcript: %w", err)
	}
	return strings.TrimRight(out, "\n"), nil
}

// glamourStyle picks the built-in glamour style matching the theme.
func glamourStyle(theme *styles.Theme) string {
	switch {
	case theme.ColorProfile == termenv.Ascii:
		return "notty"
	case theme.Mode == config.ThemeDark:
		return "dark"
	default:
		return "light"
	}
}
