// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/rigrun-chat/internal/model"
	"github.com/jeranaias/rigrun-chat/internal/ui/styles"
	"github.com/jeranaias/rigrun-chat/internal/util"
)

// =============================================================================
// HEADER COMPONENT - Title bar with the active chat and model
// =============================================================================

// Header is the title bar: app name and chat title on the left, model and
// chat count on the right.
type Header struct {
	Title     string
	ModelID   string
	Chats     int
	Composing int
	Width     int
	theme     *styles.Theme
}

// NewHeader creates a Header component with default values.
func NewHeader(theme *styles.Theme) *Header {
	return &Header{Width: 80, theme: theme}
}

// SetTheme swaps the theme after a toggle.
func (h *Header) SetTheme(theme *styles.Theme) {
	h.theme = theme
}

// SetWidth updates the header width.
func (h *Header) SetWidth(width int) {
	h.Width = width
}

// View renders the header.
func (h *Header) View() string {
	t := h.theme

	right := []string{t.HeaderMeta.Render(modelLabel(h.ModelID))}
	if h.Chats > 1 {
		right = append(right, t.HeaderMeta.Render(strconv.Itoa(h.Chats)+" chats"))
	}
	if h.Composing > 0 {
		right = append(right, t.Composing.Render("typing"))
	}
	rightText := strings.Join(right, t.HeaderMeta.Render(" · "))

	// Border and padding take four columns.
	inner := max(h.Width-4, minContentWidth)
	titleWidth := max(inner-lipgloss.Width(rightText)-len("rigrun chat  "), 0)
	left := t.HeaderTitle.Render("rigrun chat")
	if title := util.TruncateWidth(util.SingleLine(h.Title), titleWidth); title != "" {
		left += "  " + t.HeaderMeta.Render(title)
	}

	gap := max(inner-lipgloss.Width(left)-lipgloss.Width(rightText), 1)
	return t.Header.Width(max(h.Width-2, 0)).Render(left + strings.Repeat(" ", gap) + rightText)
}

func modelLabel(id string) string {
	if info, ok := model.GetModelInfo(id); ok {
		return info.Name
	}
	if id == "" {
		return "no model"
	}
	return id
}
