// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/rigrun-chat/internal/model"
	"github.com/jeranaias/rigrun-chat/internal/ui/styles"
)

// =============================================================================
// QUICK PROMPTS - Starters shown on a fresh conversation
// =============================================================================

// QuickPrompts lists the canned starters, numbered for alt+digit selection.
type QuickPrompts struct {
	Prompts []model.QuickPrompt
	Width   int
	theme   *styles.Theme
}

// NewQuickPrompts creates the starter list from the model catalog.
func NewQuickPrompts(theme *styles.Theme, width int) QuickPrompts {
	return QuickPrompts{Prompts: model.QuickPrompts, Width: width, theme: theme}
}

// View renders the prompts as cards, two per row when they fit.
func (q QuickPrompts) View() string {
	t := q.theme
	if len(q.Prompts) == 0 {
		return ""
	}

	cardWidth := max((q.Width-2)/2-2, minContentWidth)
	cards := make([]string, len(q.Prompts))
	for i, p := range q.Prompts {
		title := t.ShortcutKey.Render("alt+"+strconv.Itoa(i+1)) + " " + t.HeaderTitle.Render(p.Label)
		body := t.Muted.Render(p.Prompt)
		cards[i] = t.QuickPrompt.Width(cardWidth).Render(title + "\n" + body)
	}

	perRow := 2
	if q.Width < 2*(cardWidth+2) {
		perRow = 1
	}
	var rows []string
	for i := 0; i < len(cards); i += perRow {
		end := min(i+perRow, len(cards))
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards[i:end]...))
	}

	heading := t.Muted.Render("Try one of these to get started:")
	return lipgloss.JoinVertical(lipgloss.Left, append([]string{heading}, rows...)...)
}

// Pick returns the prompt text for a 1-based choice.
func (q QuickPrompts) Pick(n int) (string, bool) {
	if n < 1 || n > len(q.Prompts) {
		return "", false
	}
	return q.Prompts[n-1].Prompt, true
}
