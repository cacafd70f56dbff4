// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/jeranaias/rigrun-chat/internal/document"
	"github.com/jeranaias/rigrun-chat/internal/render"
	"github.com/jeranaias/rigrun-chat/internal/ui/styles"
)

// =============================================================================
// DOCUMENT VIEW - Presentation tree to terminal text
// =============================================================================

// DocumentView lays out a presentation tree in a fixed number of columns.
// Focus names the actionable node the keyboard cursor is on, if any.
type DocumentView struct {
	Theme *styles.Theme
	Width int
	Focus string
}

// NewDocumentView creates a document view.
func NewDocumentView(theme *styles.Theme, width int) DocumentView {
	return DocumentView{Theme: theme, Width: width}
}

// Render lays out every top-level block, separated by blank lines.
func (v DocumentView) Render(tree render.Tree) string {
	return strings.Join(v.blocks(tree.Nodes, v.Width), "\n")
}

func (v DocumentView) blocks(nodes []*render.Node, width int) []string {
	return v.stack(nodes, width, true)
}

// stack lays out sibling blocks. List items are tight: no blank lines
// between a paragraph and a nested list.
func (v DocumentView) stack(nodes []*render.Node, width int, spaced bool) []string {
	var out []string
	for i, n := range nodes {
		if i > 0 && spaced {
			out = append(out, "")
		}
		out = append(out, v.block(n, width)...)
	}
	return out
}

func (v DocumentView) block(n *render.Node, width int) []string {
	t := v.Theme
	width = max(width, minContentWidth)

	switch n.Kind {
	case render.KindParagraph:
		return v.inline(n, width, t.Plain)

	case render.KindHeading:
		level := min(max(n.Level, 1), len(t.Heading))
		return v.inline(n, width, t.Heading[level-1])

	case render.KindList:
		return v.list(n, width)

	case render.KindBlockquote:
		bar := t.QuoteBar.Render("│ ")
		return prefixLines(v.blocks(n.Children, width-2), bar, bar)

	case render.KindCode:
		cb := NewCodeBlock(t, n, width)
		cb.Focused = n.ID == v.Focus
		return strings.Split(cb.Render(), "\n")

	case render.KindTable:
		tb := NewTable(t, n, width)
		tb.Focused = n.ID == v.Focus
		return strings.Split(tb.Render(), "\n")

	case render.KindRule:
		return []string{t.Rule.Render(strings.Repeat("─", width))}

	case render.KindInline:
		return layoutWords(spanWords(n.Spans, v.spanStyle(t.Plain)), width)

	default:
		return nil
	}
}

// inline lays out the single inline child of a paragraph or heading.
func (v DocumentView) inline(n *render.Node, width int, base lipgloss.Style) []string {
	var spans []document.Span
	for _, c := range n.Children {
		spans = append(spans, c.Spans...)
	}
	return layoutWords(spanWords(spans, v.spanStyle(base)), width)
}

func (v DocumentView) list(n *render.Node, width int) []string {
	t := v.Theme
	markers := make([]string, len(n.Children))
	markerWidth := 2
	for i := range n.Children {
		if n.Ordered {
			markers[i] = strconv.Itoa(n.Start+i) + ". "
		} else {
			markers[i] = "• "
		}
		markerWidth = max(markerWidth, lipgloss.Width(markers[i]))
	}

	var out []string
	for i, item := range n.Children {
		marker := t.Bullet.Render(markers[i] + strings.Repeat(" ", markerWidth-lipgloss.Width(markers[i])))
		body := v.stack(item.Children, width-markerWidth, false)
		if len(body) == 0 {
			body = []string{""}
		}
		out = append(out, prefixLines(body, marker, strings.Repeat(" ", markerWidth))...)
	}
	return out
}

// spanStyle picks the style for an inline span on top of a block style.
func (v DocumentView) spanStyle(base lipgloss.Style) func(document.Span) lipgloss.Style {
	t := v.Theme
	return func(sp document.Span) lipgloss.Style {
		switch sp.Kind {
		case document.SpanBold:
			return base.Inherit(t.Bold)
		case document.SpanItalic:
			return base.Inherit(t.Italic)
		case document.SpanCode:
			return base.Inherit(t.InlineCode)
		case document.SpanLink:
			return base.Inherit(t.Link)
		default:
			return base
		}
	}
}
