// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/rigrun-chat/internal/document"
)

// =============================================================================
// SHARED HELPER FUNCTIONS
// =============================================================================

// minContentWidth is the narrowest column any block is laid out in.
const minContentWidth = 10

// word is one unbreakable run of styled text. Glued words follow the
// previous word with no space, as when bold text ends mid-word.
type word struct {
	text  string
	width int
	glued bool
}

// spanWords splits inline spans into styled words, remembering where the
// source had whitespace.
func spanWords(spans []document.Span, styleFor func(document.Span) lipgloss.Style) []word {
	var words []word
	spaceBefore := true
	for _, sp := range spans {
		text := sp.Text
		if text == "" {
			continue
		}
		if sp.Kind == document.SpanLink && sp.Href != "" && sp.Href != sp.Text {
			text += " (" + sp.Href + ")"
		}
		style := styleFor(sp)

		start := -1
		for i, r := range text + " " {
			if r == ' ' || r == '\t' || r == '\n' {
				if start >= 0 {
					raw := text[start:i]
					words = append(words, word{
						text:  style.Render(raw),
						width: runewidth.StringWidth(raw),
						glued: !spaceBefore && len(words) > 0,
					})
					start = -1
				}
				spaceBefore = true
				continue
			}
			if start < 0 {
				start = i
			}
		}
		// The appended sentinel space must not leak into the next span.
		last := text[len(text)-1]
		spaceBefore = last == ' ' || last == '\t' || last == '\n'
	}
	return words
}

// layoutWords fills lines of at most width columns. A single word wider
// than the line gets a line of its own.
func layoutWords(words []word, width int) []string {
	width = max(width, minContentWidth)
	var lines []string
	var line strings.Builder
	used := 0
	for _, w := range words {
		switch {
		case used == 0:
		case w.glued:
		case used+1+w.width <= width:
			line.WriteByte(' ')
			used++
		default:
			lines = append(lines, line.String())
			line.Reset()
			used = 0
		}
		line.WriteString(w.text)
		used += w.width
	}
	if used > 0 || len(lines) == 0 {
		lines = append(lines, line.String())
	}
	return lines
}

// wrapPlain wraps unstyled text to width, keeping explicit newlines.
func wrapPlain(text string, width int) []string {
	var out []string
	for _, para := range strings.Split(text, "\n") {
		words := make([]word, 0, 8)
		for _, f := range strings.Fields(para) {
			words = append(words, word{text: f, width: runewidth.StringWidth(f)})
		}
		out = append(out, layoutWords(words, width)...)
	}
	return out
}

// prefixLines puts first before the first line and rest before the others.
func prefixLines(lines []string, first, rest string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		if i == 0 {
			out[i] = first + l
		} else {
			out[i] = rest + l
		}
	}
	return out
}

// alignCell pads s to width according to a column alignment.
func alignCell(s string, width int, align document.Align) string {
	switch align {
	case document.AlignRight:
		return runewidth.FillLeft(s, width)
	case document.AlignCenter:
		gap := width - runewidth.StringWidth(s)
		if gap <= 0 {
			return s
		}
		return strings.Repeat(" ", gap/2) + s + strings.Repeat(" ", gap-gap/2)
	default:
		return runewidth.FillRight(s, width)
	}
}
