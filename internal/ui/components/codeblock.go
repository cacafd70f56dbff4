// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"strconv"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromaStyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/termenv"

	"github.com/jeranaias/rigrun-chat/internal/render"
	"github.com/jeranaias/rigrun-chat/internal/ui/styles"
)

// =============================================================================
// CODE BLOCK RENDERER
// =============================================================================

// Action labels shown next to copyable blocks.
const (
	CopyLabel   = "[copy]"
	CopiedLabel = "Copied"
	CopyAsLabel = "[copy as]"
)

// CodeBlock renders a projected code node: a header with the language and
// the copy action, then the highlighted, line-numbered source.
type CodeBlock struct {
	Node     *render.Node
	Theme    *styles.Theme
	Width    int
	Focused  bool
	Numbered bool
}

// NewCodeBlock creates a code block renderer for node.
func NewCodeBlock(theme *styles.Theme, node *render.Node, width int) CodeBlock {
	return CodeBlock{Node: node, Theme: theme, Width: width, Numbered: true}
}

// Render returns the code block as terminal lines joined with newlines.
func (c CodeBlock) Render() string {
	t := c.Theme
	code := strings.TrimRight(c.Node.Code, "\n")

	header := c.header()

	highlighted := highlightCode(code, c.Node.Language, t.Palette.ChromaStyle, t.ColorProfile)
	lines := strings.Split(highlighted, "\n")
	gutter := len(strconv.Itoa(len(lines)))
	body := make([]string, len(lines))
	for i, line := range lines {
		if c.Numbered {
			num := t.CodeLineNum.Render(runewidth.FillLeft(strconv.Itoa(i+1), gutter))
			body[i] = num + " " + line
		} else {
			body[i] = line
		}
	}

	block := t.CodeBlock.Render(strings.Join(body, "\n"))
	return header + "\n" + block
}

func (c CodeBlock) header() string {
	t := c.Theme
	lang := c.Node.Language
	if lang == "" {
		lang = "text"
	}
	badge := t.CodeLangBadge.Render(lang)
	action := actionLabel(t, c.Node, CopyLabel, c.Focused)

	gap := max(c.Width-lipgloss.Width(badge)-lipgloss.Width(action), 1)
	return badge + strings.Repeat(" ", gap) + action
}

// actionLabel shows "Copied" while the copied flag is set, otherwise idle.
func actionLabel(t *styles.Theme, n *render.Node, idle string, focused bool) string {
	for _, a := range n.Actions {
		if a.Copied {
			return t.ActionCopied.Render(CopiedLabel)
		}
	}
	if focused {
		return t.MenuItemActive.Render(idle)
	}
	return t.Action.Render(idle)
}

// =============================================================================
// SYNTAX HIGHLIGHTING (Chroma-based)
// =============================================================================

// highlightCode applies syntax highlighting with the chroma style named by
// the theme. The Ascii profile gets the code back untouched.
func highlightCode(code, language, styleName string, profile termenv.Profile) string {
	formatterName := formatterFor(profile)
	if formatterName == "" {
		return code
	}

	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	style := chromaStyles.Get(styleName)
	if style == nil {
		style = chromaStyles.Fallback
	}

	formatter := formatters.Get(formatterName)
	if formatter == nil {
		formatter = formatters.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return code
	}

	var buf strings.Builder
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return code
	}
	return strings.TrimRight(buf.String(), "\n")
}

// formatterFor maps a terminal color profile to a chroma formatter name.
func formatterFor(profile termenv.Profile) string {
	switch profile {
	case termenv.TrueColor:
		return "terminal16m"
	case termenv.ANSI256:
		return "terminal256"
	case termenv.ANSI:
		return "terminal16"
	default:
		return ""
	}
}
