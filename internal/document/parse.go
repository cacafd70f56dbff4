// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package document

import (
	"strconv"
	"strings"
)

// =============================================================================
// BLOCK PARSER
// =============================================================================

// Parse builds a Document from markdown text. It never fails.
//
// Blocks are detected line by line before any inline parsing happens. Inside
// an open code fence no other construct is recognized; an unclosed fence
// runs to the end of the input.
func Parse(text string) Document {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	return Document{Nodes: parseBlocks(strings.Split(text, "\n"))}
}

func parseBlocks(lines []string) []Node {
	var nodes []Node
	var para []string

	flush := func() {
		if len(para) > 0 {
			nodes = append(nodes, newParagraph(para))
			para = nil
		}
	}

	for i := 0; i < len(lines); {
		line := lines[i]

		if isBlank(line) {
			flush()
			i++
			continue
		}

		if f, ok := openFence(line); ok {
			flush()
			var cb *CodeBlock
			cb, i = parseFence(lines, i, f)
			nodes = append(nodes, cb)
			continue
		}

		if level, text, ok := atxHeading(line); ok {
			flush()
			nodes = append(nodes, &Heading{Level: level, Inline: InlineRun{Spans: ParseInline(text)}})
			i++
			continue
		}

		if isThematicBreak(line) {
			flush()
			nodes = append(nodes, &Rule{})
			i++
			continue
		}

		if _, ok := quoteContent(line); ok {
			flush()
			var bq *Blockquote
			bq, i = parseQuote(lines, i)
			nodes = append(nodes, bq)
			continue
		}

		if i+1 < len(lines) {
			if t, next, ok := parseTable(lines, i); ok {
				flush()
				nodes = append(nodes, t)
				i = next
				continue
			}
		}

		if m, ok := listMarkerAt(line); ok && (len(para) == 0 || canInterruptParagraph(m)) {
			flush()
			var l *List
			l, i = parseList(lines, i, m)
			nodes = append(nodes, l)
			continue
		}

		para = append(para, line)
		i++
	}
	flush()

	return nodes
}

func newParagraph(lines []string) *Paragraph {
	trimmed := make([]string, len(lines))
	for i, l := range lines {
		trimmed[i] = strings.TrimSpace(l)
	}
	return &Paragraph{Inline: InlineRun{Spans: ParseInline(strings.Join(trimmed, "\n"))}}
}

// startsBlock reports whether line opens a block that ends a lazy
// paragraph continuation.
func startsBlock(line string) bool {
	if _, ok := openFence(line); ok {
		return true
	}
	if _, _, ok := atxHeading(line); ok {
		return true
	}
	if isThematicBreak(line) {
		return true
	}
	if _, ok := quoteContent(line); ok {
		return true
	}
	_, ok := listMarkerAt(line)
	return ok
}

// =============================================================================
// LINE HELPERS
// =============================================================================

func isBlank(line string) bool {
	return strings.TrimSpace(line) == ""
}

// indentWidth returns the column of the first non-space character.
// Tabs advance to the next multiple of four.
func indentWidth(line string) int {
	col := 0
	for _, r := range line {
		switch r {
		case ' ':
			col++
		case '\t':
			col += 4 - col%4
		default:
			return col
		}
	}
	return col
}

// stripIndent removes up to n columns of leading whitespace.
func stripIndent(line string, n int) string {
	col := 0
	for i, r := range line {
		if col >= n {
			return line[i:]
		}
		switch r {
		case ' ':
			col++
		case '\t':
			col += 4 - col%4
			if col > n {
				return strings.Repeat(" ", col-n) + line[i+1:]
			}
		default:
			return line[i:]
		}
	}
	return ""
}

// =============================================================================
// CODE FENCES
// =============================================================================

type fence struct {
	char   byte
	length int
	indent int
	info   string
}

func openFence(line string) (fence, bool) {
	indent := indentWidth(line)
	if indent > 3 {
		return fence{}, false
	}
	rest := strings.TrimLeft(line, " \t")
	if len(rest) < 3 || (rest[0] != '`' && rest[0] != '~') {
		return fence{}, false
	}
	ch := rest[0]
	n := 0
	for n < len(rest) && rest[n] == ch {
		n++
	}
	if n < 3 {
		return fence{}, false
	}
	info := strings.TrimSpace(rest[n:])
	if ch == '`' && strings.ContainsRune(info, '`') {
		return fence{}, false
	}
	return fence{char: ch, length: n, indent: indent, info: info}, true
}

func closesFence(line string, f fence) bool {
	if indentWidth(line) > 3 {
		return false
	}
	rest := strings.TrimSpace(line)
	if len(rest) < f.length {
		return false
	}
	for i := 0; i < len(rest); i++ {
		if rest[i] != f.char {
			return false
		}
	}
	return true
}

// parseFence consumes a fenced block starting at lines[start] and returns
// the node and the index of the first line after it.
func parseFence(lines []string, start int, f fence) (*CodeBlock, int) {
	var body []string
	i := start + 1
	for ; i < len(lines); i++ {
		if closesFence(lines[i], f) {
			i++
			break
		}
		body = append(body, stripIndent(lines[i], f.indent))
	}

	lang := f.info
	if idx := strings.IndexAny(lang, " \t{"); idx >= 0 {
		lang = lang[:idx]
	}

	return &CodeBlock{Language: lang, Literal: strings.Join(body, "\n")}, i
}

// =============================================================================
// HEADINGS AND RULES
// =============================================================================

func atxHeading(line string) (int, string, bool) {
	if indentWidth(line) > 3 {
		return 0, "", false
	}
	rest := strings.TrimLeft(line, " \t")
	level := 0
	for level < len(rest) && rest[level] == '#' {
		level++
	}
	if level == 0 || level > 6 {
		return 0, "", false
	}
	rest = rest[level:]
	if rest != "" && rest[0] != ' ' && rest[0] != '\t' {
		return 0, "", false
	}
	text := strings.TrimSpace(rest)

	// Optional closing sequence: " ##".
	trimmed := strings.TrimRight(text, "#")
	if trimmed == "" {
		text = ""
	} else if len(trimmed) < len(text) && strings.HasSuffix(trimmed, " ") {
		text = strings.TrimSpace(trimmed)
	}

	return level, text, true
}

func isThematicBreak(line string) bool {
	if indentWidth(line) > 3 {
		return false
	}
	var ch rune
	count := 0
	for _, r := range line {
		switch {
		case r == ' ' || r == '\t':
		case ch == 0 && (r == '-' || r == '*' || r == '_'):
			ch = r
			count++
		case r == ch:
			count++
		default:
			return false
		}
	}
	return count >= 3
}

// =============================================================================
// BLOCKQUOTES
// =============================================================================

// quoteContent strips a '>' marker and one following space.
func quoteContent(line string) (string, bool) {
	if indentWidth(line) > 3 {
		return "", false
	}
	rest := strings.TrimLeft(line, " \t")
	if !strings.HasPrefix(rest, ">") {
		return "", false
	}
	rest = rest[1:]
	if strings.HasPrefix(rest, " ") {
		rest = rest[1:]
	}
	return rest, true
}

// parseQuote collects consecutive '>' lines and parses their contents.
func parseQuote(lines []string, start int) (*Blockquote, int) {
	var body []string
	i := start
	for ; i < len(lines); i++ {
		content, ok := quoteContent(lines[i])
		if !ok {
			break
		}
		body = append(body, content)
	}
	return &Blockquote{Children: parseBlocks(body)}, i
}

// =============================================================================
// LISTS
// =============================================================================

type listMarker struct {
	ordered bool
	delim   byte // bullet character, or '.' / ')' for ordered lists
	start   int
	indent  int // content column relative to the line start
	content string
}

func listMarkerAt(line string) (listMarker, bool) {
	lead := indentWidth(line)
	if lead > 3 {
		return listMarker{}, false
	}
	rest := strings.TrimLeft(line, " \t")
	if rest == "" {
		return listMarker{}, false
	}

	var m listMarker
	width := 0
	switch rest[0] {
	case '-', '*', '+':
		m.delim = rest[0]
		width = 1
	default:
		n := 0
		for n < len(rest) && n < 9 && rest[n] >= '0' && rest[n] <= '9' {
			n++
		}
		if n == 0 || n >= len(rest) || (rest[n] != '.' && rest[n] != ')') {
			return listMarker{}, false
		}
		m.ordered = true
		m.delim = rest[n]
		m.start, _ = strconv.Atoi(rest[:n])
		width = n + 1
	}

	after := rest[width:]
	if after != "" && after[0] != ' ' && after[0] != '\t' {
		return listMarker{}, false
	}

	spaces := indentWidth(after)
	switch {
	case strings.TrimSpace(after) == "":
		spaces = 1
	case spaces > 4:
		// Content starting deep is indented code in CommonMark; keep it as text.
		spaces = 1
	}
	m.indent = lead + width + spaces
	m.content = stripIndent(after, spaces)
	return m, true
}

// canInterruptParagraph reports whether a list may start directly after a
// paragraph line. Ordered lists must start at 1 and empty items never do.
func canInterruptParagraph(m listMarker) bool {
	if strings.TrimSpace(m.content) == "" {
		return false
	}
	return !m.ordered || m.start == 1
}

func sameListType(a, b listMarker) bool {
	return a.ordered == b.ordered && a.delim == b.delim
}

// parseList consumes items of the same list type starting at lines[start].
func parseList(lines []string, start int, first listMarker) (*List, int) {
	list := &List{Ordered: first.ordered, Start: first.start}

	i := start
	for i < len(lines) {
		m, ok := listMarkerAt(lines[i])
		if !ok || !sameListType(m, first) {
			break
		}

		body := []string{m.content}
		i++
		for i < len(lines) {
			line := lines[i]
			if isBlank(line) {
				body = append(body, "")
				i++
				continue
			}
			if indentWidth(line) >= m.indent {
				body = append(body, stripIndent(line, m.indent))
				i++
				continue
			}
			// Lazy continuation of the item's last paragraph.
			if body[len(body)-1] != "" && !startsBlock(line) {
				body = append(body, strings.TrimLeft(line, " \t"))
				i++
				continue
			}
			break
		}

		for len(body) > 0 && body[len(body)-1] == "" {
			body = body[:len(body)-1]
		}
		list.Items = append(list.Items, ListItem{Children: parseBlocks(body)})
	}

	return list, i
}
