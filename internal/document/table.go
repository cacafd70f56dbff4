// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package document

import (
	"strings"
)

// =============================================================================
// PIPE TABLES
// =============================================================================

// parseTable recognizes a header row followed by a delimiter row with the
// same number of cells. Body rows continue until a blank line, a line
// without a pipe, or the start of another block.
func parseTable(lines []string, start int) (*Table, int, bool) {
	headerLine := lines[start]
	if !strings.Contains(headerLine, "|") || indentWidth(headerLine) > 3 {
		return nil, start, false
	}
	align, ok := parseDelimiterRow(lines[start+1])
	if !ok {
		return nil, start, false
	}
	header := SplitRow(headerLine)
	if len(header) != len(align) {
		return nil, start, false
	}

	t := &Table{Header: header, Align: align}
	i := start + 2
	for ; i < len(lines); i++ {
		line := lines[i]
		if isBlank(line) || !strings.Contains(line, "|") {
			break
		}
		if _, ok := openFence(line); ok {
			break
		}
		if _, ok := quoteContent(line); ok {
			break
		}
		t.Rows = append(t.Rows, fitRow(SplitRow(line), len(header)))
	}

	return t, i, true
}

// fitRow pads a row on the right with empty cells, or drops extra cells,
// so that it has exactly n cells.
func fitRow(cells []string, n int) []string {
	if len(cells) >= n {
		return cells[:n:n]
	}
	out := make([]string, n)
	copy(out, cells)
	return out
}

// parseDelimiterRow parses "| --- | :-: | --: |". Every cell must be one or
// more dashes with optional colons at either end.
func parseDelimiterRow(line string) ([]Align, bool) {
	if indentWidth(line) > 3 {
		return nil, false
	}
	trimmed := strings.TrimSpace(line)
	// A bare "---" is a rule or setext underline, not a one-column table.
	if !strings.Contains(trimmed, "|") {
		return nil, false
	}

	cells := SplitRow(trimmed)
	if len(cells) == 0 {
		return nil, false
	}
	align := make([]Align, len(cells))
	for i, c := range cells {
		left := strings.HasPrefix(c, ":")
		right := strings.HasSuffix(c, ":") && len(c) > 1
		dashes := strings.TrimSuffix(strings.TrimPrefix(c, ":"), ":")
		if dashes == "" || strings.Trim(dashes, "-") != "" {
			return nil, false
		}
		switch {
		case left && right:
			align[i] = AlignCenter
		case right:
			align[i] = AlignRight
		case left:
			align[i] = AlignLeft
		}
	}
	return align, true
}

// SplitRow splits a pipe-table row into trimmed cells. A leading and a
// trailing pipe are optional. "\|" yields a literal pipe inside a cell;
// any other backslash pair is kept as written.
func SplitRow(line string) []string {
	s := strings.TrimSpace(line)
	s = strings.TrimPrefix(s, "|")
	if strings.HasSuffix(s, "|") && !escapedAt(s, len(s)-1) {
		s = s[:len(s)-1]
	}

	var cells []string
	var cur strings.Builder
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '\\' && i+1 < len(s):
			if s[i+1] == '|' {
				cur.WriteByte('|')
			} else {
				cur.WriteByte(c)
				cur.WriteByte(s[i+1])
			}
			i++
		case c == '|':
			cells = append(cells, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteByte(c)
		}
	}
	cells = append(cells, strings.TrimSpace(cur.String()))
	return cells
}

// escapedAt reports whether s[i] is preceded by an odd number of backslashes.
func escapedAt(s string, i int) bool {
	n := 0
	for j := i - 1; j >= 0 && s[j] == '\\'; j-- {
		n++
	}
	return n%2 == 1
}

// EscapeCell re-escapes literal pipes so a cell survives SplitRow.
func EscapeCell(cell string) string {
	return strings.ReplaceAll(cell, "|", `\|`)
}

// CellText returns the plain text of a cell with inline markup resolved.
func CellText(cell string) string {
	return PlainText(ParseInline(cell))
}
