// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package extract produces canonical text for code blocks and tables.
//
// Extraction always works from the document model, never from rendered
// output, so whitespace and escapes survive copying exactly.
//
// # Usage
//
//	text := extract.Code(block)
//	csv, err := extract.Table(tbl, extract.FormatCSV)
package extract

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/jeranaias/rigrun-chat/internal/document"
	"github.com/jeranaias/rigrun-chat/internal/errs"
)

// =============================================================================
// FORMATS
// =============================================================================

// Format is a table export format.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatCSV      Format = "csv"
	FormatPlain    Format = "plain"
)

// Formats lists the table formats in menu order.
var Formats = []Format{FormatMarkdown, FormatCSV, FormatPlain}

// Label returns the menu label for the format.
func (f Format) Label() string {
	switch f {
	case FormatMarkdown:
		return "Markdown"
	case FormatCSV:
		return "CSV"
	case FormatPlain:
		return "Plain Text"
	default:
		return string(f)
	}
}

// ParseFormat accepts a format name or a common alias.
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "markdown", "md":
		return FormatMarkdown, nil
	case "csv":
		return FormatCSV, nil
	case "plain", "text", "txt":
		return FormatPlain, nil
	default:
		return "", errs.New(errs.KindInvalidState, "parse format", "unknown table format "+name)
	}
}

// MinColumnWidth is the narrowest column in plain output.
const MinColumnWidth = 8

// =============================================================================
// CODE
// =============================================================================

// Code returns the literal text of a code block.
func Code(cb *document.CodeBlock) string {
	return cb.Literal
}

// =============================================================================
// TABLES
// =============================================================================

// Table renders t in the given format. Lines are joined with "\n" and the
// result has no trailing newline.
func Table(t *document.Table, f Format) (string, error) {
	switch f {
	case FormatMarkdown:
		return tableMarkdown(t), nil
	case FormatCSV:
		return tableCSV(t), nil
	case FormatPlain:
		return tablePlain(t), nil
	default:
		return "", errs.New(errs.KindInvalidState, "extract table", "unknown table format "+string(f))
	}
}

// tableMarkdown emits cell source text with pipes re-escaped, so parsing
// the output yields the same cells.
func tableMarkdown(t *document.Table) string {
	lines := make([]string, 0, len(t.Rows)+2)
	lines = append(lines, markdownRow(t.Header))

	sep := make([]string, len(t.Header))
	for i := range sep {
		sep[i] = "---"
	}
	lines = append(lines, "|"+strings.Join(sep, "|")+"|")

	for _, row := range t.Rows {
		lines = append(lines, markdownRow(row))
	}
	return strings.Join(lines, "\n")
}

func markdownRow(cells []string) string {
	escaped := make([]string, len(cells))
	for i, c := range cells {
		escaped[i] = document.EscapeCell(c)
	}
	return "| " + strings.Join(escaped, " | ") + " |"
}

func tableCSV(t *document.Table) string {
	lines := make([]string, 0, len(t.Rows)+1)
	for _, row := range plainRows(t) {
		fields := make([]string, len(row))
		for i, c := range row {
			fields[i] = csvField(c)
		}
		lines = append(lines, strings.Join(fields, ","))
	}
	return strings.Join(lines, "\n")
}

// csvField quotes a field containing a comma, quote or line break and
// doubles inner quotes.
func csvField(s string) string {
	if !strings.ContainsAny(s, ",\"\n\r") {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// tablePlain pads every cell to its column width, which is the widest
// display width in the column but at least MinColumnWidth.
func tablePlain(t *document.Table) string {
	rows := plainRows(t)
	widths := ColumnWidths(rows, MinColumnWidth)

	lines := make([]string, 0, len(rows)+1)
	for r, row := range rows {
		cells := make([]string, len(row))
		for i, c := range row {
			cells[i] = runewidth.FillRight(c, widths[i])
		}
		lines = append(lines, strings.Join(cells, " | "))

		if r == 0 {
			dashes := make([]string, len(widths))
			for i, w := range widths {
				dashes[i] = strings.Repeat("-", w)
			}
			lines = append(lines, strings.Join(dashes, "-|-"))
		}
	}
	return strings.Join(lines, "\n")
}

// plainRows returns header and body rows with inline markup resolved.
func plainRows(t *document.Table) [][]string {
	rows := make([][]string, 0, len(t.Rows)+1)
	rows = append(rows, plainCells(t.Header))
	for _, row := range t.Rows {
		rows = append(rows, plainCells(row))
	}
	return rows
}

func plainCells(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = document.CellText(c)
	}
	return out
}

// ColumnWidths returns the display width of each column, floored at floor.
func ColumnWidths(rows [][]string, floor int) []int {
	if len(rows) == 0 {
		return nil
	}
	widths := make([]int, len(rows[0]))
	for i := range widths {
		widths[i] = floor
	}
	for _, row := range rows {
		for i, c := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], runewidth.StringWidth(c))
			}
		}
	}
	return widths
}
