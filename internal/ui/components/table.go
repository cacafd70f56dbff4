// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package components

import (
	"slices"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"

	"github.com/jeranaias/rigrun-chat/internal/document"
	"github.com/jeranaias/rigrun-chat/internal/extract"
	"github.com/jeranaias/rigrun-chat/internal/render"
	"github.com/jeranaias/rigrun-chat/internal/ui/styles"
	"github.com/jeranaias/rigrun-chat/internal/util"
)

// =============================================================================
// TABLE RENDERER
// =============================================================================

// Table renders a projected table node with its copy-as action. When the
// action's menu is open the export formats are listed under the table.
type Table struct {
	Node    *render.Node
	Theme   *styles.Theme
	Width   int
	Focused bool
}

// NewTable creates a table renderer for node.
func NewTable(theme *styles.Theme, node *render.Node, width int) Table {
	return Table{Node: node, Theme: theme, Width: width}
}

// Render returns the table as terminal lines joined with newlines.
func (tb Table) Render() string {
	t := tb.Theme
	rows := make([][]string, 0, len(tb.Node.Rows)+1)
	rows = append(rows, cellTexts(tb.Node.Header))
	for _, r := range tb.Node.Rows {
		rows = append(rows, cellTexts(r))
	}
	widths := fitWidths(extract.ColumnWidths(rows, 1), tb.Width)

	sep := t.TableBorder.Render(" │ ")
	var lines []string
	for r, row := range rows {
		cells := make([]string, len(widths))
		for i := range widths {
			text := ""
			if i < len(row) {
				text = util.TruncateWidth(row[i], widths[i])
			}
			text = alignCell(text, widths[i], tb.align(i))
			if r == 0 {
				cells[i] = t.TableHeader.Render(text)
			} else {
				cells[i] = t.TableCell.Render(text)
			}
		}
		lines = append(lines, strings.Join(cells, sep))

		if r == 0 {
			dashes := make([]string, len(widths))
			for i, w := range widths {
				dashes[i] = strings.Repeat("─", w)
			}
			lines = append(lines, t.TableBorder.Render(strings.Join(dashes, "─┼─")))
		}
	}

	lines = append(lines, tb.actionLine()...)
	return strings.Join(lines, "\n")
}

func (tb Table) align(col int) document.Align {
	if col < len(tb.Node.Align) {
		return tb.Node.Align[col]
	}
	return document.AlignNone
}

// actionLine shows the copy-as trigger and, when open, the format menu.
func (tb Table) actionLine() []string {
	t := tb.Theme
	var action render.Action
	for _, a := range tb.Node.Actions {
		if a.Kind == render.ActionCopyAs {
			action = a
		}
	}
	if action.Kind == "" {
		return nil
	}

	lines := []string{actionLabel(t, tb.Node, CopyAsLabel, tb.Focused)}
	if !action.Open {
		return lines
	}
	items := make([]string, len(action.Formats))
	for i, f := range action.Formats {
		items[i] = t.MenuItem.Render(strconv.Itoa(i+1) + " " + f.Label())
	}
	return append(lines, t.Menu.Render(lipgloss.JoinVertical(lipgloss.Left, items...)))
}

func cellTexts(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		out[i] = document.CellText(c)
	}
	return out
}

// fitWidths narrows the widest columns until the table, separators
// included, fits in width. No column is narrowed below three cells of width.
func fitWidths(widths []int, width int) []int {
	out := slices.Clone(widths)
	if len(out) == 0 {
		return out
	}
	avail := width - 3*(len(out)-1)
	for lo.Sum(out) > avail {
		widest := 0
		for i, w := range out {
			if w > out[widest] {
				widest = i
			}
		}
		if out[widest] <= 3 {
			break
		}
		out[widest]--
	}
	return out
}

