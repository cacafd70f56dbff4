// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package document

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// BLOCK TESTS
// =============================================================================

func TestParse_Empty(t *testing.T) {
	assert.Empty(t, Parse("").Nodes)
	assert.Empty(t, Parse("\n\n  \n").Nodes)
}

func TestParse_Paragraphs(t *testing.T) {
	doc := Parse("first line\nsecond line\n\nnext paragraph")
	require.Len(t, doc.Nodes, 2)

	p, ok := doc.Nodes[0].(*Paragraph)
	require.True(t, ok)
	assert.Equal(t, "first line\nsecond line", p.Inline.PlainText())

	p, ok = doc.Nodes[1].(*Paragraph)
	require.True(t, ok)
	assert.Equal(t, "next paragraph", p.Inline.PlainText())
}

func TestParse_Headings(t *testing.T) {
	tests := []struct {
		in    string
		level int
		text  string
	}{
		{"# Title", 1, "Title"},
		{"###### Six", 6, "Six"},
		{"## Closed ##", 2, "Closed"},
		{"# C#", 1, "C#"},
		{"#", 1, ""},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			doc := Parse(tc.in)
			require.Len(t, doc.Nodes, 1)
			h, ok := doc.Nodes[0].(*Heading)
			require.True(t, ok)
			assert.Equal(t, tc.level, h.Level)
			assert.Equal(t, tc.text, h.Inline.PlainText())
		})
	}
}

func TestParse_NotHeadings(t *testing.T) {
	for _, in := range []string{"#hashtag", "####### seven", "    # indented"} {
		doc := Parse(in)
		require.Len(t, doc.Nodes, 1, in)
		_, ok := doc.Nodes[0].(*Paragraph)
		assert.True(t, ok, in)
	}
}

func TestParse_CodeFence(t *testing.T) {
	doc := Parse("intro\n```go\nfunc main() {\n\tprintln(\"hi\")\n}\n```\nafter")
	require.Len(t, doc.Nodes, 3)

	cb, ok := doc.Nodes[1].(*CodeBlock)
	require.True(t, ok)
	assert.Equal(t, "go", cb.Language)
	assert.Equal(t, "func main() {\n\tprintln(\"hi\")\n}", cb.Literal)
}

func TestParse_CodeFenceKeepsEverythingLiteral(t *testing.T) {
	src := "```\n# not a heading\n| a | b |\n|---|---|\n> not a quote\n- not a list\n```"
	doc := Parse(src)
	require.Len(t, doc.Nodes, 1)

	cb := doc.Nodes[0].(*CodeBlock)
	assert.Empty(t, cb.Language)
	assert.Equal(t, "# not a heading\n| a | b |\n|---|---|\n> not a quote\n- not a list", cb.Literal)
}

func TestParse_UnclosedFenceRunsToEnd(t *testing.T) {
	doc := Parse("~~~python\nprint(1)\n\nprint(2)")
	require.Len(t, doc.Nodes, 1)
	cb := doc.Nodes[0].(*CodeBlock)
	assert.Equal(t, "python", cb.Language)
	assert.Equal(t, "print(1)\n\nprint(2)", cb.Literal)
}

func TestParse_FenceNeedsMatchingCloser(t *testing.T) {
	doc := Parse("````\n```\ninner\n```\n````")
	require.Len(t, doc.Nodes, 1)
	assert.Equal(t, "```\ninner\n```", doc.Nodes[0].(*CodeBlock).Literal)
}

func TestParse_Blockquote(t *testing.T) {
	doc := Parse("> quoted **text**\n> > nested\n\noutside")
	require.Len(t, doc.Nodes, 2)

	bq, ok := doc.Nodes[0].(*Blockquote)
	require.True(t, ok)
	require.Len(t, bq.Children, 2)
	assert.Equal(t, "quoted text", bq.Children[0].(*Paragraph).Inline.PlainText())

	inner, ok := bq.Children[1].(*Blockquote)
	require.True(t, ok)
	assert.Equal(t, "nested", inner.Children[0].(*Paragraph).Inline.PlainText())
}

func TestParse_UnorderedList(t *testing.T) {
	doc := Parse("- one\n- two\n  continued\n  - nested\n- three")
	require.Len(t, doc.Nodes, 1)

	l, ok := doc.Nodes[0].(*List)
	require.True(t, ok)
	assert.False(t, l.Ordered)
	require.Len(t, l.Items, 3)

	second := l.Items[1].Children
	require.Len(t, second, 2)
	assert.Equal(t, "two\ncontinued", second[0].(*Paragraph).Inline.PlainText())
	nested, ok := second[1].(*List)
	require.True(t, ok)
	require.Len(t, nested.Items, 1)
}

func TestParse_OrderedList(t *testing.T) {
	doc := Parse("3. three\n4. four")
	require.Len(t, doc.Nodes, 1)
	l := doc.Nodes[0].(*List)
	assert.True(t, l.Ordered)
	assert.Equal(t, 3, l.Start)
	assert.Len(t, l.Items, 2)
}

func TestParse_ListTypeChangeStartsNewList(t *testing.T) {
	doc := Parse("- a\n* b\n1. c")
	require.Len(t, doc.Nodes, 3)
	for _, n := range doc.Nodes {
		_, ok := n.(*List)
		assert.True(t, ok)
	}
}

func TestParse_OrderedListCannotInterruptParagraphUnlessOne(t *testing.T) {
	doc := Parse("In the year\n2024. was busy")
	require.Len(t, doc.Nodes, 1)
	_, ok := doc.Nodes[0].(*Paragraph)
	assert.True(t, ok)

	doc = Parse("Steps:\n1. first")
	require.Len(t, doc.Nodes, 2)
	_, ok = doc.Nodes[1].(*List)
	assert.True(t, ok)
}

func TestParse_ThematicBreak(t *testing.T) {
	doc := Parse("above\n\n---\n\n* * *\nbelow")
	require.Len(t, doc.Nodes, 4)
	_, ok := doc.Nodes[1].(*Rule)
	assert.True(t, ok)
	_, ok = doc.Nodes[2].(*Rule)
	assert.True(t, ok)
}

func TestParse_CRLF(t *testing.T) {
	doc := Parse("# Title\r\n\r\nbody")
	require.Len(t, doc.Nodes, 2)
	assert.Equal(t, "Title", doc.Nodes[0].(*Heading).Inline.PlainText())
}

func TestParse_Total(t *testing.T) {
	inputs := []string{
		"```", "|", "||", "|-|", "> ", "-", "1.", "[", "](", "*", "**", "`", "<", "\\",
		"| a |\n|---|\n", strings.Repeat("*", 50), strings.Repeat("[", 20) + strings.Repeat("(", 20),
	}
	for _, in := range inputs {
		assert.NotPanics(t, func() { Parse(in) }, in)
	}
}

// =============================================================================
// TABLE TESTS
// =============================================================================

func TestParse_Table(t *testing.T) {
	doc := Parse("| a | b |\n|---|---|\n| 1 | 2 |")
	require.Len(t, doc.Nodes, 1)

	tbl, ok := doc.Nodes[0].(*Table)
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, tbl.Header)
	assert.Equal(t, [][]string{{"1", "2"}}, tbl.Rows)
}

func TestParse_TableAfterParagraph(t *testing.T) {
	doc := Parse("Here is a table:\n| a | b |\n|:--|--:|\n| 1 | 2 |\n\nDone.")
	require.Len(t, doc.Nodes, 3)

	tbl, ok := doc.Nodes[1].(*Table)
	require.True(t, ok)
	assert.Equal(t, []Align{AlignLeft, AlignRight}, tbl.Align)
}

func TestParse_TableRowsAreRectangular(t *testing.T) {
	doc := Parse("| a | b | c |\n|---|---|---|\n| 1 |\n| 1 | 2 | 3 | 4 |")
	tbl := doc.Nodes[0].(*Table)
	assert.Equal(t, [][]string{{"1", "", ""}, {"1", "2", "3"}}, tbl.Rows)
	for _, row := range tbl.Rows {
		assert.Len(t, row, tbl.Columns())
	}
}

func TestParse_TableRequiresMatchingDelimiter(t *testing.T) {
	doc := Parse("| a | b |\n|---|\n| 1 | 2 |")
	for _, n := range doc.Nodes {
		_, isTable := n.(*Table)
		assert.False(t, isTable)
	}
}

func TestParse_TableEscapedPipe(t *testing.T) {
	doc := Parse("| expr | meaning |\n|---|---|\n| a \\| b | or |")
	tbl := doc.Nodes[0].(*Table)
	assert.Equal(t, []string{"a | b", "or"}, tbl.Rows[0])
}

func TestParse_TableEndsAtBlank(t *testing.T) {
	doc := Parse("a | b\n--|--\n1 | 2\n\n3 | 4")
	require.Len(t, doc.Nodes, 2)
	tbl := doc.Nodes[0].(*Table)
	assert.Equal(t, []string{"a", "b"}, tbl.Header)
	assert.Len(t, tbl.Rows, 1)
}

func TestSplitRow(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"| a | b |", []string{"a", "b"}},
		{"a|b", []string{"a", "b"}},
		{"|  |", []string{""}},
		{`| x \| y |`, []string{"x | y"}},
		{`| a\\ |`, []string{`a\\`}},
		{`| **b** | c |`, []string{"**b**", "c"}},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, SplitRow(tc.in), tc.in)
	}
}

func TestCellText(t *testing.T) {
	assert.Equal(t, "bold and code", CellText("**bold** and `code`"))
	assert.Equal(t, "a|b", CellText("a|b"))
}

// =============================================================================
// TRAVERSAL TESTS
// =============================================================================

type countingVisitor struct {
	counts map[string]int
}

func (v *countingVisitor) VisitParagraph(*Paragraph)   { v.counts["paragraph"]++ }
func (v *countingVisitor) VisitHeading(*Heading)       { v.counts["heading"]++ }
func (v *countingVisitor) VisitList(*List)             { v.counts["list"]++ }
func (v *countingVisitor) VisitBlockquote(*Blockquote) { v.counts["quote"]++ }
func (v *countingVisitor) VisitCodeBlock(*CodeBlock)   { v.counts["code"]++ }
func (v *countingVisitor) VisitTable(*Table)           { v.counts["table"]++ }
func (v *countingVisitor) VisitRule(*Rule)             { v.counts["rule"]++ }
func (v *countingVisitor) VisitInlineRun(*InlineRun)   { v.counts["inline"]++ }

func TestWalk(t *testing.T) {
	doc := Parse("# H\n\n> - item\n>   ```\n>   code\n>   ```\n\n| a |\n|---|\n| 1 |")

	v := &countingVisitor{counts: map[string]int{}}
	Walk(doc.Nodes, func(n Node) bool {
		n.Accept(v)
		return true
	})

	assert.Equal(t, 1, v.counts["heading"])
	assert.Equal(t, 1, v.counts["quote"])
	assert.Equal(t, 1, v.counts["list"])
	assert.Equal(t, 1, v.counts["code"])
	assert.Equal(t, 1, v.counts["table"])
	assert.Equal(t, 1, v.counts["paragraph"])
	assert.Equal(t, 2, v.counts["inline"])

	require.Len(t, doc.CodeBlocks(), 1)
	assert.Equal(t, "code", doc.CodeBlocks()[0].Literal)
	assert.Len(t, doc.Tables(), 1)
}
