// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package document

// =============================================================================
// DOCUMENT
// =============================================================================

// Document is the parsed structure of one message.
type Document struct {
	Nodes []Node
}

// Node is a block or inline node. The set of implementations is closed:
// the unexported marker keeps other packages from adding variants.
type Node interface {
	Accept(v Visitor)
	isNode()
}

// Visitor handles every node variant.
type Visitor interface {
	VisitParagraph(*Paragraph)
	VisitHeading(*Heading)
	VisitList(*List)
	VisitBlockquote(*Blockquote)
	VisitCodeBlock(*CodeBlock)
	VisitTable(*Table)
	VisitRule(*Rule)
	VisitInlineRun(*InlineRun)
}

// =============================================================================
// BLOCK NODES
// =============================================================================

// Paragraph is a run of text lines.
type Paragraph struct {
	Inline InlineRun
}

// Heading is an ATX heading, Level 1 through 6.
type Heading struct {
	Level  int
	Inline InlineRun
}

// List is an ordered or bullet list. Each item holds its own block nodes.
type List struct {
	Ordered bool
	Start   int // first number of an ordered list
	Items   []ListItem
}

// ListItem is the body of one list entry.
type ListItem struct {
	Children []Node
}

// Blockquote wraps the blocks of a '>' quote.
type Blockquote struct {
	Children []Node
}

// CodeBlock is a fenced block. Literal is the text between the fences,
// verbatim, without a trailing newline.
type CodeBlock struct {
	Language string
	Literal  string
}

// Table is a pipe table. Cells hold the trimmed source text of each cell
// with "\|" already unescaped. Every row in Rows has len(Header) cells.
type Table struct {
	Header []string
	Align  []Align
	Rows   [][]string
}

// Columns returns the number of columns.
func (t *Table) Columns() int {
	return len(t.Header)
}

// Align is a column alignment from the delimiter row.
type Align int

const (
	AlignNone Align = iota
	AlignLeft
	AlignCenter
	AlignRight
)

// Rule is a thematic break.
type Rule struct{}

// =============================================================================
// INLINE NODES
// =============================================================================

// InlineRun is the resolved inline content of a text-bearing block.
type InlineRun struct {
	Spans []Span
}

// PlainText returns the text of the run with all markup removed.
func (r *InlineRun) PlainText() string {
	return PlainText(r.Spans)
}

// SpanKind tags an inline span.
type SpanKind int

const (
	SpanPlain SpanKind = iota
	SpanBold
	SpanItalic
	SpanCode
	SpanLink
)

// String returns the kind name.
func (k SpanKind) String() string {
	switch k {
	case SpanBold:
		return "bold"
	case SpanItalic:
		return "italic"
	case SpanCode:
		return "code"
	case SpanLink:
		return "link"
	default:
		return "plain"
	}
}

// Span is one inline fragment. Href is set for links only.
type Span struct {
	Kind SpanKind
	Text string
	Href string
}

// =============================================================================
// VISITOR DISPATCH
// =============================================================================

func (n *Paragraph) Accept(v Visitor)  { v.VisitParagraph(n) }
func (n *Heading) Accept(v Visitor)    { v.VisitHeading(n) }
func (n *List) Accept(v Visitor)       { v.VisitList(n) }
func (n *Blockquote) Accept(v Visitor) { v.VisitBlockquote(n) }
func (n *CodeBlock) Accept(v Visitor)  { v.VisitCodeBlock(n) }
func (n *Table) Accept(v Visitor)      { v.VisitTable(n) }
func (n *Rule) Accept(v Visitor)       { v.VisitRule(n) }
func (n *InlineRun) Accept(v Visitor)  { v.VisitInlineRun(n) }

func (*Paragraph) isNode()  {}
func (*Heading) isNode()    {}
func (*List) isNode()       {}
func (*Blockquote) isNode() {}
func (*CodeBlock) isNode()  {}
func (*Table) isNode()      {}
func (*Rule) isNode()       {}
func (*InlineRun) isNode()  {}

// =============================================================================
// TRAVERSAL
// =============================================================================

// Walk calls fn for every node in depth-first order. Paragraph and Heading
// visit their InlineRun as a child. Returning false skips the children of
// the current node.
func Walk(nodes []Node, fn func(Node) bool) {
	for _, n := range nodes {
		if !fn(n) {
			continue
		}
		Walk(Children(n), fn)
	}
}

// Children returns the direct children of n.
func Children(n Node) []Node {
	var c childCollector
	n.Accept(&c)
	return c.out
}

type childCollector struct {
	out []Node
}

func (c *childCollector) VisitParagraph(n *Paragraph) { c.out = []Node{&n.Inline} }
func (c *childCollector) VisitHeading(n *Heading)     { c.out = []Node{&n.Inline} }
func (c *childCollector) VisitList(n *List) {
	for i := range n.Items {
		c.out = append(c.out, n.Items[i].Children...)
	}
}
func (c *childCollector) VisitBlockquote(n *Blockquote) { c.out = n.Children }
func (c *childCollector) VisitCodeBlock(*CodeBlock)     {}
func (c *childCollector) VisitTable(*Table)             {}
func (c *childCollector) VisitRule(*Rule)               {}
func (c *childCollector) VisitInlineRun(*InlineRun)     {}

// CodeBlocks returns every code block in document order.
func (d Document) CodeBlocks() []*CodeBlock {
	var out []*CodeBlock
	Walk(d.Nodes, func(n Node) bool {
		if cb, ok := n.(*CodeBlock); ok {
			out = append(out, cb)
		}
		return true
	})
	return out
}

// Tables returns every table in document order.
func (d Document) Tables() []*Table {
	var out []*Table
	Walk(d.Nodes, func(n Node) bool {
		if t, ok := n.(*Table); ok {
			out = append(out, t)
		}
		return true
	})
	return out
}
