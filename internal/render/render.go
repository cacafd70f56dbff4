// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package render projects a parsed document into a presentation tree.
//
// Project is a pure function of the document and the interactive State
// supplied by the front-end. It never mutates the document and keeps no
// state of its own, so projecting the same input twice yields equal trees.
//
// Code blocks carry a copy action and tables a copy-as action offering the
// extract formats. Copy actions resolve against the model node retained by
// each presentation node, never against rendered text.
//
// # Usage
//
//	tree := render.Project(document.Parse(msg.Content), render.State{})
//	if n := tree.Find("2"); n != nil {
//	    text, err := n.Copy(extract.FormatCSV)
//	}
package render

import (
	"slices"
	"strconv"

	"github.com/jeranaias/rigrun-chat/internal/document"
	"github.com/jeranaias/rigrun-chat/internal/errs"
	"github.com/jeranaias/rigrun-chat/internal/extract"
)

// =============================================================================
// PRESENTATION TREE
// =============================================================================

// Kind identifies the presentation element.
type Kind string

const (
	KindParagraph  Kind = "paragraph"
	KindHeading    Kind = "heading"
	KindList       Kind = "list"
	KindItem       Kind = "item"
	KindBlockquote Kind = "blockquote"
	KindCode       Kind = "code"
	KindTable      Kind = "table"
	KindRule       Kind = "rule"
	KindInline     Kind = "inline"
)

// ActionKind names an affordance attached to a node.
type ActionKind string

const (
	// ActionCopy copies a code block's literal text.
	ActionCopy ActionKind = "copy"

	// ActionCopyAs copies a table in one of Formats.
	ActionCopyAs ActionKind = "copy-as"
)

// Action is an affordance on a node. Open is true while the node's format
// menu is shown; Copied while the front-end shows copy feedback.
type Action struct {
	Kind    ActionKind
	Target  string
	Formats []extract.Format
	Open    bool
	Copied  bool
}

// State is the transient interaction state owned by the front-end. Both
// fields hold node IDs; empty means none.
type State struct {
	OpenMenu string
	Copied   string
}

// Node is one element of the presentation tree. IDs are index paths from
// the document root: "2" is the third top-level block, "2.0.1" the second
// block of its first list item.
type Node struct {
	ID       string
	Kind     Kind
	Children []*Node
	Actions  []Action

	// Heading
	Level int

	// List
	Ordered bool
	Start   int

	// Code
	Language string
	Code     string

	// Table
	Header []string
	Align  []document.Align
	Rows   [][]string

	// Inline
	Spans []document.Span

	source document.Node
}

// Tree is the projection of one document.
type Tree struct {
	Nodes []*Node
}

// Find returns the node with the given ID, or nil.
func (t Tree) Find(id string) *Node {
	var found *Node
	t.Walk(func(n *Node) bool {
		if n.ID == id {
			found = n
		}
		return found == nil
	})
	return found
}

// Walk visits nodes depth-first until fn returns false.
func (t Tree) Walk(fn func(*Node) bool) {
	var walk func([]*Node) bool
	walk = func(nodes []*Node) bool {
		for _, n := range nodes {
			if !fn(n) || !walk(n.Children) {
				return false
			}
		}
		return true
	}
	walk(t.Nodes)
}

// Actionable returns the nodes that carry actions, in document order.
func (t Tree) Actionable() []*Node {
	var out []*Node
	t.Walk(func(n *Node) bool {
		if len(n.Actions) > 0 {
			out = append(out, n)
		}
		return true
	})
	return out
}

// Copy extracts the node's text from the document model. Code blocks ignore
// the format; tables require one of the extract formats.
func (n *Node) Copy(format extract.Format) (string, error) {
	switch src := n.source.(type) {
	case *document.CodeBlock:
		return extract.Code(src), nil
	case *document.Table:
		return extract.Table(src, format)
	default:
		return "", errs.New(errs.KindInvalidState, "copy", "node "+n.ID+" has no copy action")
	}
}

// Source returns the document node this presentation node was built from.
func (n *Node) Source() document.Node {
	return n.source
}

// =============================================================================
// PROJECTOR
// =============================================================================

// Project builds the presentation tree for doc under state.
func Project(doc document.Document, state State) Tree {
	return Tree{Nodes: projectAll(doc.Nodes, "", state)}
}

// ProjectText parses and projects message content.
func ProjectText(content string, state State) Tree {
	return Project(document.Parse(content), state)
}

func projectAll(nodes []document.Node, prefix string, state State) []*Node {
	out := make([]*Node, 0, len(nodes))
	for i, n := range nodes {
		p := projector{id: childID(prefix, i), state: state}
		n.Accept(&p)
		out = append(out, p.out)
	}
	return out
}

func childID(prefix string, i int) string {
	if prefix == "" {
		return strconv.Itoa(i)
	}
	return prefix + "." + strconv.Itoa(i)
}

// projector maps one document node. It implements document.Visitor, so a
// new node variant fails to compile here until it is handled.
type projector struct {
	id    string
	state State
	out   *Node
}

func (p *projector) node(kind Kind, src document.Node) *Node {
	p.out = &Node{ID: p.id, Kind: kind, source: src}
	return p.out
}

func (p *projector) inline(run *document.InlineRun) *Node {
	return &Node{ID: childID(p.id, 0), Kind: KindInline, Spans: slices.Clone(run.Spans), source: run}
}

func (p *projector) VisitParagraph(n *document.Paragraph) {
	out := p.node(KindParagraph, n)
	out.Children = []*Node{p.inline(&n.Inline)}
}

func (p *projector) VisitHeading(n *document.Heading) {
	out := p.node(KindHeading, n)
	out.Level = n.Level
	out.Children = []*Node{p.inline(&n.Inline)}
}

func (p *projector) VisitList(n *document.List) {
	out := p.node(KindList, n)
	out.Ordered = n.Ordered
	out.Start = n.Start
	out.Children = make([]*Node, len(n.Items))
	for i, item := range n.Items {
		itemID := childID(p.id, i)
		out.Children[i] = &Node{
			ID:       itemID,
			Kind:     KindItem,
			Children: projectAll(item.Children, itemID, p.state),
		}
	}
}

func (p *projector) VisitBlockquote(n *document.Blockquote) {
	out := p.node(KindBlockquote, n)
	out.Children = projectAll(n.Children, p.id, p.state)
}

func (p *projector) VisitCodeBlock(n *document.CodeBlock) {
	out := p.node(KindCode, n)
	out.Language = n.Language
	out.Code = n.Literal
	out.Actions = []Action{{
		Kind:   ActionCopy,
		Target: p.id,
		Copied: p.state.Copied == p.id,
	}}
}

func (p *projector) VisitTable(n *document.Table) {
	out := p.node(KindTable, n)
	out.Header = slices.Clone(n.Header)
	out.Align = slices.Clone(n.Align)
	out.Rows = make([][]string, len(n.Rows))
	for i, row := range n.Rows {
		out.Rows[i] = slices.Clone(row)
	}
	out.Actions = []Action{{
		Kind:    ActionCopyAs,
		Target:  p.id,
		Formats: slices.Clone(extract.Formats),
		Open:    p.state.OpenMenu == p.id,
		Copied:  p.state.Copied == p.id,
	}}
}

func (p *projector) VisitRule(n *document.Rule) {
	p.node(KindRule, n)
}

func (p *projector) VisitInlineRun(n *document.InlineRun) {
	out := p.node(KindInline, n)
	out.Spans = slices.Clone(n.Spans)
}
