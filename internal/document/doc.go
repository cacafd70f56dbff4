// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package document parses message text into a tree of typed block nodes.
//
// Parse is total: any input produces a Document, in the worst case a single
// paragraph holding the raw text. A Document is rebuilt from message content
// on every render and is never mutated afterwards.
//
// # Key Types
//
//   - Document: ordered top-level nodes of one message
//   - Node: closed set of block variants (Paragraph, Heading, List,
//     Blockquote, CodeBlock, Table, Rule) plus InlineRun
//   - Visitor: one method per variant; adding a variant breaks every
//     implementation at compile time
//   - Span: flat inline fragment (plain, bold, italic, code, link)
//
// # Usage
//
//	doc := document.Parse(msg.Content)
//	for _, n := range doc.Nodes {
//	    n.Accept(myVisitor)
//	}
package document
