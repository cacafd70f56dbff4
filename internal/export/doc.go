// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package export writes a conversation out as a standalone document.
//
// # Key Types
//
//   - Exporter: renders a conversation (Markdown, JSON, HTML)
//   - Format: export format name, parsed from user input by ParseFormat
//   - Options: output directory, metadata, timestamps, theme
//
// # Supported Formats
//
//   - Markdown: YAML front matter followed by the messages
//   - JSON: the full conversation with export metadata, no attachment bytes
//   - HTML: a styled page; message Markdown rendered with goldmark
//
// # Usage
//
//	exporter, err := export.New(export.FormatMarkdown, export.DefaultOptions())
//	path, err := export.ToFile(conv, exporter, opts)
package export
