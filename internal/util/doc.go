// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package util provides small helpers shared across rigrun-chat.
//
// # Key Functions
//
// String Utilities:
//   - TruncateRunes: UTF-8 safe truncation with ellipsis (titles, previews)
//   - TruncateWidth: display-width truncation for terminal columns
//   - FirstLine: first non-blank line of a text
//
// File Operations:
//   - AtomicWriteFile: crash-safe file writing with fsync (config, preferences)
//
// # Usage
//
//	title := util.TruncateRunes(text, 30)
//	err := util.AtomicWriteFile(path, data, 0600)
package util
