// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package model contains the data structures for conversations and messages.
//
// These are plain values. The conversation store in internal/storage owns
// the live instances and hands out copies; nothing in this package is safe
// for concurrent mutation on its own.
//
// # Key Types
//
//   - Conversation: ordered thread of messages with title, preview and timestamps
//   - Message: one user or assistant turn, with attachments and a rating
//   - Attachment: file or pasted image sent with a user message
//   - Rating: ternary thumbs up / thumbs down / none
//   - ModelInfo: entry in the model catalog shown by the front-ends
//
// # Usage
//
//	msg := model.NewMessage(model.RoleUser, "Hello!")
//	msg.Rating = msg.Rating.Toggle(model.RatingUp)
package model
