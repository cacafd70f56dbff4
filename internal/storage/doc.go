// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package storage provides the in-memory conversation store for rigrun-chat.
//
// The store is the only owner of conversations and messages. Every mutation
// is atomic with respect to every other, and reads hand out deep copies.
// Nothing is written to disk; whole conversations can be exported on demand
// through internal/export.
//
// # Key Types
//
//   - ConversationStore: conversations, the active ID, message lookup
//
// # Usage
//
// Create a store and its first conversation:
//
//	store := storage.NewConversationStore()
//	id := store.CreateConversation()
//
// Append and regenerate:
//
//	msg, err := store.AppendUserMessage(id, "Hello", nil)
//	reply, err := store.AppendAssistantMessage(id, "Hi!")
//	again, err := store.RegenerateAt(id, 2, "Hello again!")
//
// Errors are classified with internal/errs; compare with errors.Is against
// errs.ErrInvalidState, errs.ErrInvalidIndex or errs.ErrNotFound.
package storage
