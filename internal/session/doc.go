// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package session provides the chat list manager.
//
// The manager sits on top of the conversation store and gives front-ends
// the sidebar view of a session: which chats exist, their titles, how
// recently they changed, and which one is active. It also tracks user
// activity for the status line.
//
// # Key Types
//
//   - Manager: chat list navigation and activity tracking
//   - ChatSummary: one row of the chat list
//   - Status: snapshot for status bars
//
// # Usage
//
//	mgr := session.NewManager(store, session.DefaultConfig())
//	id := mgr.NewChat()
//	fmt.Println(session.FormatChatList(mgr.Chats(""), time.Now()))
package session
