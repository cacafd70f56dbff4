// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat coordinates the conversation store with asynchronous work.
//
// Reply generation, attachment previews and clipboard writes run as jobs
// on a tasks.Runner. A job never mutates the store itself: it posts one
// closure to the Controller's mutation queue, which a single goroutine
// drains. Front-ends learn about completions from Events and re-read the
// store.
//
// # Key Types
//
//   - Controller: owns the mutation queue, the runner and the draft
//   - Draft: the message being composed, with pending attachments
//   - Event: a refresh notification (reply ready, reply failed, copied, ...)
//
// # Usage
//
//	ctl, err := chat.New(store, chat.Options{Source: respond.NewCanned()})
//	defer ctl.Close()
//
//	if _, err := ctl.Send(convID, "hello", nil); err != nil {
//	    return err
//	}
//	for ev := range ctl.Events() {
//	    if ev.Kind == chat.EventReplyReady {
//	        refresh(ev.ConversationID)
//	    }
//	}
package chat
